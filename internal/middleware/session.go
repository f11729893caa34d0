package middleware

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextSessionKey = "audit_session"

// SessionMiddleware opens one logging session per request: derives the
// module/controller/action triple from the matched route, records the
// request on entry and stamps the elapsed time on exit. Handlers reach
// the session through SessionFrom.
func SessionMiddleware(mgr *session.Manager, cfg *config.Config) gin.HandlerFunc {
	captureBody := make(map[[3]string]struct{})
	if cfg != nil {
		for _, ref := range cfg.Audit.CaptureBody {
			captureBody[[3]string{ref.Module, ref.Controller, ref.Action}] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		reqID := uuid.New().String()
		c.Header("X-Request-ID", reqID)

		module, controller, action := routeIdentity(c)
		_, needBody := captureBody[[3]string{module, controller, action}]

		// read the body once and write it back for later binds
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		adminID, adminName := AdminFrom(c)
		s := mgr.Begin(session.RequestInfo{
			Module:     module,
			Controller: controller,
			Action:     action,
			ClientIP:   c.ClientIP(),
			NeedBody:   needBody,
			AdminID:    adminID,
			AdminName:  adminName,
			Params:     requestParams(c, bodyBytes),
			Cookies:    requestCookies(c),
			Body:       bodyBytes,
		})
		c.Set(ContextSessionKey, s)

		// request logging precedes business logic; if it cannot be
		// written the request fails loudly
		if _, err := s.RecordRequest(c.Request.Context()); err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		c.Next()

		if err := s.Complete(c.Request.Context()); err != nil {
			logger.LogError(c.Request.Context(), err, "failed to finish request log",
				"module", module, "controller", controller, "action", action)
		}
	}
}

// SessionFrom returns the request's logging session, nil when the session
// middleware did not run.
func SessionFrom(c *gin.Context) *session.Session {
	if val, exists := c.Get(ContextSessionKey); exists {
		if s, ok := val.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// routeIdentity maps the matched route pattern onto a module/controller/
// action triple: the first three path segments, with missing segments
// defaulting to "index".
func routeIdentity(c *gin.Context) (string, string, string) {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")

	triple := [3]string{"index", "index", "index"}
	for i := 0; i < len(parts) && i < 3; i++ {
		seg := strings.TrimPrefix(parts[i], ":")
		if seg != "" {
			triple[i] = seg
		}
	}
	return triple[0], triple[1], triple[2]
}

func requestParams(c *gin.Context, body []byte) map[string]any {
	params := make(map[string]any)
	for key, values := range c.Request.URL.Query() {
		if len(values) == 1 {
			params[key] = values[0]
		} else {
			params[key] = values
		}
	}
	if strings.HasPrefix(c.ContentType(), "application/x-www-form-urlencoded") && len(body) > 0 {
		if form, err := url.ParseQuery(string(body)); err == nil {
			for key, values := range form {
				if len(values) == 1 {
					params[key] = values[0]
				} else {
					params[key] = values
				}
			}
		}
	}
	return params
}

func requestCookies(c *gin.Context) map[string]string {
	cookies := c.Request.Cookies()
	if len(cookies) == 0 {
		return nil
	}
	out := make(map[string]string, len(cookies))
	for _, ck := range cookies {
		out[ck.Name] = ck.Value
	}
	return out
}
