package middleware

import (
	"github.com/auditgate/auditgate/internal/config"
	"github.com/gin-gonic/gin"
)

const ContextAdminKey = "audit_admin"
const HeaderAdminKey = "X-Admin-Key"

// IdentityMiddleware resolves the acting admin from the X-Admin-Key header
// against the configured admins. Unknown or missing keys leave the request
// anonymous; log rows then carry admin id 0.
func IdentityMiddleware(cfg *config.Config) gin.HandlerFunc {
	byKey := make(map[string]config.AdminConfig)
	if cfg != nil {
		for _, admin := range cfg.Auth.Admins {
			if admin.APIKey != "" {
				byKey[admin.APIKey] = admin
			}
		}
	}

	return func(c *gin.Context) {
		if key := c.GetHeader(HeaderAdminKey); key != "" {
			if admin, ok := byKey[key]; ok {
				c.Set(ContextAdminKey, admin)
			}
		}
		c.Next()
	}
}

// AdminFrom returns the acting admin's identity, (0, "") for anonymous
// requests.
func AdminFrom(c *gin.Context) (int64, string) {
	if val, exists := c.Get(ContextAdminKey); exists {
		if admin, ok := val.(config.AdminConfig); ok {
			return admin.ID, admin.Name
		}
	}
	return 0, ""
}
