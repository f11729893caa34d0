package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/session"
	"github.com/gin-gonic/gin"
)

type memStore struct {
	requests   []*model.RequestLog
	finished   map[int64]int64
	operations []*model.OperationLog
	debugs     []*model.DebugLog
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{finished: make(map[int64]int64)}
}

func (m *memStore) InsertRequest(_ context.Context, entry *model.RequestLog) (int64, error) {
	m.nextID++
	entry.ID = m.nextID
	m.requests = append(m.requests, entry)
	return m.nextID, nil
}

func (m *memStore) FinishRequest(_ context.Context, id int64, consumeMs int64) error {
	m.finished[id] = consumeMs
	return nil
}

func (m *memStore) InsertOperation(_ context.Context, entry *model.OperationLog) error {
	m.operations = append(m.operations, entry)
	return nil
}

func (m *memStore) InsertDebug(_ context.Context, entry *model.DebugLog) error {
	m.debugs = append(m.debugs, entry)
	return nil
}

func newRouter(store session.Store, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	mgr := session.NewManager(store, nil, nil, cfg.Audit.SkipRequestLog)

	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(IdentityMiddleware(cfg))
	r.Use(SessionMiddleware(mgr, cfg))
	return r
}

func TestSessionMiddlewareRecordsLifecycle(t *testing.T) {
	store := newMemStore()
	r := newRouter(store, &config.Config{})

	r.POST("/shop/order/create", func(c *gin.Context) {
		s := SessionFrom(c)
		if s == nil {
			t.Fatal("no session in context")
		}
		defer s.TitleScope("Create Order")()
		if err := s.RecordOperation(c.Request.Context(), "orders", "insert", gin.H{"sku": "A-100"}); err != nil {
			t.Fatalf("record operation: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/shop/order/create?sku=A-100", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}

	if len(store.requests) != 1 {
		t.Fatalf("expected one request row, got %d", len(store.requests))
	}
	entry := store.requests[0]
	if entry.Module != "shop" || entry.Controller != "order" || entry.Action != "create" {
		t.Fatalf("bad route identity: %s/%s/%s", entry.Module, entry.Controller, entry.Action)
	}
	if !strings.Contains(entry.Params, `"sku":"A-100"`) {
		t.Fatalf("params missing: %q", entry.Params)
	}
	if !strings.Contains(entry.Cookie, `"sid":"abc"`) {
		t.Fatalf("cookies missing: %q", entry.Cookie)
	}

	if len(store.operations) != 1 || store.operations[0].RequestID != 1 {
		t.Fatalf("operation not linked to request")
	}
	if store.operations[0].Title != "Create Order" {
		t.Fatalf("unexpected title %q", store.operations[0].Title)
	}

	if consume, ok := store.finished[1]; !ok || consume < 0 {
		t.Fatalf("request not completed: %d (ok=%v)", consume, ok)
	}
}

func TestSessionMiddlewareSuppression(t *testing.T) {
	store := newMemStore()
	cfg := &config.Config{}
	cfg.Audit.SkipRequestLog = []config.RouteRef{
		{Module: "health", Controller: "index", Action: "index"},
	}
	r := newRouter(store, cfg)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(store.requests) != 0 {
		t.Fatalf("suppressed route was logged")
	}
	if len(store.finished) != 0 {
		t.Fatalf("suppressed route was completed")
	}
}

func TestSessionMiddlewareCaptureBody(t *testing.T) {
	store := newMemStore()
	cfg := &config.Config{}
	cfg.Audit.CaptureBody = []config.RouteRef{
		{Module: "shop", Controller: "order", Action: "create"},
	}
	r := newRouter(store, cfg)

	var echoed string
	handler := func(c *gin.Context) {
		// body must still be readable downstream
		raw, _ := c.GetRawData()
		echoed = string(raw)
		c.Status(http.StatusNoContent)
	}
	r.POST("/shop/order/create", handler)
	r.POST("/shop/order/update", handler)

	body := `{"sku":"A-100","qty":2}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shop/order/create", strings.NewReader(body)))
	if store.requests[0].Body != body {
		t.Fatalf("body not captured: %q", store.requests[0].Body)
	}
	if echoed != body {
		t.Fatalf("body consumed by middleware: %q", echoed)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shop/order/update", strings.NewReader(body)))
	if store.requests[1].Body != "" {
		t.Fatalf("body captured for unmarked route")
	}
}

func TestSessionMiddlewareFormParams(t *testing.T) {
	store := newMemStore()
	r := newRouter(store, &config.Config{})
	r.POST("/shop/order/create", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	form := url.Values{"sku": {"A-100"}, "qty": {"2"}}
	req := httptest.NewRequest(http.MethodPost, "/shop/order/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	params := store.requests[0].Params
	if !strings.Contains(params, `"sku":"A-100"`) || !strings.Contains(params, `"qty":"2"`) {
		t.Fatalf("form params missing: %q", params)
	}
}

func TestIdentityMiddlewareResolvesAdmin(t *testing.T) {
	store := newMemStore()
	cfg := &config.Config{}
	cfg.Auth.Admins = []config.AdminConfig{
		{ID: 42, Name: "alice", APIKey: "sk-alice"},
	}
	r := newRouter(store, cfg)
	r.GET("/shop/order/list", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/shop/order/list", nil)
	req.Header.Set(HeaderAdminKey, "sk-alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if store.requests[0].AdminID != 42 || store.requests[0].AdminName != "alice" {
		t.Fatalf("admin identity not resolved: %+v", store.requests[0])
	}

	// unknown key stays anonymous
	req = httptest.NewRequest(http.MethodGet, "/shop/order/list", nil)
	req.Header.Set(HeaderAdminKey, "sk-bogus")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if store.requests[1].AdminID != 0 || store.requests[1].AdminName != "" {
		t.Fatalf("unknown key resolved an identity: %+v", store.requests[1])
	}
}

func TestRouteIdentityDefaults(t *testing.T) {
	store := newMemStore()
	r := newRouter(store, &config.Config{})
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	entry := store.requests[0]
	if entry.Module != "ping" || entry.Controller != "index" || entry.Action != "index" {
		t.Fatalf("short path identity wrong: %s/%s/%s", entry.Module, entry.Controller, entry.Action)
	}
}
