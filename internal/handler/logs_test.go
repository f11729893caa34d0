package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/auditgate/auditgate/internal/service"
	"github.com/gin-gonic/gin"
)

type listStore struct {
	requests   []*model.RequestLog
	operations []*model.OperationLog
	lastFilter repository.ListFilter
}

func (s *listStore) InsertRequest(_ context.Context, entry *model.RequestLog) (int64, error) {
	return 0, nil
}

func (s *listStore) FinishRequest(_ context.Context, id int64, consumeMs int64) error {
	return nil
}

func (s *listStore) InsertOperation(_ context.Context, entry *model.OperationLog) error {
	return nil
}

func (s *listStore) InsertDebug(_ context.Context, entry *model.DebugLog) error {
	return nil
}

func (s *listStore) ListRequests(_ context.Context, filter repository.ListFilter) ([]*model.RequestLog, error) {
	s.lastFilter = filter
	return s.requests, nil
}

func (s *listStore) ListOperations(_ context.Context, filter repository.ListFilter) ([]*model.OperationLog, error) {
	s.lastFilter = filter
	return s.operations, nil
}

func (s *listStore) ListDebug(_ context.Context, filter repository.ListFilter) ([]*model.DebugLog, error) {
	s.lastFilter = filter
	return nil, nil
}

func newLogsRouter(store *listStore) (*gin.Engine, *service.LogService) {
	gin.SetMode(gin.TestMode)
	svc := service.NewLogService(store, nil, nil, 16)
	h := NewLogsHandler(svc)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/logs/requests", h.ListRequests)
	r.GET("/logs/operations", h.ListOperations)
	r.GET("/logs/debug", h.ListDebug)
	return r, svc
}

func TestListRequestsReturnsRows(t *testing.T) {
	store := &listStore{requests: []*model.RequestLog{
		{ID: 1, Module: "shop", CreatedAt: time.Now()},
	}}
	r, svc := newLogsRouter(store)
	defer svc.Close()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/requests?limit=5&module=shop", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var rows []model.RequestLog
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if store.lastFilter.Limit != 5 || store.lastFilter.Module != "shop" {
		t.Fatalf("filter not applied: %+v", store.lastFilter)
	}
}

func TestListOperationsFiltersByRequestID(t *testing.T) {
	store := &listStore{}
	r, svc := newLogsRouter(store)
	defer svc.Close()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/operations?request_id=9", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if store.lastFilter.RequestID != 9 {
		t.Fatalf("request_id filter lost: %+v", store.lastFilter)
	}
}

func TestListRejectsBadTimeRange(t *testing.T) {
	store := &listStore{}
	r, svc := newLogsRouter(store)
	defer svc.Close()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/debug?from=yesterday", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestParseTimeFormats(t *testing.T) {
	if _, err := parseTime("2026-08-26T10:00:00Z"); err != nil {
		t.Fatalf("rfc3339 rejected: %v", err)
	}
	got, err := parseTime("1700000000")
	if err != nil {
		t.Fatalf("unix seconds rejected: %v", err)
	}
	if got.Unix() != 1700000000 {
		t.Fatalf("unexpected unix time %d", got.Unix())
	}
	if _, err := parseTime("not-a-time"); err == nil {
		t.Fatal("garbage accepted")
	}
}
