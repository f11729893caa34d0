package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/pkg/metrics"
)

// Store is the persistence collaborator for the three log tables.
type Store interface {
	InsertRequest(ctx context.Context, entry *model.RequestLog) (int64, error)
	FinishRequest(ctx context.Context, id int64, consumeMs int64) error
	InsertOperation(ctx context.Context, entry *model.OperationLog) error
	InsertDebug(ctx context.Context, entry *model.DebugLog) error
}

// FileLog receives the request correlation id so entries written by the
// sibling file logger can be cross-referenced with the request log.
type FileLog interface {
	SetRequestID(id int64)
}

// Manager holds the shared, read-mostly collaborators and creates one
// Session per inbound request. It carries no per-request state.
type Manager struct {
	store   Store
	fileLog FileLog
	titles  TitleSource
	skip    map[routeKey]struct{}
}

func NewManager(store Store, fileLog FileLog, titles TitleSource, skip []config.RouteRef) *Manager {
	m := &Manager{
		store:   store,
		fileLog: fileLog,
		titles:  titles,
		skip:    make(map[routeKey]struct{}, len(skip)),
	}
	for _, ref := range skip {
		m.skip[routeKey{ref.Module, ref.Controller, ref.Action}] = struct{}{}
	}
	return m
}

func (m *Manager) suppressed(module, controller, action string) bool {
	_, ok := m.skip[routeKey{module, controller, action}]
	return ok
}

// RequestInfo is the identity of one inbound request, captured once at
// dispatch time.
type RequestInfo struct {
	Module     string
	Controller string
	Action     string
	ClientIP   string
	NeedBody   bool
	AdminID    int64
	AdminName  string
	Params     map[string]any
	Cookies    map[string]string
	Body       []byte
}

// Session is the per-request logging context. One Session serves exactly
// one in-flight request and is never shared across requests, so it needs
// no locking.
type Session struct {
	mgr  *Manager
	info RequestInfo

	startedAt   time.Time
	requestID   int64
	titles      titleStack
	opsDisabled bool
}

// Begin replaces the request context wholesale; call it once per request
// before any recording call.
func (m *Manager) Begin(info RequestInfo) *Session {
	return &Session{mgr: m, info: info}
}

// RequestID returns the id of the persisted request record, 0 when request
// logging was suppressed or not started.
func (s *Session) RequestID() int64 { return s.requestID }

// Title returns the active attribution title, "" when none was pushed.
func (s *Session) Title() string { return s.titles.top() }

func (s *Session) TitleDepth() int { return s.titles.depth() }

func (s *Session) TitlePush(title string) { s.titles.push(title) }

// TitlePop removes the top title; popping the last remaining title is a
// no-op so the stack never empties once populated.
func (s *Session) TitlePop() { s.titles.pop() }

// TitleScope pushes a title and returns its balancing pop, meant for
//
//	defer s.TitleScope("Create Order")()
//
// so the pop runs on every exit path.
func (s *Session) TitleScope(title string) func() {
	s.titles.push(title)
	return s.titles.pop
}

// DisableOps suspends operation recording for this session. Request and
// debug recording are unaffected. Callers must re-enable themselves;
// there is no automatic restoration.
func (s *Session) DisableOps() { s.opsDisabled = true }

func (s *Session) EnableOps() { s.opsDisabled = false }

func (s *Session) OpsEnabled() bool { return !s.opsDisabled }

// RecordRequest persists the request record and returns its id. Requests
// whose module/controller/action triple is on the suppression list are
// skipped entirely and (0, nil) is returned.
func (s *Session) RecordRequest(ctx context.Context) (int64, error) {
	if s.mgr.suppressed(s.info.Module, s.info.Controller, s.info.Action) {
		metrics.SuppressedRequests.Inc()
		return 0, nil
	}

	s.startedAt = time.Now()
	entry := &model.RequestLog{
		AdminID:    s.info.AdminID,
		AdminName:  s.info.AdminName,
		Module:     s.info.Module,
		Controller: s.info.Controller,
		Action:     s.info.Action,
		Params:     toJSON(s.info.Params),
		ClientIP:   s.info.ClientIP,
		Cookie:     toJSON(s.info.Cookies),
		CreatedAt:  s.startedAt,
	}
	if s.info.NeedBody {
		entry.Body = string(s.info.Body)
	}

	id, err := s.mgr.store.InsertRequest(ctx, entry)
	if err != nil {
		metrics.RecordFailures.WithLabelValues("request").Inc()
		return 0, apperrors.NewStorage("insert request log", err)
	}
	s.requestID = id
	metrics.RecordsTotal.WithLabelValues("request").Inc()

	if s.mgr.fileLog != nil {
		s.mgr.fileLog.SetRequestID(id)
	}
	return id, nil
}

// Complete stamps the elapsed milliseconds onto the request record. A
// no-op when the record was never written. Not guarded against double
// invocation: a second call recomputes from the same start time and
// issues another update.
func (s *Session) Complete(ctx context.Context) error {
	if s.requestID == 0 {
		return nil
	}
	consume := time.Since(s.startedAt).Round(time.Millisecond).Milliseconds()
	if consume < 0 {
		consume = 0
	}
	if err := s.mgr.store.FinishRequest(ctx, s.requestID, consume); err != nil {
		metrics.RecordFailures.WithLabelValues("request").Inc()
		return apperrors.NewStorage("finish request log", err)
	}
	return nil
}

// RecordOperation persists one audited mutation attributed to the active
// title. When no title was pushed, a default is derived once and pushed so
// later operations in the same request reuse it.
func (s *Session) RecordOperation(ctx context.Context, table, kind string, data any) error {
	if s.opsDisabled {
		return nil
	}

	title := s.titles.top()
	if s.titles.depth() == 0 {
		title = s.defaultTitle()
		s.titles.push(title)
	}

	entry := &model.OperationLog{
		AdminID:   s.info.AdminID,
		AdminName: s.info.AdminName,
		Title:     title,
		TableName: table,
		Kind:      kind,
		RequestID: s.requestID,
		Data:      toJSON(data),
		Module:    s.info.Module,
		CreatedAt: time.Now(),
	}
	if err := s.mgr.store.InsertOperation(ctx, entry); err != nil {
		metrics.RecordFailures.WithLabelValues("operation").Inc()
		return apperrors.NewStorage("insert operation log", err)
	}
	metrics.RecordsTotal.WithLabelValues("operation").Inc()
	return nil
}

// RecordDebug persists a free-form debug payload. Unconditional: the
// operation kill-switch does not apply here.
func (s *Session) RecordDebug(ctx context.Context, title string, info any) error {
	entry := &model.DebugLog{
		AdminID:   s.info.AdminID,
		AdminName: s.info.AdminName,
		RequestID: s.requestID,
		Params:    toJSON(s.info.Params),
		Title:     title,
		Content:   toJSON(info),
		Module:    s.info.Module,
		CreatedAt: time.Now(),
	}
	if err := s.mgr.store.InsertDebug(ctx, entry); err != nil {
		metrics.RecordFailures.WithLabelValues("debug").Inc()
		return apperrors.NewStorage("insert debug log", err)
	}
	metrics.RecordsTotal.WithLabelValues("debug").Inc()
	return nil
}

func (s *Session) defaultTitle() string {
	if s.mgr.titles != nil {
		if title, ok := s.mgr.titles.Lookup(s.info.Module, s.info.Controller, s.info.Action); ok {
			return title
		}
	}
	return s.info.Module + "::" + s.info.Controller + "::" + s.info.Action
}

func toJSON(v any) string {
	if v == nil {
		return ""
	}
	out, err := json.Marshal(v)
	if err != nil || string(out) == "null" {
		return ""
	}
	return string(out)
}
