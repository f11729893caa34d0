package service

import (
	"context"
	"time"

	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/auditgate/auditgate/internal/session"
)

// LogStore is what LogService needs from the durable store: the session
// write path plus the list queries for the read API.
type LogStore interface {
	session.Store
	ListRequests(ctx context.Context, filter repository.ListFilter) ([]*model.RequestLog, error)
	ListOperations(ctx context.Context, filter repository.ListFilter) ([]*model.OperationLog, error)
	ListDebug(ctx context.Context, filter repository.ListFilter) ([]*model.DebugLog, error)
}

type event struct {
	kind    string
	payload interface{}
	request *model.RequestLog
}

// LogService sits between the sessions and the store: writes go to
// Postgres synchronously (failures surface to the recording call), then
// fan out asynchronously to the jsonl file, the redis recent cache and
// the live-tail hub.
type LogService struct {
	store   LogStore
	fileLog *FileLog
	recent  *repository.RecentCache
	hub     *Hub

	events chan event
	done   chan struct{}
}

func NewLogService(store LogStore, fileLog *FileLog, recent *repository.RecentCache, bufferSize int) *LogService {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	s := &LogService{
		store:   store,
		fileLog: fileLog,
		recent:  recent,
		hub:     NewHub(),
		events:  make(chan event, bufferSize),
		done:    make(chan struct{}),
	}
	go s.process()
	return s
}

func (s *LogService) Hub() *Hub { return s.hub }

func (s *LogService) InsertRequest(ctx context.Context, entry *model.RequestLog) (int64, error) {
	id, err := s.store.InsertRequest(ctx, entry)
	if err != nil {
		return 0, err
	}
	s.emit(event{kind: "request", payload: entry, request: entry})
	return id, nil
}

func (s *LogService) FinishRequest(ctx context.Context, id int64, consumeMs int64) error {
	return s.store.FinishRequest(ctx, id, consumeMs)
}

func (s *LogService) InsertOperation(ctx context.Context, entry *model.OperationLog) error {
	if err := s.store.InsertOperation(ctx, entry); err != nil {
		return err
	}
	s.emit(event{kind: "operation", payload: entry})
	return nil
}

func (s *LogService) InsertDebug(ctx context.Context, entry *model.DebugLog) error {
	if err := s.store.InsertDebug(ctx, entry); err != nil {
		return err
	}
	s.emit(event{kind: "debug", payload: entry})
	return nil
}

// ListRequests serves from Postgres, falling back to the redis recent
// cache when the database is unavailable.
func (s *LogService) ListRequests(ctx context.Context, filter repository.ListFilter) ([]*model.RequestLog, error) {
	records, err := s.store.ListRequests(ctx, filter)
	if err == nil {
		return records, nil
	}
	if s.recent == nil {
		return nil, err
	}
	logger.Warn("request log query falling back to recent cache", "error", err.Error())
	return s.recent.List(ctx, filter)
}

func (s *LogService) ListOperations(ctx context.Context, filter repository.ListFilter) ([]*model.OperationLog, error) {
	return s.store.ListOperations(ctx, filter)
}

func (s *LogService) ListDebug(ctx context.Context, filter repository.ListFilter) ([]*model.DebugLog, error) {
	return s.store.ListDebug(ctx, filter)
}

func (s *LogService) emit(ev event) {
	select {
	case s.events <- ev:
	default:
		// buffer full: drop rather than stall the request path
		logger.Warn("audit side-channel buffer full, dropping event", "kind", ev.kind)
	}
}

func (s *LogService) process() {
	defer close(s.done)
	for ev := range s.events {
		if s.fileLog != nil {
			if err := s.fileLog.Write(ev.kind, ev.payload); err != nil {
				logger.Error("failed to write audit file log", "error", err.Error())
			}
		}
		if ev.request == nil {
			continue
		}
		if s.recent != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := s.recent.Push(ctx, ev.request); err != nil {
				logger.Error("failed to push request log to recent cache", "error", err.Error())
			}
			cancel()
		}
		s.hub.Broadcast(ev.request)
	}
}

// Close drains the side channel and closes the file sink.
func (s *LogService) Close() {
	close(s.events)
	<-s.done
	if s.fileLog != nil {
		_ = s.fileLog.Close()
	}
}
