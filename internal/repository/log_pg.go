package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/auditgate/auditgate/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresLogStore persists the three log tables. It implements
// session.Store plus the list queries used by the read API and the
// inspector CLI.
type PostgresLogStore struct {
	db *sqlx.DB
}

func NewPostgresLogStore(db *sqlx.DB) *PostgresLogStore {
	return &PostgresLogStore{db: db}
}

func (r *PostgresLogStore) InsertRequest(ctx context.Context, entry *model.RequestLog) (int64, error) {
	if entry == nil {
		return 0, nil
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO request_logs (
			admin_id, admin_name, module, controller, action,
			params, client_ip, cookie, body, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, entry.AdminID, entry.AdminName, entry.Module, entry.Controller, entry.Action,
		entry.Params, entry.ClientIP, entry.Cookie, entry.Body, entry.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	entry.ID = id
	return id, nil
}

func (r *PostgresLogStore) FinishRequest(ctx context.Context, id int64, consumeMs int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE request_logs SET consume_ms = $1 WHERE id = $2`, consumeMs, id)
	return err
}

func (r *PostgresLogStore) InsertOperation(ctx context.Context, entry *model.OperationLog) error {
	if entry == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO operation_logs (
			admin_id, admin_name, title, table_name, kind,
			request_id, data, module, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.AdminID, entry.AdminName, entry.Title, entry.TableName, entry.Kind,
		entry.RequestID, entry.Data, entry.Module, entry.CreatedAt)
	return err
}

func (r *PostgresLogStore) InsertDebug(ctx context.Context, entry *model.DebugLog) error {
	if entry == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO debug_logs (
			admin_id, admin_name, request_id, params, title,
			content, module, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.AdminID, entry.AdminName, entry.RequestID, entry.Params, entry.Title,
		entry.Content, entry.Module, entry.CreatedAt)
	return err
}

// ListFilter narrows the list queries. Zero values mean "no filter".
type ListFilter struct {
	Limit     int
	From      *time.Time
	To        *time.Time
	RequestID int64
	Module    string
}

func (f *ListFilter) normalize() {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
}

func (f *ListFilter) whereClause(withRequestID bool) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	idx := 1

	if f.Module != "" {
		clauses = append(clauses, fmt.Sprintf("module = $%d", idx))
		args = append(args, f.Module)
		idx++
	}
	if withRequestID && f.RequestID != 0 {
		clauses = append(clauses, fmt.Sprintf("request_id = $%d", idx))
		args = append(args, f.RequestID)
		idx++
	}
	if f.From != nil {
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", idx))
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", idx))
		args = append(args, *f.To)
		idx++
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	where += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, f.Limit)
	return where, args
}

func (r *PostgresLogStore) ListRequests(ctx context.Context, filter ListFilter) ([]*model.RequestLog, error) {
	filter.normalize()
	where, args := filter.whereClause(false)
	query := `SELECT id, admin_id, admin_name, module, controller, action, params,
		client_ip, cookie, consume_ms, body, created_at FROM request_logs` + where

	records := make([]*model.RequestLog, 0, filter.Limit)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PostgresLogStore) ListOperations(ctx context.Context, filter ListFilter) ([]*model.OperationLog, error) {
	filter.normalize()
	where, args := filter.whereClause(true)
	query := `SELECT id, admin_id, admin_name, title, table_name, kind,
		request_id, data, module, created_at FROM operation_logs` + where

	records := make([]*model.OperationLog, 0, filter.Limit)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PostgresLogStore) ListDebug(ctx context.Context, filter ListFilter) ([]*model.DebugLog, error) {
	filter.normalize()
	where, args := filter.whereClause(true)
	query := `SELECT id, admin_id, admin_name, request_id, params, title,
		content, module, created_at FROM debug_logs` + where

	records := make([]*model.DebugLog, 0, filter.Limit)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsureSchema provisions the three log tables. Idempotent; meant for
// environment setup, never the request path.
func (r *PostgresLogStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS request_logs (
			id BIGSERIAL PRIMARY KEY,
			admin_id BIGINT NOT NULL DEFAULT 0,
			admin_name TEXT NOT NULL DEFAULT '',
			module TEXT NOT NULL DEFAULT '',
			controller TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL DEFAULT '',
			params TEXT NOT NULL DEFAULT '',
			client_ip TEXT NOT NULL DEFAULT '',
			cookie TEXT NOT NULL DEFAULT '',
			consume_ms BIGINT,
			body TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS operation_logs (
			id BIGSERIAL PRIMARY KEY,
			admin_id BIGINT NOT NULL DEFAULT 0,
			admin_name TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			table_name TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT '',
			request_id BIGINT NOT NULL DEFAULT 0,
			data TEXT NOT NULL DEFAULT '',
			module TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS debug_logs (
			id BIGSERIAL PRIMARY KEY,
			admin_id BIGINT NOT NULL DEFAULT 0,
			admin_name TEXT NOT NULL DEFAULT '',
			request_id BIGINT NOT NULL DEFAULT 0,
			params TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			module TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_request_logs_mca ON request_logs(module, controller, action, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_operation_logs_request ON operation_logs(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_debug_logs_request ON debug_logs(request_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup deletes rows older than the retention window from all three
// tables.
func (r *PostgresLogStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	for _, table := range []string{"request_logs", "operation_logs", "debug_logs"} {
		if _, err := r.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, table), cutoff); err != nil {
			return err
		}
	}
	return nil
}
