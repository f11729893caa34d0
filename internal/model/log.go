package model

import (
	"time"
)

// RequestLog is one row of the request log table: a single inbound HTTP
// request, written when the request starts and finished once when it ends.
type RequestLog struct {
	ID         int64     `json:"id" db:"id"`
	AdminID    int64     `json:"admin_id" db:"admin_id"`
	AdminName  string    `json:"admin_name" db:"admin_name"`
	Module     string    `json:"module" db:"module"`
	Controller string    `json:"controller" db:"controller"`
	Action     string    `json:"action" db:"action"`
	Params     string    `json:"params" db:"params"`         // JSON of query/form params
	ClientIP   string    `json:"client_ip" db:"client_ip"`
	Cookie     string    `json:"cookie" db:"cookie"`         // JSON of cookies, "" when unavailable
	ConsumeMs  *int64    `json:"consume_ms" db:"consume_ms"` // elapsed ms, null until the request ends
	Body       string    `json:"body" db:"body"`             // raw body, captured only for marked routes
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// OperationLog is one audited database mutation, attributed to the title
// active when it was recorded. Immutable after insert.
type OperationLog struct {
	ID        int64     `json:"id" db:"id"`
	AdminID   int64     `json:"admin_id" db:"admin_id"`
	AdminName string    `json:"admin_name" db:"admin_name"`
	Title     string    `json:"title" db:"title"`
	TableName string    `json:"table_name" db:"table_name"`
	Kind      string    `json:"kind" db:"kind"` // free-form: insert / update / delete
	RequestID int64     `json:"request_id" db:"request_id"` // 0 when request logging was suppressed
	Data      string    `json:"data" db:"data"`             // JSON of the mutated record
	Module    string    `json:"module" db:"module"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DebugLog is a free-form debug payload tied to the request it was
// recorded under. Immutable after insert.
type DebugLog struct {
	ID        int64     `json:"id" db:"id"`
	AdminID   int64     `json:"admin_id" db:"admin_id"`
	AdminName string    `json:"admin_name" db:"admin_name"`
	RequestID int64     `json:"request_id" db:"request_id"`
	Params    string    `json:"params" db:"params"` // JSON of request params at call time
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"` // JSON of the debug payload
	Module    string    `json:"module" db:"module"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
