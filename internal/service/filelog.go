package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// FileLog is the sibling file-based logger: a daily jsonl file whose lines
// carry the correlation id of the request log, so file entries and rows in
// Postgres can be cross-referenced.
type FileLog struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex

	// current request correlation id; process-wide, so concurrent
	// requests sharing the process overwrite each other's id. Matches
	// the request log only while one logical request is in flight.
	requestID atomic.Int64
}

type fileLine struct {
	Time      time.Time   `json:"time"`
	RequestID int64       `json:"request_id"`
	Kind      string      `json:"kind"`
	Payload   interface{} `json:"payload"`
}

func NewFileLog(dir string) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// simple daily rotation
	filename := filepath.Join(dir, "audit-"+time.Now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &FileLog{file: f, enc: json.NewEncoder(f)}, nil
}

// SetRequestID records the correlation id of the current request; lines
// written afterwards carry it.
func (f *FileLog) SetRequestID(id int64) {
	f.requestID.Store(id)
}

func (f *FileLog) Write(kind string, payload interface{}) error {
	line := fileLine{
		Time:      time.Now(),
		RequestID: f.requestID.Load(),
		Kind:      kind,
		Payload:   payload,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enc.Encode(line)
}

func (f *FileLog) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}
