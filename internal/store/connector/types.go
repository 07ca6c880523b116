package connector

import (
	"context"
	"database/sql"
)

// Call is one row of the call history table.
// Body is nil when response bodies are not saved.
type Call struct {
	ID             int64
	Method         string
	Path           string
	ActingUser     string
	Status         int
	TransportError string
	Body           *string
	DurationMS     int64
	CalledAt       string // RFC3339Nano, UTC
}

// Connector is implemented by each database backend.
type Connector interface {
	Connect(ctx context.Context) (*sql.DB, error)
	Load(config map[string]interface{}) error
	Ensure(ctx context.Context, table string) error
	InsertCall(ctx context.Context, table string, c Call) error
	// ListCalls returns up to limit rows, newest first. limit <= 0 means all.
	ListCalls(ctx context.Context, table string, limit int) ([]Call, error)
	Close() error
}
