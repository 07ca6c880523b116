package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/loykin/discourseapi/internal/constants"
)

// Dialect implements SQL dialect for PostgreSQL
type Dialect struct{}

// NewDialect creates a new PostgreSQL dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// GetPlaceholder returns PostgreSQL-style placeholders ($1, $2, etc.)
func (p *Dialect) GetPlaceholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// ConvertTimeToStorage converts time to PostgreSQL storage format (native time.Time)
func (p *Dialect) ConvertTimeToStorage(t time.Time) interface{} {
	return t.UTC()
}

// ConvertTimeFromStorage converts PostgreSQL time storage to RFC3339Nano string
func (p *Dialect) ConvertTimeFromStorage(val interface{}) string {
	if t, ok := val.(*time.Time); ok && t != nil {
		return t.UTC().Format(time.RFC3339Nano)
	}
	if t, ok := val.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return ""
}

// Connect establishes a connection to PostgreSQL with connection pooling
func (p *Dialect) Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(constants.DefaultPostgresMaxConnections)
	db.SetMaxIdleConns(constants.DefaultPostgresMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultMaxConnLifetime)
	db.SetConnMaxIdleTime(constants.DefaultMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	return db, nil
}

// GetEnsureStatements returns PostgreSQL-specific table creation statements
func (p *Dialect) GetEnsureStatements(table string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, method TEXT NOT NULL, path TEXT NOT NULL, acting_user TEXT NOT NULL, status_code INTEGER NOT NULL, transport_error TEXT NOT NULL DEFAULT '', body TEXT NULL, duration_ms BIGINT NOT NULL DEFAULT 0, called_at TIMESTAMPTZ NOT NULL)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_called_at ON %s (called_at)", table, table),
	}
}

// GetDriverName returns the driver name for logging
func (p *Dialect) GetDriverName() string {
	return "postgresql"
}
