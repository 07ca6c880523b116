package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/loykin/discourseapi/internal/constants"
	_ "modernc.org/sqlite"
)

// Dialect implements SQL dialect for SQLite
type Dialect struct{}

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// GetPlaceholder returns SQLite-style placeholders (?)
func (s *Dialect) GetPlaceholder() string {
	return "?"
}

// ConvertTimeToStorage converts time to SQLite storage format (RFC3339Nano string)
func (s *Dialect) ConvertTimeToStorage(t time.Time) interface{} {
	return t.UTC().Format(time.RFC3339Nano)
}

// ConvertTimeFromStorage converts SQLite string storage to RFC3339Nano string
func (s *Dialect) ConvertTimeFromStorage(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Connect opens SQLite with a single connection; SQLite allows one writer.
func (s *Dialect) Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	db.SetMaxOpenConns(constants.DefaultSQLiteMaxConnections)
	db.SetMaxIdleConns(constants.DefaultSQLiteMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultSQLiteLifetime)
	db.SetConnMaxIdleTime(constants.DefaultSQLiteIdleTime)

	return db, nil
}

// GetEnsureStatements returns SQLite-specific table creation statements
func (s *Dialect) GetEnsureStatements(table string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, method TEXT NOT NULL, path TEXT NOT NULL, acting_user TEXT NOT NULL, status_code INTEGER NOT NULL, transport_error TEXT NOT NULL DEFAULT '', body TEXT NULL, duration_ms INTEGER NOT NULL DEFAULT 0, called_at TEXT NOT NULL)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_called_at ON %s (called_at)", table, table),
	}
}

// GetDriverName returns the driver name for logging
func (s *Dialect) GetDriverName() string {
	return "sqlite"
}
