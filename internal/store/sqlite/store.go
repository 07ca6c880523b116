package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/discourseapi/internal/common"
	"github.com/loykin/discourseapi/internal/store/connector"
)

type Store struct {
	db      *sql.DB
	dialect *Dialect
	DSN     string
}

// NewStore creates a new SQLite store
func NewStore() *Store {
	return &Store{
		dialect: NewDialect(),
	}
}

// Load loads configuration into the SQLite store
func (s *Store) Load(config map[string]interface{}) error {
	if dsn, ok := config["dsn"].(string); ok && dsn != "" {
		s.DSN = dsn
		return nil
	}
	if path, ok := config["path"].(string); ok && strings.TrimSpace(path) != "" {
		s.DSN = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&%s", strings.TrimSpace(path), busyTimeoutMS, journalParam)
	}
	return nil
}

// Connect opens the database. An empty DSN means an in-memory database.
func (s *Store) Connect(ctx context.Context) (*sql.DB, error) {
	if s.DSN == "" {
		s.DSN = ":memory:"
	}

	db, err := s.dialect.Connect(ctx, s.DSN)
	if err != nil {
		return nil, err
	}
	s.db = db

	logger := common.GetLogger().WithStore("sqlite")
	logger.Info("SQLite database connection established successfully")
	return db, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure creates the call table and its index.
func (s *Store) Ensure(ctx context.Context, table string) error {
	if s.db == nil {
		return errors.New("sqlite store is not connected")
	}
	logger := common.GetLogger().WithStore("sqlite")
	logger.Debug("ensuring SQLite database schema", "table", table)

	for i, q := range s.dialect.GetEnsureStatements(table) {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			logger.Error("failed to apply schema statement", "error", err, "statement", i+1, "sql", q)
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// InsertCall appends one call record.
func (s *Store) InsertCall(ctx context.Context, table string, c connector.Call) error {
	ph := s.dialect.GetPlaceholder()
	q := fmt.Sprintf("INSERT INTO %s(method, path, acting_user, status_code, transport_error, body, duration_ms, called_at) VALUES(%s)",
		table, strings.TrimSuffix(strings.Repeat(ph+", ", 8), ", "))

	var body interface{}
	if c.Body != nil {
		body = *c.Body
	}
	if _, err := s.db.ExecContext(ctx, q, c.Method, c.Path, c.ActingUser, c.Status, c.TransportError, body, c.DurationMS, c.CalledAt); err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}
	return nil
}

// ListCalls returns the newest calls first.
func (s *Store) ListCalls(ctx context.Context, table string, limit int) ([]connector.Call, error) {
	q := fmt.Sprintf("SELECT id, method, path, acting_user, status_code, transport_error, body, duration_ms, called_at FROM %s ORDER BY id DESC", table)
	var args []interface{}
	if limit > 0 {
		q += " LIMIT " + s.dialect.GetPlaceholder()
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []connector.Call
	for rows.Next() {
		var (
			c        connector.Call
			body     sql.NullString
			calledAt interface{}
		)
		if err := rows.Scan(&c.ID, &c.Method, &c.Path, &c.ActingUser, &c.Status, &c.TransportError, &body, &c.DurationMS, &calledAt); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		if body.Valid {
			b := body.String
			c.Body = &b
		}
		c.CalledAt = s.dialect.ConvertTimeFromStorage(calledAt)
		out = append(out, c)
	}
	return out, rows.Err()
}
