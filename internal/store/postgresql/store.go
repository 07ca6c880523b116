package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/loykin/discourseapi/internal/common"
	"github.com/loykin/discourseapi/internal/store/connector"
)

type Store struct {
	db      *sql.DB
	dialect *Dialect
	DSN     string
}

// NewStore creates a new PostgreSQL store
func NewStore() *Store {
	return &Store{
		dialect: NewDialect(),
	}
}

// Load loads configuration into the PostgreSQL store
func (p *Store) Load(config map[string]interface{}) error {
	if dsn, ok := config["dsn"].(string); ok && dsn != "" {
		p.DSN = dsn
	}
	return nil
}

// Connect establishes a connection to PostgreSQL
func (p *Store) Connect(ctx context.Context) (*sql.DB, error) {
	if p.DSN == "" {
		return nil, errors.New("postgresql dsn is required")
	}
	db, err := p.dialect.Connect(ctx, p.DSN)
	if err != nil {
		return nil, err
	}
	p.db = db

	logger := common.GetLogger().WithStore("postgresql")
	logger.Info("PostgreSQL database connection established successfully")
	return db, nil
}

// Close closes the database connection
func (p *Store) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ensure creates the call table and its index.
func (p *Store) Ensure(ctx context.Context, table string) error {
	if p.db == nil {
		return errors.New("postgresql store is not connected")
	}
	logger := common.GetLogger().WithStore("postgresql")
	logger.Debug("ensuring PostgreSQL database schema", "table", table)

	for i, q := range p.dialect.GetEnsureStatements(table) {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			logger.Error("failed to apply schema statement", "error", err, "statement", i+1, "sql", q)
			return fmt.Errorf("failed to apply schema statement %d in PostgreSQL: %w", i+1, err)
		}
	}
	return nil
}

// InsertCall appends one call record.
func (p *Store) InsertCall(ctx context.Context, table string, c connector.Call) error {
	calledAt, err := time.Parse(time.RFC3339Nano, c.CalledAt)
	if err != nil {
		calledAt = time.Now()
	}
	q := fmt.Sprintf("INSERT INTO %s(method, path, acting_user, status_code, transport_error, body, duration_ms, called_at) VALUES(%s, %s, %s, %s, %s, %s, %s, %s)",
		table,
		p.dialect.GetPlaceholder(1), p.dialect.GetPlaceholder(2), p.dialect.GetPlaceholder(3), p.dialect.GetPlaceholder(4),
		p.dialect.GetPlaceholder(5), p.dialect.GetPlaceholder(6), p.dialect.GetPlaceholder(7), p.dialect.GetPlaceholder(8))

	var body interface{}
	if c.Body != nil {
		body = *c.Body
	}
	if _, err := p.db.ExecContext(ctx, q, c.Method, c.Path, c.ActingUser, c.Status, c.TransportError, body, c.DurationMS, p.dialect.ConvertTimeToStorage(calledAt)); err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}
	return nil
}

// ListCalls returns the newest calls first.
func (p *Store) ListCalls(ctx context.Context, table string, limit int) ([]connector.Call, error) {
	q := fmt.Sprintf("SELECT id, method, path, acting_user, status_code, transport_error, body, duration_ms, called_at FROM %s ORDER BY id DESC", table)
	var args []interface{}
	if limit > 0 {
		q += " LIMIT " + p.dialect.GetPlaceholder(1)
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []connector.Call
	for rows.Next() {
		var (
			c        connector.Call
			body     sql.NullString
			calledAt time.Time
		)
		if err := rows.Scan(&c.ID, &c.Method, &c.Path, &c.ActingUser, &c.Status, &c.TransportError, &body, &c.DurationMS, &calledAt); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		if body.Valid {
			b := body.String
			c.Body = &b
		}
		c.CalledAt = p.dialect.ConvertTimeFromStorage(calledAt)
		out = append(out, c)
	}
	return out, rows.Err()
}
