package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/loykin/discourseapi/internal/common"
	"github.com/loykin/discourseapi/internal/constants"
	"github.com/loykin/discourseapi/internal/request"
	"github.com/loykin/discourseapi/internal/retry"
	"github.com/loykin/discourseapi/internal/store/connector"
	"github.com/loykin/discourseapi/internal/store/postgresql"
	"github.com/loykin/discourseapi/internal/store/sqlite"
	"github.com/loykin/discourseapi/internal/util"
)

const (
	DriverSqlite     = "sqlite"
	DriverPostgresql = "postgresql"
)

// Call is one stored call record.
type Call = connector.Call

type SqliteConfig = sqlite.Config

type PostgresConfig = postgresql.Config

type DriverConfig interface {
	ToMap() map[string]interface{}
}

// Config selects the backend and the table. TableName wins over
// TablePrefix; with neither the table is api_calls.
type Config struct {
	Driver           string       `mapstructure:"driver"`
	TableName        string       `mapstructure:"table_name"`
	TablePrefix      string       `mapstructure:"table_prefix"`
	SaveResponseBody bool         `mapstructure:"save_response_body"`
	DriverConfig     DriverConfig `mapstructure:"-"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store keeps the call history. It implements request.Recorder.
type Store struct {
	connector connector.Connector
	db        *sql.DB
	driver    string
	table     string
	saveBody  bool
	retry     *retry.Policy
}

var _ request.Recorder = (*Store)(nil)

// Open connects to the configured backend and creates the table if needed.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	table, err := cfg.tableName()
	if err != nil {
		return nil, err
	}

	driver := util.TrimWithDefault(util.TrimAndLower(cfg.Driver), DriverSqlite)
	var conn connector.Connector
	switch driver {
	case DriverSqlite, "sqlite3":
		driver = DriverSqlite
		conn = sqlite.NewStore()
	case DriverPostgresql, "postgres", "pg":
		driver = DriverPostgresql
		conn = postgresql.NewStore()
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}

	if cfg.DriverConfig != nil {
		if err := conn.Load(cfg.DriverConfig.ToMap()); err != nil {
			return nil, fmt.Errorf("load %s config: %w", driver, err)
		}
	}
	db, err := conn.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.Ensure(ctx, table); err != nil {
		_ = conn.Close()
		return nil, err
	}

	common.GetLogger().WithStore(driver).Debug("call store ready", "table", table, "save_response_body", cfg.SaveResponseBody)
	return &Store{connector: conn, db: db, driver: driver, table: table, saveBody: cfg.SaveResponseBody, retry: retry.StorePolicy()}, nil
}

func (c Config) tableName() (string, error) {
	name := constants.DefaultCallsTable
	if t, ok := util.TrimEmptyCheck(c.TableName); ok {
		name = t
	} else if p, ok := util.TrimEmptyCheck(c.TablePrefix); ok {
		name = p + constants.CallsTableSuffix
	}
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("invalid table name: %q", name)
	}
	return name, nil
}

// RecordCall stores one executor call. Response bodies are kept only when
// SaveResponseBody was set, and are masked first.
func (s *Store) RecordCall(ctx context.Context, c request.Call) error {
	if s == nil || s.connector == nil {
		return errors.New("store is not open")
	}
	row := connector.Call{
		Method:         c.Method,
		Path:           c.Path,
		ActingUser:     c.ActingUser,
		Status:         c.Status,
		TransportError: c.TransportError,
		DurationMS:     c.Duration.Milliseconds(),
		CalledAt:       time.Now().UTC().Format(time.RFC3339Nano),
	}
	if s.saveBody && c.Body != "" {
		b := common.MaskSensitiveData(c.Body)
		row.Body = &b
	}
	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.connector.InsertCall(ctx, s.table, row)
	})
}

// ListCalls returns up to limit calls, newest first. limit <= 0 means all.
func (s *Store) ListCalls(ctx context.Context, limit int) ([]Call, error) {
	if s == nil || s.connector == nil {
		return nil, errors.New("store is not open")
	}
	return s.connector.ListCalls(ctx, s.table, limit)
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s == nil || s.connector == nil {
		return nil
	}
	return s.connector.Close()
}

// DB exposes the underlying handle, mainly for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Table returns the resolved table name.
func (s *Store) Table() string { return s.table }

// Driver returns the normalized driver name.
func (s *Store) Driver() string { return s.driver }
