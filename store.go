package discourseapi

import (
	"context"

	"github.com/loykin/discourseapi/internal/store"
)

// Store is the call history database. Pass it to WithRecorder.
type Store = store.Store

// StoreConfig selects the backend and table of a Store.
type StoreConfig = store.Config

// StoredCall is one row of the call history.
type StoredCall = store.Call

type SqliteConfig = store.SqliteConfig

type PostgresConfig = store.PostgresConfig

const (
	DriverSqlite     = store.DriverSqlite
	DriverPostgresql = store.DriverPostgresql
)

// OpenStore opens (and initializes) the call history store.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	return store.Open(ctx, cfg)
}
