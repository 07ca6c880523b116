package constants

import "time"

// Client defaults
const (
	DefaultProtocol   = "http"
	DefaultActingUser = "system"
	DefaultTimeout    = 30 * time.Second
	DefaultRedirects  = 10

	// FormContentType is sent with every write request body.
	FormContentType = "application/x-www-form-urlencoded"
)

// Query parameters injected by the executor
const (
	ParamAPIKey      = "api_key"
	ParamAPIUsername = "api_username"
	ParamShowEmails  = "show_emails"
)

// Database Constants
const (
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	DefaultPostgresMaxConnections = 25
	DefaultPostgresMaxIdleConns   = 5
	DefaultSQLiteMaxConnections   = 1 // SQLite allows only one writer
	DefaultSQLiteMaxIdleConns     = 1

	DefaultCallsTable = "api_calls"
	CallsTableSuffix  = "_api_calls"

	DefaultSQLiteFileName = "discourseapi.db"
)

// Time and Duration Constants
const (
	DefaultMaxConnLifetime = 5 * time.Minute
	DefaultMaxIdleTime     = 1 * time.Minute
	DefaultSQLiteLifetime  = 10 * time.Minute
	DefaultSQLiteIdleTime  = 5 * time.Minute
)
