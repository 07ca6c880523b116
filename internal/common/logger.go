package common

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps a config string onto a LogLevel. Unknown values yield ok=false.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "", "info":
		return LogLevelInfo, true
	case "debug":
		return LogLevelDebug, true
	default:
		return LogLevelInfo, false
	}
}

// Logger is the structured logger shared by the client, the store and the CLI.
type Logger struct {
	*slog.Logger
	level LogLevel
}

// NewLogger creates a text logger writing to stderr.
// Stdout is reserved for command output.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo creates a text logger writing to w.
func NewLoggerTo(w io.Writer, level LogLevel) *Logger {
	opts := &slog.HandlerOptions{Level: level.ToSlogLevel()}
	return &Logger{Logger: slog.New(slog.NewTextHandler(w, opts)), level: level}
}

// NewJSONLogger creates a structured logger with JSON output
func NewJSONLogger(level LogLevel) *Logger {
	opts := &slog.HandlerOptions{Level: level.ToSlogLevel()}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, opts)), level: level}
}

// NewColorLogger creates a logger using ColorHandler. Attribute values are masked.
func NewColorLogger(level LogLevel, color bool) *Logger {
	h := NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level.ToSlogLevel()})
	h.SetColorEnabled(color)
	return &Logger{Logger: slog.New(h), level: level}
}

// FromSlog wraps an existing slog.Logger. The level is informational only;
// filtering stays with the slog handler.
func FromSlog(l *slog.Logger, level LogLevel) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{Logger: l, level: level}
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component), level: l.level}
}

// WithRequest returns a logger with HTTP request context.
// The path must already be free of credentials.
func (l *Logger) WithRequest(method, path string) *Logger {
	return &Logger{Logger: l.Logger.With("method", method, "path", path), level: l.level}
}

// WithUser returns a logger carrying the acting username.
func (l *Logger) WithUser(username string) *Logger {
	return &Logger{Logger: l.Logger.With("api_username", username), level: l.level}
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(storeType string) *Logger {
	return &Logger{Logger: l.Logger.With("store", storeType), level: l.level}
}

var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger == nil {
		return
	}
	defaultLogger = logger
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}

// LogError logs an error with context
func LogError(msg string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	defaultLogger.Error(msg, args...)
}
