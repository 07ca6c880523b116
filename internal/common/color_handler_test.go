package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestColorHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		name    string
		level   slog.Level
		opts    *slog.HandlerOptions
		enabled bool
	}{
		{"default level (info)", slog.LevelInfo, nil, true},
		{"debug level with info handler", slog.LevelDebug, nil, false},
		{"error level", slog.LevelError, nil, true},
		{"debug handler with debug level", slog.LevelDebug, &slog.HandlerOptions{Level: slog.LevelDebug}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewColorHandler(&buf, tt.opts)
			if got := h.Enabled(context.Background(), tt.level); got != tt.enabled {
				t.Fatalf("Enabled() = %v, want %v", got, tt.enabled)
			}
		})
	}
}

func TestColorHandler_MasksAttributes(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, nil)
	logger := slog.New(h).With("component", "executor")

	logger.Info("request sent",
		"url", "http://forum.example/users.json?api_key=secret&api_username=system",
		"password", "hunter2",
		"status", 200,
		"error", errors.New("dial tcp: api_key=secret refused"),
	)

	out := buf.String()
	if strings.Contains(out, "secret") || strings.Contains(out, "hunter2") {
		t.Fatalf("secret leaked into log line: %q", out)
	}
	for _, want := range []string{"[INFO ]", "component=", "request sent", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("colors must be off for non-terminal writers: %q", out)
	}
}

func TestColorHandler_ColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, nil)
	h.SetColorEnabled(true)
	slog.New(h).Error("transport failure", "status", 0)

	out := buf.String()
	if !strings.Contains(out, Red+"[ERROR]"+Reset) {
		t.Fatalf("expected red error level, got %q", out)
	}
	if !strings.Contains(out, Red+"0"+Reset) {
		t.Fatalf("expected status 0 rendered red, got %q", out)
	}
}

func TestStatusColor(t *testing.T) {
	cases := map[int64]string{200: Green, 204: Green, 302: Yellow, 404: Yellow, 500: Red, 0: Red}
	for status, want := range cases {
		if got := statusColor(status); got != want {
			t.Errorf("statusColor(%d) = %q, want %q", status, got, want)
		}
	}
}
