package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
)

// ANSI color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

// ColorHandler is a slog.Handler printing one colorized line per record.
// Attribute values pass through a Masker before they are written.
type ColorHandler struct {
	opts     *slog.HandlerOptions
	mu       *sync.Mutex
	writer   io.Writer
	attrs    []slog.Attr
	masker   *Masker
	useColor bool
}

// NewColorHandler creates a new color handler
func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ColorHandler{
		opts:     opts,
		mu:       &sync.Mutex{},
		writer:   w,
		useColor: shouldUseColor(w),
		masker:   GetGlobalMasker(),
	}
}

func shouldUseColor(w io.Writer) bool {
	if runtime.GOOS == "windows" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// Enabled reports whether the handler handles records at the given level
func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle handles the Record
func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 512)

	if !r.Time.IsZero() {
		buf = append(buf, h.colorize(Gray, r.Time.Format(time.RFC3339))...)
		buf = append(buf, ' ')
	}
	buf = append(buf, h.formatLevel(r.Level)...)
	buf = append(buf, ' ')
	buf = append(buf, h.colorize(White, r.Message)...)

	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, attr := range attrs {
		buf = append(buf, ' ')
		buf = append(buf, h.colorize(Cyan, attr.Key)...)
		buf = append(buf, '=')
		buf = append(buf, h.formatValue(attr.Key, attr.Value)...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf)
	return err
}

func (h *ColorHandler) formatLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.colorize(Red, "[ERROR]")
	case level >= slog.LevelWarn:
		return h.colorize(Yellow, "[WARN ]")
	case level >= slog.LevelInfo:
		return h.colorize(Green, "[INFO ]")
	default:
		return h.colorize(Gray, "[DEBUG]")
	}
}

func (h *ColorHandler) formatValue(key string, v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		str := v.String()
		if h.masker != nil {
			if masked, ok := h.masker.MaskValue(key, str).(string); ok {
				str = masked
			}
		}
		return h.colorize(White, fmt.Sprintf("%q", str))
	case slog.KindInt64:
		n := v.Int64()
		if key == "status" || key == "status_code" {
			return h.colorize(statusColor(n), fmt.Sprintf("%d", n))
		}
		return h.colorize(Magenta, fmt.Sprintf("%d", n))
	case slog.KindFloat64:
		return h.colorize(Magenta, fmt.Sprintf("%g", v.Float64()))
	case slog.KindBool:
		if v.Bool() {
			return h.colorize(Green, "true")
		}
		return h.colorize(Red, "false")
	case slog.KindDuration:
		return h.colorize(Yellow, v.Duration().String())
	case slog.KindTime:
		return h.colorize(Gray, v.Time().Format(time.RFC3339))
	default:
		if err, ok := v.Any().(error); ok {
			msg := err.Error()
			if h.masker != nil {
				msg = h.masker.MaskString(msg)
			}
			return h.colorize(Red, fmt.Sprintf("%q", msg))
		}
		return h.colorize(White, v.String())
	}
}

// statusColor picks a color for an HTTP status: green for 2xx, yellow for
// 3xx/4xx, red for 5xx and for 0 (no response).
func statusColor(status int64) string {
	switch {
	case status >= 200 && status < 300:
		return Green
	case status >= 300 && status < 500:
		return Yellow
	default:
		return Red
	}
}

func (h *ColorHandler) colorize(color, text string) string {
	if !h.useColor {
		return text
	}
	return color + text + Reset
}

// WithAttrs returns a new ColorHandler with the given attributes added
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	c := *h
	c.attrs = merged
	return &c
}

// WithGroup is a no-op; records are printed flat.
func (h *ColorHandler) WithGroup(_ string) slog.Handler {
	return h
}

// SetColorEnabled enables or disables colors
func (h *ColorHandler) SetColorEnabled(enabled bool) {
	h.useColor = enabled
}
