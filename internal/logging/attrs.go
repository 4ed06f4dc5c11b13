package logging

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Attr and the constructors below keep call sites free of a direct slog
// import.
type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// MediaPath tags a record with the file under analysis.
func MediaPath(path string) Attr { return slog.String(FieldMediaPath, path) }

// Error renders err under the "error" key; a nil error is logged as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func toArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Missing fields get generic defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	defaults := []Attr{
		String(FieldEventType, eventType),
		String(FieldErrorHint, `set logging.level = "debug" for details`),
		String(FieldImpact, "result may be incomplete"),
	}
	for _, def := range defaults {
		if !slices.ContainsFunc(attrs, func(a Attr) bool { return a.Key == def.Key }) {
			attrs = append(attrs, def)
		}
	}
	logger.Warn(msg, toArgs(attrs)...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h NoopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h NoopHandler) WithGroup(string) slog.Handler           { return h }
