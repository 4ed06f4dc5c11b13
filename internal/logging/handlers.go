package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// newJSONHandler writes one JSON object per record using the short ts/level/msg
// keys shared by the console and file sinks.
func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: renameJSONAttr,
	})
}

func renameJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
		}
		attr.Key = "ts"
	case slog.LevelKey:
		return slog.String("level", strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String("source", filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
		}
	}
	return attr
}

// teeHandler hands every record to each sink whose level admits it.
type teeHandler []slog.Handler

func newFanoutHandler(sinks ...slog.Handler) slog.Handler {
	sinks = slices.DeleteFunc(slices.Clone(sinks), func(h slog.Handler) bool { return h == nil })
	switch len(sinks) {
	case 0:
		return NoopHandler{}
	case 1:
		return sinks[0]
	}
	return teeHandler(sinks)
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(t, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, record.Level) {
			errs = append(errs, h.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t teeHandler) each(fn func(slog.Handler) slog.Handler) teeHandler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = fn(h)
	}
	return next
}
