package logging

import (
	"context"
	"log/slog"

	"bitgraph/internal/services"
)

// Structured field keys shared by every component.
const (
	FieldComponent     = "component"
	FieldMediaPath     = "media_path"
	FieldStep          = "step" // probe, aggregate or render
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
	FieldAlert         = "alert"
)

// ContextFields turns the media path, step and request id carried by ctx
// into attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr
	if path, ok := services.MediaPathFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMediaPath, path))
	}
	if step, ok := services.StepFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStep, step))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger tagged with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}
