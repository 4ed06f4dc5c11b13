package services

import "context"

// ctxKey scopes the string annotations carried through a probe.
type ctxKey int

const (
	mediaPathKey ctxKey = iota
	stepKey
	requestIDKey
)

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, _ := ctx.Value(key).(string)
	return value, value != ""
}

// WithMediaPath records the file under analysis. Empty paths are ignored.
func WithMediaPath(ctx context.Context, path string) context.Context {
	return withString(ctx, mediaPathKey, path)
}

// MediaPathFromContext returns the file recorded by WithMediaPath.
func MediaPathFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, mediaPathKey)
}

// WithStep records the analysis step: probe, aggregate or render.
func WithStep(ctx context.Context, step string) context.Context {
	return withString(ctx, stepKey, step)
}

func StepFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stepKey)
}

// WithRequestID records the correlation id of one CLI invocation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}
