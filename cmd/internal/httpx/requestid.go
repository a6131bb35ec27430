package httpx

import (
	"context"
	"sync"
)

type requestIDKey struct{}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// WithRequestID stores id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type logFieldsKey struct{}

type logFields struct {
	mu    sync.Mutex
	attrs []any
}

// WithLogFields installs a holder that inner handlers can annotate with
// AddLogField and the request logger reads back with LogFields.
func WithLogFields(ctx context.Context) context.Context {
	return context.WithValue(ctx, logFieldsKey{}, &logFields{})
}

// AddLogField appends key/val to the request's log line. It is a no-op
// without WithLogFields.
func AddLogField(ctx context.Context, key string, val any) {
	f, ok := ctx.Value(logFieldsKey{}).(*logFields)
	if !ok {
		return
	}
	f.mu.Lock()
	f.attrs = append(f.attrs, key, val)
	f.mu.Unlock()
}

// LogFields returns a copy of the fields added so far.
func LogFields(ctx context.Context) []any {
	f, ok := ctx.Value(logFieldsKey{}).(*logFields)
	if !ok {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.attrs...)
}
