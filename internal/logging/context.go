package logging

import "context"

type ctxKey struct{}

// WithRequestID returns a copy of ctx carrying the request correlation id.
// SlogLogger adds it as the request_id attribute on every record.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID extracts the correlation id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
