package transport

import "context"

// TokenSource supplies the bearer token attached to outgoing requests.
// An empty token means no Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource always returns the same token
type StaticTokenSource string

// Token returns the static token
func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

// TokenSourceFunc adapts a function to TokenSource
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token calls f
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

type requestIDKey struct{}

// WithRequestID makes the transport send id as X-Request-ID instead of generating one
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id set by WithRequestID
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
