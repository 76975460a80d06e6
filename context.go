package authkit

import (
	"context"

	"github.com/flowzz/authkit/internal/api"
)

// WithRequestID attaches a correlation id to ctx; it is sent as
// X-Request-ID on every auth call made with that context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return api.WithRequestID(ctx, id)
}

// WithUserAgent overrides the configured User-Agent for auth calls made
// with ctx.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return api.WithUserAgent(ctx, userAgent)
}
