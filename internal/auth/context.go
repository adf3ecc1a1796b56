package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey int

const (
	bearerTokenKey contextKey = iota
	identityKey
)

// WithBearerToken stores a raw bearer token on the context.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey, token)
}

// BearerFromContext returns the raw bearer token captured at the
// transport edge, if any.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerTokenKey).(string)
	return token, ok && token != ""
}

// WithIdentity stores the authenticated caller on the context for tool
// handlers.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// HTTPContextFunc captures the Authorization header of an incoming
// HTTP request onto the request context. It serves both the SSE and
// the streamable HTTP transports.
func HTTPContextFunc(ctx context.Context, r *http.Request) context.Context {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return WithBearerToken(ctx, header[len(prefix):])
	}
	return ctx
}
