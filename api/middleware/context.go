package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/songqueue-backend/pkg/auth"
)

type contextKey string

const ctxAuth contextKey = "auth_context"

// AuthFromContext returns the resolved caller; anonymous callers get the zero value.
func AuthFromContext(ctx context.Context) pkgAuth.Context {
	if ctx == nil {
		return pkgAuth.Context{}
	}
	if v, ok := ctx.Value(ctxAuth).(pkgAuth.Context); ok {
		return v
	}
	return pkgAuth.Context{}
}

// SessionIDFromContext returns the operator session bound to the request, if any.
func SessionIDFromContext(ctx context.Context) string {
	return AuthFromContext(ctx).SessionID
}

// WithAuth injects the caller context for downstream handlers.
func WithAuth(ctx context.Context, ac pkgAuth.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAuth, ac)
}
