package shared

import (
	"context"

	"github.com/aegis-authz/aegis/internal/authz"
)

// SessionHeader carries the session ID that binds a request to its identity
// snapshot.
const SessionHeader = "X-Aegis-Session"

type resolverContextKey struct{}

// ContextWithResolver stores the request's resolver in context.
func ContextWithResolver(ctx context.Context, r *authz.Resolver) context.Context {
	return context.WithValue(ctx, resolverContextKey{}, r)
}

// ResolverFromContext extracts the resolver from context, nil when the
// middleware did not run.
func ResolverFromContext(ctx context.Context) *authz.Resolver {
	r, _ := ctx.Value(resolverContextKey{}).(*authz.Resolver)
	return r
}
