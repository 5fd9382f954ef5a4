package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/readers-hub/auth"
	"github.com/upb/readers-hub/services/authz"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for validated token claims
	ClaimsKey contextKey = "claims"

	// ActorKey is the context key for the authenticated actor snapshot
	ActorKey contextKey = "actor"
)

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetClaimsFromContext retrieves token claims from context
func GetClaimsFromContext(ctx context.Context) *auth.ParsedClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*auth.ParsedClaims); ok {
		return claims
	}
	return nil
}

// WithClaims adds token claims to the context
func WithClaims(ctx context.Context, claims *auth.ParsedClaims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// ActorFromContext retrieves the authenticated actor
func ActorFromContext(ctx context.Context) (authz.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(authz.Actor)
	return actor, ok
}

// WithActor adds the authenticated actor to the context
func WithActor(ctx context.Context, actor authz.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}
