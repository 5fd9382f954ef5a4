package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/auth"
	"github.com/upb/readers-hub/services"
	"github.com/upb/readers-hub/services/authz"
	"github.com/upb/readers-hub/utils"
	"go.uber.org/zap"
)

// TokenValidator validates a bearer or cookie token
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.ParsedClaims, error)
}

// ActorLoader reads the current authorization snapshot of a user
type ActorLoader interface {
	Actor(ctx context.Context, id uuid.UUID) (authz.Actor, error)
}

// AuthMiddleware authenticates requests and guards routes by role or permission
type AuthMiddleware struct {
	validator  TokenValidator
	actors     ActorLoader
	authorizer *authz.Authorizer
	cookieName string
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, actors ActorLoader, authorizer *authz.Authorizer, cookieName string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator:  validator,
		actors:     actors,
		authorizer: authorizer,
		cookieName: cookieName,
		logger:     logger,
	}
}

// RequireAuth requires a valid token and loads the caller's actor snapshot.
// Role and permissions are read fresh on every request, so grants and
// revocations apply without re-login.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := m.extractToken(r)
		if token == "" {
			m.logger.Debug("missing token", zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication credentials were not provided")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		actor, err := m.actors.Actor(ctx, claims.UserID)
		if err != nil {
			if services.IsNotFoundError(err) {
				m.logger.Warn("token subject no longer exists",
					zap.String("request_id", requestID),
					zap.String("user_id", claims.UserID.String()))
				_ = utils.WriteUnauthorized(w, "Invalid or expired token")
				return
			}
			m.logger.Error("failed to load actor",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteError(w, http.StatusServiceUnavailable, "Authorization data unavailable", nil)
			return
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithActor(ctx, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits actors whose primary role is one of roles.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...authz.Role) func(http.Handler) http.Handler {
	return m.guard(func(actor authz.Actor) error {
		return m.authorizer.RequireRole(actor, roles...)
	})
}

// RequirePermission admits actors holding perm. Must run after RequireAuth.
func (m *AuthMiddleware) RequirePermission(perm authz.Permission) func(http.Handler) http.Handler {
	return m.guard(func(actor authz.Actor) error {
		return m.authorizer.RequirePermission(actor, perm)
	})
}

func (m *AuthMiddleware) guard(check func(authz.Actor) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				m.logger.Error("actor not found in context",
					zap.String("request_id", GetRequestIDFromContext(r.Context())))
				_ = utils.WriteUnauthorized(w, "")
				return
			}
			if err := check(actor); err != nil {
				_ = utils.WriteForbidden(w, "You do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the Authorization header first, then the session cookie
func (m *AuthMiddleware) extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if m.cookieName == "" {
		return ""
	}
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
