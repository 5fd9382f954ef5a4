package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/auth"
	"github.com/upb/readers-hub/middleware"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/services/accounts"
	"github.com/upb/readers-hub/services/authz"
	"go.uber.org/zap"
)

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	Bio string `json:"bio" validate:"max=2000"`
}

// ProfileResponse is the caller's own account view
type ProfileResponse struct {
	*models.User
	Permissions []string `json:"permissions"`
}

// SessionResponse is returned by register and login
type SessionResponse struct {
	User      ProfileResponse `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// AccountService defines the account operations used by the HTTP layer
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (*accounts.Session, error)
	Login(ctx context.Context, username, password string) (*accounts.Session, error)
	Profile(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, actor authz.Actor, bio string) (*models.User, error)
}

// CookieSettings controls the session cookie written on login
type CookieSettings struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler handles registration, login and the caller's profile
type AuthHandler struct {
	accounts AccountService
	cookie   CookieSettings
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts AccountService, cookie CookieSettings, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, cookie: cookie, logger: logger}
}

// HandleRegister handles POST /api/v1/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	session, err := h.accounts.Register(r.Context(), accounts.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.setCookie(w, session)
	writeCreated(w, toSessionResponse(session), h.logger)
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Info("login failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("username", req.Username))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.setCookie(w, session)
	writeOK(w, toSessionResponse(session), h.logger)
}

// HandleLogout handles POST /api/v1/auth/logout. Tokens are stateless, so
// logging out only clears the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookie.Name, h.cookie.Secure)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /api/v1/users/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.accounts.Profile(r.Context(), actor.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, toProfile(user), h.logger)
}

// HandleUpdateMe handles PATCH /api/v1/users/me
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), actor, req.Bio)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, toProfile(user), h.logger)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, session *accounts.Session) {
	if h.cookie.Name == "" {
		return
	}
	auth.SetSessionCookie(w, h.cookie.Name, session.Token, time.Until(session.ExpiresAt), h.cookie.Secure)
}

func toProfile(user *models.User) ProfileResponse {
	perms := user.SortedPermissions()
	if perms == nil {
		perms = []string{}
	}
	return ProfileResponse{User: user, Permissions: perms}
}

func toSessionResponse(s *accounts.Session) SessionResponse {
	return SessionResponse{User: toProfile(s.User), Token: s.Token, ExpiresAt: s.ExpiresAt}
}
