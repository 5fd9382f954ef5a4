// Package accounts handles registration, login, profiles and the admin-only
// role and permission mutations.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services"
	"github.com/upb/readers-hub/services/authz"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Issue(userID uuid.UUID, username string) (string, time.Time, error)
}

// Session is the result of a successful register or login
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// RegisterInput carries the fields needed to create an account
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Service handles account operations
type Service struct {
	users      repositories.UserRepository
	tokens     TokenIssuer
	bcryptCost int
	logger     *zap.Logger
}

// NewService creates a new accounts service
func NewService(users repositories.UserRepository, tokens TokenIssuer, bcryptCost int, logger *zap.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a member account and signs a token for it
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" {
		return nil, services.ErrInvalidInput.WithDetail("fields", []string{"username", "email"})
	}
	if len(in.Password) < minPasswordLength {
		return nil, services.ErrInvalidInput.WithDetail("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, services.WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.Username, in.Email, string(hash), string(authz.DefaultRole))
	if err := s.users.Create(ctx, user); err != nil {
		var dup *repositories.DuplicateError
		if errors.As(err, &dup) {
			if dup.Field == "email" {
				return nil, services.ErrDuplicateEmail
			}
			return nil, services.ErrDuplicateUsername
		}
		return nil, services.WrapStorage("failed to create user", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return s.session(user)
}

// Login checks credentials and signs a token
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrInvalidCredentials
		}
		return nil, services.WrapStorage("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("login rejected", zap.String("username", user.Username))
		return nil, services.ErrInvalidCredentials
	}

	return s.session(user)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, services.WrapInternal("failed to issue token", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Profile returns a user by id
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userError(err, id)
	}
	return user, nil
}

// ListUsers returns users ordered by username
func (s *Service) ListUsers(ctx context.Context, opts repositories.ListOptions) ([]*models.User, int, error) {
	users, total, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, 0, services.WrapStorage("failed to list users", err)
	}
	return users, total, nil
}

// UpdateProfile changes the actor's own bio
func (s *Service) UpdateProfile(ctx context.Context, actor authz.Actor, bio string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, userError(err, actor.ID)
	}

	user.Bio = strings.TrimSpace(bio)
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, userError(err, actor.ID)
	}
	return user, nil
}

// Actor loads a fresh authorization snapshot for the user
func (s *Service) Actor(ctx context.Context, id uuid.UUID) (authz.Actor, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return authz.Actor{}, userError(err, id)
	}
	return ActorFromUser(user), nil
}

// ActorFromUser converts a stored user into an authorization snapshot.
// Unknown roles and permissions in storage grant nothing.
func ActorFromUser(user *models.User) authz.Actor {
	perms := make([]authz.Permission, 0, len(user.Permissions))
	for _, p := range user.Permissions {
		perms = append(perms, authz.Permission(p))
	}
	return authz.NewActor(user.ID, authz.Role(user.Role), perms...)
}

// SetRole replaces a user's primary role
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	parsed, err := authz.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRole(ctx, id, string(parsed)); err != nil {
		return nil, userError(err, id)
	}

	s.logger.Info("role assigned", zap.String("user_id", id.String()), zap.String("role", parsed.String()))
	return s.Profile(ctx, id)
}

// GrantPermission adds a registered permission to a user
func (s *Service) GrantPermission(ctx context.Context, id uuid.UUID, permission string) (*models.User, error) {
	perm, err := authz.ParsePermission(permission)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, id); err != nil {
		return nil, err
	}
	if err := s.users.GrantPermission(ctx, id, string(perm)); err != nil {
		return nil, userError(err, id)
	}

	s.logger.Info("permission granted", zap.String("user_id", id.String()), zap.String("permission", string(perm)))
	return s.Profile(ctx, id)
}

// RevokePermission removes a permission from a user; revoking one the user
// does not hold succeeds.
func (s *Service) RevokePermission(ctx context.Context, id uuid.UUID, permission string) (*models.User, error) {
	perm, err := authz.ParsePermission(permission)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, id); err != nil {
		return nil, err
	}
	if err := s.users.RevokePermission(ctx, id, string(perm)); err != nil {
		return nil, userError(err, id)
	}

	s.logger.Info("permission revoked", zap.String("user_id", id.String()), zap.String("permission", string(perm)))
	return s.Profile(ctx, id)
}

func (s *Service) requireUser(ctx context.Context, id uuid.UUID) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return services.WrapStorage("failed to look up user", err)
	}
	if !ok {
		return services.ErrUserNotFound.WithDetail("user_id", id.String())
	}
	return nil
}

func userError(err error, id uuid.UUID) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrUserNotFound.WithDetail("user_id", id.String())
	}
	return services.WrapStorage("user store failure", err)
}
