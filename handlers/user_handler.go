package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/readers-hub/config"
	"github.com/upb/readers-hub/middleware"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services/audit"
	"github.com/upb/readers-hub/services/authz"
	"go.uber.org/zap"
)

// SetRoleRequest assigns a primary role
type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// GrantPermissionRequest grants a named permission
type GrantPermissionRequest struct {
	Permission string `json:"permission" validate:"required"`
}

// FollowingResponse lists the ids the caller follows
type FollowingResponse struct {
	Following []uuid.UUID `json:"following"`
}

// UserDirectory defines the user lookups and administration used by UserHandler
type UserDirectory interface {
	Profile(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, opts repositories.ListOptions) ([]*models.User, int, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error)
	GrantPermission(ctx context.Context, id uuid.UUID, permission string) (*models.User, error)
	RevokePermission(ctx context.Context, id uuid.UUID, permission string) (*models.User, error)
}

// FollowService defines the follow operations used by UserHandler
type FollowService interface {
	Follow(ctx context.Context, actor authz.Actor, targetID uuid.UUID) error
	Unfollow(ctx context.Context, actor authz.Actor, targetID uuid.UUID) error
	Following(ctx context.Context, actor authz.Actor) ([]uuid.UUID, error)
}

// AuditTrail records privilege changes made through the admin endpoints
type AuditTrail interface {
	LogRoleAssigned(origin audit.Origin, user *models.User) error
	LogPermissionGranted(origin audit.Origin, user *models.User, permission string) error
	LogPermissionRevoked(origin audit.Origin, user *models.User, permission string) error
	List(ctx context.Context, opts repositories.ListOptions) ([]*models.AuditLog, int, error)
}

// UserHandler handles public profiles, follows and user administration
type UserHandler struct {
	users   UserDirectory
	follows FollowService
	trail   AuditTrail
	pager   pager
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler. trail may be nil.
func NewUserHandler(users UserDirectory, follows FollowService, trail AuditTrail, pagination config.PaginationConfig, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:   users,
		follows: follows,
		trail:   trail,
		pager:   newPager(pagination),
		logger:  logger,
	}
}

// HandleList handles GET /api/v1/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}

	users, total, err := h.users.ListUsers(r.Context(), page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	profiles := make([]models.PublicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Public())
	}
	writePage(w, page, total, profiles, h.logger)
}

// HandleGet handles GET /api/v1/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	user, err := h.users.Profile(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, user.Public(), h.logger)
}

// HandleFollow handles POST /api/v1/users/{id}/follow
func (h *UserHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	h.mutateFollow(w, r, h.follows.Follow, "You are now following this user")
}

// HandleUnfollow handles POST /api/v1/users/{id}/unfollow
func (h *UserHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.mutateFollow(w, r, h.follows.Unfollow, "You have unfollowed this user")
}

func (h *UserHandler) mutateFollow(w http.ResponseWriter, r *http.Request, op func(context.Context, authz.Actor, uuid.UUID) error, message string) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	target, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := op(r.Context(), actor, target); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, map[string]string{"detail": message}, h.logger)
}

// HandleFollowing handles GET /api/v1/users/me/following
func (h *UserHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	ids, err := h.follows.Following(r.Context(), actor)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	writeOK(w, FollowingResponse{Following: ids}, h.logger)
}

// HandleSetRole handles PUT /api/v1/admin/users/{id}/role
func (h *UserHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req SetRoleRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	user, err := h.users.SetRole(r.Context(), id, req.Role)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.audit(r, func(origin audit.Origin) error { return h.trail.LogRoleAssigned(origin, user) })
	writeOK(w, toProfile(user), h.logger)
}

// HandleGrantPermission handles POST /api/v1/admin/users/{id}/permissions
func (h *UserHandler) HandleGrantPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req GrantPermissionRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	user, err := h.users.GrantPermission(r.Context(), id, req.Permission)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.audit(r, func(origin audit.Origin) error {
		return h.trail.LogPermissionGranted(origin, user, permissionName(req.Permission))
	})
	writeOK(w, toProfile(user), h.logger)
}

// HandleRevokePermission handles DELETE /api/v1/admin/users/{id}/permissions/{permission}
func (h *UserHandler) HandleRevokePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	permission := chi.URLParam(r, "permission")
	user, err := h.users.RevokePermission(r.Context(), id, permission)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.audit(r, func(origin audit.Origin) error {
		return h.trail.LogPermissionRevoked(origin, user, permissionName(permission))
	})
	writeOK(w, toProfile(user), h.logger)
}

// HandleListPermissions handles GET /api/v1/admin/permissions
func (h *UserHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	writeOK(w, authz.RegisteredPermissions(), h.logger)
}

// HandleListRoles handles GET /api/v1/admin/roles
func (h *UserHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	writeOK(w, authz.Roles(), h.logger)
}

// HandleListAudit handles GET /api/v1/admin/audit
func (h *UserHandler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}
	if h.trail == nil {
		writePage(w, page, 0, []*models.AuditLog{}, h.logger)
		return
	}

	entries, total, err := h.trail.List(r.Context(), page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writePage(w, page, total, entries, h.logger)
}

// audit records a completed change. A failed record never fails the request.
func (h *UserHandler) audit(r *http.Request, record func(audit.Origin) error) {
	if h.trail == nil {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return
	}
	if err := record(audit.ByActor(actor.ID, middleware.GetRequestIDFromContext(r.Context()))); err != nil {
		h.logger.Warn("failed to record audit entry", zap.Error(err))
	}
}

// permissionName returns the registered spelling of an accepted permission
func permissionName(s string) string {
	p, err := authz.ParsePermission(s)
	if err != nil {
		return s
	}
	return string(p)
}
