package authz

import (
	"github.com/upb/readers-hub/services"
	"go.uber.org/zap"
)

// Decision outcomes reported to a DecisionRecorder.
const (
	OutcomeAllow = "allow"
	OutcomeDeny  = "deny"
)

// DecisionRecorder receives one call per authorization decision.
type DecisionRecorder interface {
	RecordDecision(check, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(string, string) {}

// Authorizer wraps the pure decision functions with logging, metrics and
// typed errors for use by services and middleware.
type Authorizer struct {
	logger   *zap.Logger
	recorder DecisionRecorder
}

// NewAuthorizer creates an Authorizer. A nil recorder disables metrics.
func NewAuthorizer(logger *zap.Logger, recorder DecisionRecorder) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Authorizer{logger: logger, recorder: recorder}
}

// RequireRole fails with a forbidden error unless the actor holds one of roles.
func (a *Authorizer) RequireRole(actor Actor, roles ...Role) error {
	if AuthorizeAnyRole(actor, roles...) {
		a.allow("role")
		return nil
	}

	a.deny("role",
		zap.String("actor_id", actor.ID.String()),
		zap.String("actor_role", actor.Role.String()),
		zap.Any("required", roles),
	)
	return services.ErrRoleRequired.WithDetail("required_roles", roles)
}

// RequirePermission fails with a forbidden error unless perm is granted.
func (a *Authorizer) RequirePermission(actor Actor, perm Permission) error {
	if AuthorizePermission(actor, perm) {
		a.allow("permission")
		return nil
	}

	a.deny("permission",
		zap.String("actor_id", actor.ID.String()),
		zap.String("permission", string(perm)),
	)
	return services.ErrPermissionRequired.WithDetail("permission", string(perm))
}

// RequireOwnership fails with a forbidden error unless actor may perform
// action on res. Unknown actions are rejected as validation errors.
func (a *Authorizer) RequireOwnership(actor Actor, res Resource, action Action) error {
	if !action.Valid() {
		return services.ErrInvalidAction.WithDetail("action", string(action))
	}
	if AuthorizeOwnership(actor, res, action) {
		a.allow("ownership")
		return nil
	}

	a.deny("ownership",
		zap.String("actor_id", actor.ID.String()),
		zap.String("resource_kind", res.Kind),
		zap.String("resource_id", res.ID.String()),
		zap.String("action", string(action)),
	)
	return services.ErrNotOwner.
		WithDetail("resource", res.Kind).
		WithDetail("action", string(action))
}

func (a *Authorizer) allow(check string) {
	a.recorder.RecordDecision(check, OutcomeAllow)
}

func (a *Authorizer) deny(check string, fields ...zap.Field) {
	a.recorder.RecordDecision(check, OutcomeDeny)
	a.logger.Debug("authorization denied", append([]zap.Field{zap.String("check", check)}, fields...)...)
}
