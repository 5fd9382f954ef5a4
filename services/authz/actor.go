package authz

import (
	"sort"

	"github.com/google/uuid"
)

// Actor is an immutable snapshot of an authenticated identity's
// authorization attributes, read at decision time.
type Actor struct {
	ID          uuid.UUID
	Role        Role
	permissions map[Permission]struct{}
}

// NewActor builds an Actor snapshot. The permission list is copied.
func NewActor(id uuid.UUID, role Role, perms ...Permission) Actor {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return Actor{ID: id, Role: role, permissions: set}
}

// HasPermission reports whether p is in the granted set.
func (a Actor) HasPermission(p Permission) bool {
	_, ok := a.permissions[p]
	return ok
}

// Permissions returns the granted set in sorted order.
func (a Actor) Permissions() []Permission {
	out := make([]Permission, 0, len(a.permissions))
	for p := range a.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resource is any owned entity. A nil Owner marks an un-owned,
// administratively managed resource.
type Resource struct {
	Kind  string
	ID    uuid.UUID
	Owner *uuid.UUID
}

// OwnedBy builds a Resource with the given owner.
func OwnedBy(kind string, id, owner uuid.UUID) Resource {
	return Resource{Kind: kind, ID: id, Owner: &owner}
}

// Action is an operation attempted against a Resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}
