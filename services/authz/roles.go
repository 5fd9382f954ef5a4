package authz

import (
	"strings"

	"github.com/upb/readers-hub/services"
)

// Role is the single primary role an actor holds in the library context.
// Roles are mutually exclusive; an actor has exactly one.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleMember    Role = "member"
)

// DefaultRole is assigned to newly registered accounts.
const DefaultRole = RoleMember

// Roles returns every role in a stable order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleLibrarian, RoleMember}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts user input ("Admin", " librarian ") into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", services.ErrInvalidRole.WithDetail("role", s)
	}
	return r, nil
}
