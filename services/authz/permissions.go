package authz

import (
	"sort"
	"strings"
	"sync"

	"github.com/upb/readers-hub/services"
)

// Permission is a fine-grained capability flag granted to an actor
// independently of its role.
type Permission string

const (
	PermAddBook    Permission = "can_add_book"
	PermChangeBook Permission = "can_change_book"
	PermDeleteBook Permission = "can_delete_book"
)

// PermissionInfo describes a registered permission.
type PermissionInfo struct {
	Name        Permission `json:"name"`
	Description string     `json:"description"`
}

var registry = struct {
	sync.RWMutex
	perms map[Permission]string
}{
	perms: map[Permission]string{
		PermAddBook:    "Can add book",
		PermChangeBook: "Can change book",
		PermDeleteBook: "Can delete book",
	},
}

// RegisterPermission adds a permission to the registry. Re-registering an
// existing name only updates its description.
func RegisterPermission(name Permission, description string) error {
	name = Permission(strings.ToLower(strings.TrimSpace(string(name))))
	if name == "" {
		return services.ErrInvalidPermission.WithDetail("permission", "")
	}
	registry.Lock()
	defer registry.Unlock()
	registry.perms[name] = strings.TrimSpace(description)
	return nil
}

// KnownPermission reports whether p has been registered.
func KnownPermission(p Permission) bool {
	registry.RLock()
	defer registry.RUnlock()
	_, ok := registry.perms[p]
	return ok
}

// RegisteredPermissions lists the registry ordered by name.
func RegisteredPermissions() []PermissionInfo {
	registry.RLock()
	out := make([]PermissionInfo, 0, len(registry.perms))
	for name, desc := range registry.perms {
		out = append(out, PermissionInfo{Name: name, Description: desc})
	}
	registry.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ParsePermission normalizes s and checks it against the registry.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if !KnownPermission(p) {
		return "", services.ErrInvalidPermission.WithDetail("permission", s)
	}
	return p, nil
}
