package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that can author posts, follow other users and, when
// granted, manage the library catalog.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Bio          string    `json:"bio" db:"bio"`
	Role         string    `json:"role" db:"role"`
	Permissions  []string  `json:"permissions" db:"-"` // loaded from user_permissions
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance with no permissions
func NewUser(username, email, passwordHash, role string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Role:         role,
		Permissions:  []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasPermission reports whether the user carries the named permission.
func (u *User) HasPermission(name string) bool {
	for _, p := range u.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// SortedPermissions returns a sorted copy of the permission list.
func (u *User) SortedPermissions() []string {
	out := append([]string(nil), u.Permissions...)
	sort.Strings(out)
	return out
}

// PublicProfile is the subset of User shown to other users.
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips credentials and authorization attributes.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}
