package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/readers-hub/services"
)

func TestAuthorizeRole_ExactMatchOnly(t *testing.T) {
	for _, held := range Roles() {
		actor := NewActor(uuid.New(), held)
		for _, required := range Roles() {
			t.Run(string(held)+"/"+string(required), func(t *testing.T) {
				assert.Equal(t, held == required, AuthorizeRole(actor, required))
			})
		}
	}
}

func TestAuthorizeRole_UnknownRole(t *testing.T) {
	actor := NewActor(uuid.New(), Role("superuser"))

	assert.False(t, AuthorizeRole(actor, Role("superuser")))
	assert.False(t, AuthorizeRole(actor, RoleAdmin))
}

func TestAuthorizeAnyRole(t *testing.T) {
	librarian := NewActor(uuid.New(), RoleLibrarian)

	assert.True(t, AuthorizeAnyRole(librarian, RoleAdmin, RoleLibrarian))
	assert.False(t, AuthorizeAnyRole(librarian, RoleAdmin, RoleMember))
	assert.False(t, AuthorizeAnyRole(librarian))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{" Librarian ", RoleLibrarian, false},
		{"MEMBER", RoleMember, false},
		{"owner", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.True(t, services.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorizePermission_GrantChangesDecision(t *testing.T) {
	id := uuid.New()

	before := NewActor(id, RoleMember)
	assert.False(t, AuthorizePermission(before, PermDeleteBook))

	after := NewActor(id, RoleMember, PermDeleteBook)
	assert.True(t, AuthorizePermission(after, PermDeleteBook))
	assert.False(t, AuthorizePermission(after, PermAddBook))
}

func TestAuthorizePermission_RoleIsIrrelevant(t *testing.T) {
	admin := NewActor(uuid.New(), RoleAdmin)

	assert.False(t, AuthorizePermission(admin, PermAddBook))
}

func TestAuthorizePermission_UnregisteredPermission(t *testing.T) {
	actor := NewActor(uuid.New(), RoleMember, Permission("can_burn_book"))

	assert.False(t, AuthorizePermission(actor, Permission("can_burn_book")))
}

func TestRegisterPermission(t *testing.T) {
	require.NoError(t, RegisterPermission(" Can_Lend_Book ", "Can lend book"))

	p, err := ParsePermission("can_lend_book")
	require.NoError(t, err)
	assert.True(t, AuthorizePermission(NewActor(uuid.New(), RoleMember, p), p))

	names := make([]Permission, 0)
	for _, info := range RegisteredPermissions() {
		names = append(names, info.Name)
	}
	assert.Contains(t, names, Permission("can_lend_book"))
	assert.IsIncreasing(t, names)

	assert.True(t, services.IsValidationError(RegisterPermission("  ", "")))
}

func TestParsePermission_Unknown(t *testing.T) {
	_, err := ParsePermission("can_eat_book")

	assert.True(t, services.IsValidationError(err))
}

func TestActor_PermissionsAreSnapshotted(t *testing.T) {
	perms := []Permission{PermChangeBook, PermAddBook}
	actor := NewActor(uuid.New(), RoleMember, perms...)

	perms[0] = PermDeleteBook

	assert.Equal(t, []Permission{PermAddBook, PermChangeBook}, actor.Permissions())
	assert.False(t, actor.HasPermission(PermDeleteBook))
}

func TestAuthorizeOwnership(t *testing.T) {
	owner := NewActor(uuid.New(), RoleMember)
	other := NewActor(uuid.New(), RoleMember)
	admin := NewActor(uuid.New(), RoleAdmin)
	post := OwnedBy("post", uuid.New(), owner.ID)
	unowned := Resource{Kind: "book", ID: uuid.New()}

	tests := []struct {
		name   string
		actor  Actor
		res    Resource
		action Action
		want   bool
	}{
		{"owner reads", owner, post, ActionRead, true},
		{"stranger reads", other, post, ActionRead, true},
		{"owner updates", owner, post, ActionUpdate, true},
		{"owner deletes", owner, post, ActionDelete, true},
		{"stranger updates", other, post, ActionUpdate, false},
		{"stranger deletes", other, post, ActionDelete, false},
		{"admin cannot update another's post", admin, post, ActionUpdate, false},
		{"anyone reads unowned", other, unowned, ActionRead, true},
		{"member cannot update unowned", other, unowned, ActionUpdate, false},
		{"admin cannot delete unowned", admin, unowned, ActionDelete, false},
		{"unknown action denied", owner, post, Action("share"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AuthorizeOwnership(tt.actor, tt.res, tt.action))
		})
	}
}
