package authz

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/upb/readers-hub/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordDecision(check, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[check+"/"+outcome]++
}

func TestAuthorizer_RequireRole(t *testing.T) {
	rec := &countingRecorder{}
	a := NewAuthorizer(zap.NewNop(), rec)

	assert.NoError(t, a.RequireRole(NewActor(uuid.New(), RoleAdmin), RoleAdmin))

	err := a.RequireRole(NewActor(uuid.New(), RoleMember), RoleAdmin, RoleLibrarian)
	assert.True(t, services.IsForbiddenError(err))
	assert.False(t, services.IsNotFoundError(err))

	assert.Equal(t, 1, rec.counts["role/allow"])
	assert.Equal(t, 1, rec.counts["role/deny"])
}

func TestAuthorizer_RequirePermission(t *testing.T) {
	a := NewAuthorizer(nil, nil)
	id := uuid.New()

	err := a.RequirePermission(NewActor(id, RoleMember), PermDeleteBook)
	assert.True(t, services.IsForbiddenError(err))
	assert.Equal(t, "can_delete_book", services.GetErrorDetails(err)["permission"])

	assert.NoError(t, a.RequirePermission(NewActor(id, RoleMember, PermDeleteBook), PermDeleteBook))
}

func TestAuthorizer_RequireOwnership(t *testing.T) {
	a := NewAuthorizer(nil, nil)
	owner := NewActor(uuid.New(), RoleMember)
	other := NewActor(uuid.New(), RoleMember)
	comment := OwnedBy("comment", uuid.New(), owner.ID)

	assert.NoError(t, a.RequireOwnership(owner, comment, ActionDelete))
	assert.NoError(t, a.RequireOwnership(other, comment, ActionRead))
	assert.True(t, services.IsForbiddenError(a.RequireOwnership(other, comment, ActionDelete)))
	assert.True(t, services.IsValidationError(a.RequireOwnership(owner, comment, Action("archive"))))
}

func TestAuthorizer_LogsDenials(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	a := NewAuthorizer(zap.New(core), nil)

	_ = a.RequirePermission(NewActor(uuid.New(), RoleLibrarian), PermAddBook)

	entries := logs.FilterMessage("authorization denied").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "permission", entries[0].ContextMap()["check"])
		assert.Equal(t, "can_add_book", entries[0].ContextMap()["permission"])
	}
}
