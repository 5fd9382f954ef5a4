package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/repositories/mocks"
	"github.com/upb/readers-hub/services"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// recordingRepo captures inserted entries
type recordingRepo struct {
	mocks.AuditRepository
	mu       sync.Mutex
	inserted []*models.AuditLog
}

func (r *recordingRepo) Insert(_ context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, log)
	return nil
}

func (r *recordingRepo) entries() []*models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AuditLog(nil), r.inserted...)
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Username: "ada", Role: "librarian"}
}

func TestService_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewService(&recordingRepo{}, zap.NewNop(), DefaultConfig())
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	require.NoError(t, s.Stop(time.Second))
}

func TestService_RecordBeforeStartAndAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewService(&recordingRepo{}, zap.NewNop(), DefaultConfig())
	assert.Error(t, s.LogRoleAssigned(Origin{}, testUser()))

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop(time.Second))

	assert.Error(t, s.LogRoleAssigned(Origin{}, testUser()))
	assert.Error(t, s.Stop(time.Second))
	assert.False(t, s.GetStats().Running)
}

func TestService_StopDrainsPendingEntries(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &recordingRepo{}
	s := NewService(repo, zap.NewNop(), Config{BufferSize: 100, WorkerCount: 3})
	require.NoError(t, s.Start())

	user := testUser()
	for i := 0; i < 50; i++ {
		require.NoError(t, s.LogPermissionGranted(Origin{}, user, "can_add_book"))
	}
	require.NoError(t, s.Stop(time.Second))

	assert.Len(t, repo.entries(), 50)
}

func TestService_EntriesCarryOrigin(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &recordingRepo{}
	s := NewService(repo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, s.Start())

	admin := uuid.New()
	user := testUser()
	require.NoError(t, s.LogRoleAssigned(ByActor(admin, "req-7"), user))
	require.NoError(t, s.LogPermissionRevoked(Origin{}, user, "can_delete_book"))
	require.NoError(t, s.Stop(time.Second))

	entries := repo.entries()
	require.Len(t, entries, 2)

	role := entries[0]
	assert.Equal(t, models.AuditActionRoleAssigned, role.Action)
	assert.Equal(t, ResourceUser, role.ResourceType)
	assert.Equal(t, user.ID, role.ResourceID)
	require.NotNil(t, role.ActorID)
	assert.Equal(t, admin, *role.ActorID)
	assert.Equal(t, "req-7", role.RequestID)
	var details map[string]string
	require.NoError(t, json.Unmarshal(role.Details, &details))
	assert.Equal(t, "librarian", details["role"])

	revoke := entries[1]
	assert.Equal(t, models.AuditActionPermissionRevoked, revoke.Action)
	assert.Nil(t, revoke.ActorID)
	assert.JSONEq(t, `{"username":"ada","permission":"can_delete_book"}`, string(revoke.Details))
}

func TestService_FullBufferDropsEntry(t *testing.T) {
	// the only worker blocks on the repository, so at most two entries fit
	release := make(chan struct{})
	repo := new(mocks.AuditRepository)
	repo.On("Insert", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	s := NewService(repo, zap.NewNop(), Config{BufferSize: 1, WorkerCount: 1})
	require.NoError(t, s.Start())

	user := testUser()
	var dropped int
	for i := 0; i < 5; i++ {
		if err := s.LogRoleAssigned(Origin{}, user); err != nil {
			dropped++
		}
	}
	close(release)
	require.NoError(t, s.Stop(time.Second))

	assert.GreaterOrEqual(t, dropped, 3)
}

func TestService_InsertFailureIsLoggedNotReturned(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := new(mocks.AuditRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	s := NewService(repo, zap.NewNop(), Config{BufferSize: 1, WorkerCount: 1})
	require.NoError(t, s.Start())
	require.NoError(t, s.LogRoleAssigned(Origin{}, testUser()))
	require.NoError(t, s.Stop(time.Second))

	repo.AssertExpectations(t)
}

func TestService_List(t *testing.T) {
	repo := new(mocks.AuditRepository)
	s := NewService(repo, zap.NewNop(), DefaultConfig())
	opts := repositories.ListOptions{Limit: 5, Offset: 5}
	entry := models.NewAuditLog(models.AuditActionRoleAssigned, ResourceUser, uuid.New())

	repo.On("List", mock.Anything, opts).Return([]*models.AuditLog{entry}, 6, nil).Once()
	list, total, err := s.List(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Equal(t, []*models.AuditLog{entry}, list)

	repo.On("List", mock.Anything, repositories.ListOptions{}).Return(nil, 0, errors.New("timeout")).Once()
	_, _, err = s.List(context.Background(), repositories.ListOptions{})
	assert.True(t, services.IsStorageError(err))
}

func TestNewService_DefaultsInvalidConfig(t *testing.T) {
	s := NewService(&recordingRepo{}, zap.NewNop(), Config{})

	stats := s.GetStats()
	assert.Equal(t, DefaultConfig().BufferSize, stats.BufferSize)
	assert.Equal(t, DefaultConfig().WorkerCount, stats.WorkerCount)
	assert.False(t, stats.Running)
}
