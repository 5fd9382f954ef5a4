package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/repositories/mocks"
	"github.com/upb/readers-hub/services"
	"github.com/upb/readers-hub/services/accounts"
	"github.com/upb/readers-hub/services/audit"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "users", "version"} {
		assert.True(t, names[want], "%s not registered", want)
	}

	sub := map[string]bool{}
	for _, c := range usersCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["set-role"])
	assert.True(t, sub["grant"])
	assert.True(t, sub["revoke"])
}

func TestServeFlagDefaults(t *testing.T) {
	migrate, err := serveCmd.Flags().GetBool("migrate")
	require.NoError(t, err)
	assert.True(t, migrate)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "readers-hub "+Version)
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	user := models.NewUser("alice", "alice@example.com", "hash", "member")

	t.Run("assigns role", func(t *testing.T) {
		users := new(mocks.UserRepository)
		users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)
		users.On("SetRole", mock.Anything, user.ID, "admin").Return(nil)
		promoted := *user
		promoted.Role = "admin"
		users.On("GetByID", mock.Anything, user.ID).Return(&promoted, nil)
		var out bytes.Buffer

		err := setRole(ctx, &out, users, accounts.NewService(users, nil, 4, zap.NewNop()), " alice ", "ADMIN")

		require.NoError(t, err)
		assert.Equal(t, "alice role=admin permissions=-\n", out.String())
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(mocks.UserRepository)
		users.On("GetByUsername", mock.Anything, "ghost").Return(nil, repositories.ErrNotFound)

		err := setRole(ctx, &bytes.Buffer{}, users, accounts.NewService(users, nil, 4, zap.NewNop()), "ghost", "admin")

		require.Error(t, err)
		assert.Contains(t, err.Error(), `no user named "ghost"`)
	})

	t.Run("unknown role", func(t *testing.T) {
		users := new(mocks.UserRepository)
		users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)

		err := setRole(ctx, &bytes.Buffer{}, users, accounts.NewService(users, nil, 4, zap.NewNop()), "alice", "owner")

		assert.True(t, services.IsValidationError(err))
		users.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGrantPermission(t *testing.T) {
	users := new(mocks.UserRepository)
	user := models.NewUser("bob", "bob@example.com", "hash", "librarian")
	users.On("GetByUsername", mock.Anything, "bob").Return(user, nil)
	users.On("Exists", mock.Anything, user.ID).Return(true, nil)
	users.On("GrantPermission", mock.Anything, user.ID, "can_add_book").Return(nil)
	granted := *user
	granted.Permissions = []string{"can_delete_book", "can_add_book"}
	users.On("GetByID", mock.Anything, user.ID).Return(&granted, nil)
	admin := accounts.NewService(users, nil, 4, zap.NewNop())
	var out bytes.Buffer

	err := changePermission(context.Background(), &out, users, admin.GrantPermission, "bob", "can_add_book")

	require.NoError(t, err)
	assert.Equal(t, "bob role=librarian permissions=can_add_book,can_delete_book\n", out.String())
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) LogRoleAssigned(origin audit.Origin, user *models.User) error {
	return m.Called(origin, user).Error(0)
}

func (m *MockRecorder) LogPermissionGranted(origin audit.Origin, user *models.User, permission string) error {
	return m.Called(origin, user, permission).Error(0)
}

func (m *MockRecorder) LogPermissionRevoked(origin audit.Origin, user *models.User, permission string) error {
	return m.Called(origin, user, permission).Error(0)
}

func TestAuditedAdmin(t *testing.T) {
	ctx := context.Background()
	user := models.NewUser("erin", "erin@example.com", "hash", "member")

	t.Run("records changes without an actor", func(t *testing.T) {
		users := new(mocks.UserRepository)
		users.On("Exists", mock.Anything, user.ID).Return(true, nil)
		users.On("RevokePermission", mock.Anything, user.ID, "can_delete_book").Return(nil)
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		trail := new(MockRecorder)
		trail.On("LogPermissionRevoked", audit.Origin{}, user, "can_delete_book").Return(nil).Once()
		admin := auditedAdmin{userAdmin: accounts.NewService(users, nil, 4, zap.NewNop()), trail: trail, logger: zap.NewNop()}

		_, err := admin.RevokePermission(ctx, user.ID, "Can_Delete_Book")

		require.NoError(t, err)
		trail.AssertExpectations(t)
	})

	t.Run("failed change is not recorded", func(t *testing.T) {
		users := new(mocks.UserRepository)
		trail := new(MockRecorder)
		admin := auditedAdmin{userAdmin: accounts.NewService(users, nil, 4, zap.NewNop()), trail: trail, logger: zap.NewNop()}

		_, err := admin.SetRole(ctx, user.ID, "owner")

		assert.True(t, services.IsValidationError(err))
		trail.AssertNotCalled(t, "LogRoleAssigned", mock.Anything, mock.Anything)
	})
}

func TestRunServers_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := &http.Server{Addr: freeAddr(t), Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServers(ctx, zap.NewNop(), time.Second, srv) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", srv.Addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("servers did not stop")
	}
}

func TestRunServers_ListenFailureStopsOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	ok := &http.Server{Addr: freeAddr(t), Handler: http.NotFoundHandler()}
	clash := &http.Server{Addr: busy.Addr().String(), Handler: http.NotFoundHandler()}

	err = runServers(context.Background(), zap.NewNop(), time.Second, ok, clash)

	require.Error(t, err)
	assert.Contains(t, err.Error(), busy.Addr().String())
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}
