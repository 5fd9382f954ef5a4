package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/repositories/postgres"
	"github.com/upb/readers-hub/services/accounts"
	"github.com/upb/readers-hub/services/audit"
	"github.com/upb/readers-hub/services/authz"
	"go.uber.org/zap"
)

// userAdmin is the part of accounts.Service used by the users commands
type userAdmin interface {
	SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error)
	GrantPermission(ctx context.Context, id uuid.UUID, permission string) (*models.User, error)
	RevokePermission(ctx context.Context, id uuid.UUID, permission string) (*models.User, error)
}

type permissionOp func(ctx context.Context, id uuid.UUID, permission string) (*models.User, error)

// changeRecorder is the part of audit.Service used by auditedAdmin
type changeRecorder interface {
	LogRoleAssigned(origin audit.Origin, user *models.User) error
	LogPermissionGranted(origin audit.Origin, user *models.User, permission string) error
	LogPermissionRevoked(origin audit.Origin, user *models.User, permission string) error
}

// auditedAdmin records each successful change with no actor
type auditedAdmin struct {
	userAdmin
	trail  changeRecorder
	logger *zap.Logger
}

func (a auditedAdmin) SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	user, err := a.userAdmin.SetRole(ctx, id, role)
	if err == nil {
		a.record(a.trail.LogRoleAssigned(audit.Origin{}, user))
	}
	return user, err
}

func (a auditedAdmin) GrantPermission(ctx context.Context, id uuid.UUID, permission string) (*models.User, error) {
	user, err := a.userAdmin.GrantPermission(ctx, id, permission)
	if err == nil {
		a.record(a.trail.LogPermissionGranted(audit.Origin{}, user, canonicalPermission(permission)))
	}
	return user, err
}

func (a auditedAdmin) RevokePermission(ctx context.Context, id uuid.UUID, permission string) (*models.User, error) {
	user, err := a.userAdmin.RevokePermission(ctx, id, permission)
	if err == nil {
		a.record(a.trail.LogPermissionRevoked(audit.Origin{}, user, canonicalPermission(permission)))
	}
	return user, err
}

func (a auditedAdmin) record(err error) {
	if err != nil {
		a.logger.Warn("failed to record audit entry", zap.Error(err))
	}
}

func canonicalPermission(s string) string {
	if p, err := authz.ParsePermission(s); err == nil {
		return string(p)
	}
	return s
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Assign roles and permissions",
	Long: `Administer accounts directly against the database. Useful for
bootstrapping the first admin before any admin can log in.

Example:
  readers-hub users set-role alice admin
  readers-hub users grant bob can_add_book`,
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <username> <role>",
	Short: "Replace a user's primary role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccounts(cmd.Context(), func(ctx context.Context, users repositories.UserRepository, admin userAdmin) error {
			return setRole(ctx, cmd.OutOrStdout(), users, admin, args[0], args[1])
		})
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <username> <permission>",
	Short: "Grant a model permission",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccounts(cmd.Context(), func(ctx context.Context, users repositories.UserRepository, admin userAdmin) error {
			return changePermission(ctx, cmd.OutOrStdout(), users, admin.GrantPermission, args[0], args[1])
		})
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <username> <permission>",
	Short: "Revoke a model permission",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccounts(cmd.Context(), func(ctx context.Context, users repositories.UserRepository, admin userAdmin) error {
			return changePermission(ctx, cmd.OutOrStdout(), users, admin.RevokePermission, args[0], args[1])
		})
	},
}

func init() {
	usersCmd.AddCommand(setRoleCmd, grantCmd, revokeCmd)
	rootCmd.AddCommand(usersCmd)
}

func withAccounts(ctx context.Context, fn func(ctx context.Context, users repositories.UserRepository, admin userAdmin) error) error {
	cfg, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := postgres.NewRepositoryFactoryFromDB(db, logger).NewRepositories()
	trail := audit.NewService(repos.AuditLogs, logger, audit.Config{BufferSize: 16, WorkerCount: 1})
	if err := trail.Start(); err != nil {
		return err
	}
	defer func() {
		if err := trail.Stop(5 * time.Second); err != nil {
			logger.Warn("audit entries may be lost", zap.Error(err))
		}
	}()

	admin := auditedAdmin{
		userAdmin: accounts.NewService(repos.Users, nil, cfg.Auth.BcryptCost, logger),
		trail:     trail,
		logger:    logger,
	}
	return fn(ctx, repos.Users, admin)
}

func setRole(ctx context.Context, out io.Writer, users repositories.UserRepository, admin userAdmin, username, role string) error {
	user, err := lookupUser(ctx, users, username)
	if err != nil {
		return err
	}
	updated, err := admin.SetRole(ctx, user.ID, role)
	if err != nil {
		return err
	}
	printUser(out, updated)
	return nil
}

func changePermission(ctx context.Context, out io.Writer, users repositories.UserRepository, op permissionOp, username, permission string) error {
	user, err := lookupUser(ctx, users, username)
	if err != nil {
		return err
	}
	updated, err := op(ctx, user.ID, permission)
	if err != nil {
		return err
	}
	printUser(out, updated)
	return nil
}

func lookupUser(ctx context.Context, users repositories.UserRepository, username string) (*models.User, error) {
	user, err := users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("no user named %q", username)
		}
		return nil, err
	}
	return user, nil
}

func printUser(out io.Writer, u *models.User) {
	perms := "-"
	if sorted := u.SortedPermissions(); len(sorted) > 0 {
		perms = strings.Join(sorted, ",")
	}
	fmt.Fprintf(out, "%s role=%s permissions=%s\n", u.Username, u.Role, perms)
}
