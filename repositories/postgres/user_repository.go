package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"go.uber.org/zap"
)

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.bio, u.role, u.created_at, u.updated_at,
	COALESCE(array_agg(p.permission ORDER BY p.permission) FILTER (WHERE p.permission IS NOT NULL), '{}')
`

const userFrom = `
	FROM users u
	LEFT JOIN user_permissions p ON p.user_id = u.id
`

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var perms []string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Bio,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
		pq.Array(&perms),
	)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	user.Permissions = perms
	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, bio, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Bio,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapError("create user", err)
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + userFrom + ` WHERE u.id = $1 GROUP BY u.id`

	user, err := scanUser(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("get user", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + userFrom + ` WHERE u.username = $1 GROUP BY u.id`

	user, err := scanUser(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, mapError("get user by username", err)
	}
	return user, nil
}

// Exists reports whether a user with the id exists
func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := GetExecutor(ctx, r.db).
		QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).
		Scan(&exists)
	if err != nil {
		return false, mapError("check user exists", err)
	}
	return exists, nil
}

// List retrieves users ordered by username
func (r *UserRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.User, int, error) {
	opts = clampList(opts)
	executor := GetExecutor(ctx, r.db)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, mapError("count users", err)
	}

	query := `SELECT ` + userColumns + userFrom + `
		GROUP BY u.id
		ORDER BY u.username
		LIMIT $1 OFFSET $2
	`
	rows, err := executor.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, mapError("list users", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, opts.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, mapError("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("iterate users", err)
	}
	return users, total, nil
}

// UpdateProfile updates user-editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET bio = $2, updated_at = $3 WHERE id = $1`,
		user.ID, user.Bio, user.UpdatedAt,
	)
	if err != nil {
		return mapError("update profile", err)
	}
	return requireAffected("update profile", res)
}

// SetRole replaces the user's primary role
func (r *UserRepository) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		id, role, time.Now().UTC(),
	)
	if err != nil {
		return mapError("set role", err)
	}
	if err := requireAffected("set role", res); err != nil {
		return err
	}

	r.logger.Info("user role changed", zap.String("id", id.String()), zap.String("role", role))
	return nil
}

// GrantPermission adds a permission; granting twice is a no-op
func (r *UserRepository) GrantPermission(ctx context.Context, id uuid.UUID, permission string) error {
	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO user_permissions (user_id, permission, granted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, permission) DO NOTHING
	`, id, permission, time.Now().UTC())
	if err != nil {
		return mapError("grant permission", err)
	}

	r.logger.Info("permission granted", zap.String("id", id.String()), zap.String("permission", permission))
	return nil
}

// RevokePermission removes a permission; revoking an absent one is a no-op
func (r *UserRepository) RevokePermission(ctx context.Context, id uuid.UUID, permission string) error {
	_, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM user_permissions WHERE user_id = $1 AND permission = $2`,
		id, permission,
	)
	if err != nil {
		return mapError("revoke permission", err)
	}

	r.logger.Info("permission revoked", zap.String("id", id.String()), zap.String("permission", permission))
	return nil
}
