package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FollowRepository implements repositories.FollowRepository
type FollowRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *DB, logger *zap.Logger) *FollowRepository {
	return &FollowRepository{db: db, logger: logger}
}

// Add inserts the edge. The primary key makes a concurrent duplicate insert
// a no-op instead of an error.
func (r *FollowRepository) Add(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`, followerID, followeeID, time.Now().UTC())
	if err != nil {
		return false, mapError("add follow", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError("add follow", err)
	}
	return n == 1, nil
}

// Remove deletes the edge and reports whether it existed
func (r *FollowRepository) Remove(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
		followerID, followeeID,
	)
	if err != nil {
		return false, mapError("remove follow", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError("remove follow", err)
	}
	return n > 0, nil
}

// Exists reports whether the edge exists
func (r *FollowRepository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var exists bool
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`,
		followerID, followeeID,
	).Scan(&exists)
	if err != nil {
		return false, mapError("check follow", err)
	}
	return exists, nil
}

// ListFollowing returns the ids followerID follows, oldest edge first
func (r *FollowRepository) ListFollowing(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, "list following",
		`SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY created_at, followee_id`,
		followerID,
	)
}

// ListFollowers returns the ids following followeeID, oldest edge first
func (r *FollowRepository) ListFollowers(ctx context.Context, followeeID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, "list followers",
		`SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY created_at, follower_id`,
		followeeID,
	)
}

func (r *FollowRepository) listIDs(ctx context.Context, op, query string, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, id)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var other uuid.UUID
		if err := rows.Scan(&other); err != nil {
			return nil, mapError(op, err)
		}
		ids = append(ids, other)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return ids, nil
}
