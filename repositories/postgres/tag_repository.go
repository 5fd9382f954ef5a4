package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"go.uber.org/zap"
)

// TagRepository implements repositories.TagRepository
type TagRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *DB, logger *zap.Logger) *TagRepository {
	return &TagRepository{db: db, logger: logger}
}

// Ensure inserts missing tags and returns the stored row for each slug.
// The no-op DO UPDATE makes RETURNING yield rows that already existed.
func (r *TagRepository) Ensure(ctx context.Context, tags []*models.Tag) ([]*models.Tag, error) {
	executor := GetExecutor(ctx, r.db)

	out := make([]*models.Tag, 0, len(tags))
	for _, tag := range tags {
		stored := &models.Tag{}
		err := executor.QueryRowContext(ctx, `
			INSERT INTO tags (id, name, slug)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
			RETURNING id, name, slug
		`, tag.ID, tag.Name, tag.Slug).Scan(&stored.ID, &stored.Name, &stored.Slug)
		if err != nil {
			return nil, mapError("ensure tag", err)
		}
		out = append(out, stored)
	}
	return out, nil
}

// GetBySlug retrieves a tag by slug
func (r *TagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	tag := &models.Tag{}
	err := GetExecutor(ctx, r.db).
		QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = $1`, slug).
		Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err != nil {
		return nil, mapError("get tag", err)
	}
	return tag, nil
}

// SetForPost replaces the post's tag set
func (r *TagRepository) SetForPost(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return mapError("clear post tags", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := executor.ExecContext(ctx, `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, postID, uuidArray(tagIDs))
	if err != nil {
		return mapError("set post tags", err)
	}

	r.logger.Debug("post tags set", zap.String("post_id", postID.String()), zap.Int("count", len(tagIDs)))
	return nil
}

// ListForPosts returns tags keyed by post id, ordered by name
func (r *TagRepository) ListForPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]*models.Tag, error) {
	out := make(map[uuid.UUID][]*models.Tag, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT pt.post_id, t.id, t.name, t.slug
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1::uuid[])
		ORDER BY t.name
	`, uuidArray(postIDs))
	if err != nil {
		return nil, mapError("list post tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID uuid.UUID
		tag := &models.Tag{}
		if err := rows.Scan(&postID, &tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, mapError("scan post tag", err)
		}
		out[postID] = append(out[postID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate post tags", err)
	}
	return out, nil
}
