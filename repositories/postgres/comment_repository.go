package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"go.uber.org/zap"
)

// CommentRepository implements repositories.CommentRepository
type CommentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *DB, logger *zap.Logger) *CommentRepository {
	return &CommentRepository{db: db, logger: logger}
}

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at, c.updated_at
	FROM comments c
	JOIN users u ON u.id = c.author_id
`

func scanComment(row rowScanner) (*models.Comment, error) {
	c := &models.Comment{}
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, comment.ID, comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return mapError("create comment", err)
	}
	return nil
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(GetExecutor(ctx, r.db).QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, mapError("get comment", err)
	}
	return c, nil
}

// ListByPost returns a post's comments newest first, and the total count
func (r *CommentRepository) ListByPost(ctx context.Context, postID uuid.UUID, opts repositories.ListOptions) ([]*models.Comment, int, error) {
	opts = clampList(opts)
	executor := GetExecutor(ctx, r.db)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return nil, 0, mapError("count comments", err)
	}

	rows, err := executor.QueryContext(ctx,
		commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at DESC, c.id DESC LIMIT $2 OFFSET $3`,
		postID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, mapError("list comments", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0, opts.Limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, mapError("scan comment", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("iterate comments", err)
	}
	return comments, total, nil
}

// Update updates the comment body
func (r *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now().UTC()
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		comment.ID, comment.Content, comment.UpdatedAt,
	)
	if err != nil {
		return mapError("update comment", err)
	}
	return requireAffected("update comment", res)
}

// Delete deletes a comment
func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return mapError("delete comment", err)
	}
	return requireAffected("delete comment", res)
}
