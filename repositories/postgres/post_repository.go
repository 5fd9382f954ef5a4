package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"go.uber.org/zap"
)

// PostRepository implements repositories.PostRepository
type PostRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *DB, logger *zap.Logger) *PostRepository {
	return &PostRepository{db: db, logger: logger}
}

const postSelect = `
	SELECT p.id, p.author_id, u.username, p.title, p.content, p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.AuthorUsername,
		&post.Title,
		&post.Content,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO posts (id, author_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, post.ID, post.AuthorID, post.Title, post.Content, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return mapError("create post", err)
	}

	r.logger.Debug("post created", zap.String("id", post.ID.String()), zap.String("author_id", post.AuthorID.String()))
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := scanPost(GetExecutor(ctx, r.db).QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapError("get post", err)
	}
	return post, nil
}

// List returns posts newest first, and the total matching count
func (r *PostRepository) List(ctx context.Context, filter repositories.PostFilter) ([]*models.Post, int, error) {
	opts := clampList(filter.ListOptions)
	if filter.AuthorIDs != nil && len(filter.AuthorIDs) == 0 {
		return []*models.Post{}, 0, nil
	}

	var (
		conds []string
		args  []interface{}
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, likePattern(q))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d OR u.username ILIKE $%d)", n, n, n))
	}
	if filter.AuthorIDs != nil {
		args = append(args, uuidArray(filter.AuthorIDs))
		conds = append(conds, fmt.Sprintf("p.author_id = ANY($%d::uuid[])", len(args)))
	}
	if filter.TagID != nil {
		args = append(args, *filter.TagID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = $%d)", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	executor := GetExecutor(ctx, r.db)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p JOIN users u ON u.id = p.author_id`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError("count posts", err)
	}

	query := postSelect + where + fmt.Sprintf(
		" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := executor.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, mapError("list posts", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0, opts.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, mapError("scan post", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("iterate posts", err)
	}
	return posts, total, nil
}

// Update updates title and content
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE posts SET title = $2, content = $3, updated_at = $4 WHERE id = $1`,
		post.ID, post.Title, post.Content, post.UpdatedAt,
	)
	if err != nil {
		return mapError("update post", err)
	}
	return requireAffected("update post", res)
}

// Delete deletes a post and, by cascade, its comments
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return mapError("delete post", err)
	}
	return requireAffected("delete post", res)
}
