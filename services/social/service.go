// Package social implements posts, comments, the follow feed and follow
// management on top of the authorization engine.
package social

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services"
	"github.com/upb/readers-hub/services/authz"
	"go.uber.org/zap"
)

// Resource kinds used in ownership checks
const (
	KindPost    = "post"
	KindComment = "comment"
)

// Notifier stores activity notifications
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// maxTagsPerPost bounds the tag list of one post
const maxTagsPerPost = 20

// PostInput carries user-editable post fields. On update a nil Tags keeps
// the current tags and an empty one clears them.
type PostInput struct {
	Title   string
	Content string
	Tags    []string
}

// Deps groups the collaborators of Service
type Deps struct {
	Posts      repositories.PostRepository
	Comments   repositories.CommentRepository
	Tags       repositories.TagRepository
	Graph      *authz.FollowGraph
	Authorizer *authz.Authorizer
	Notifier   Notifier
	TxManager  repositories.TransactionManager // optional
	Logger     *zap.Logger
}

// Service owns posts, comments and follow-driven reads
type Service struct {
	posts      repositories.PostRepository
	comments   repositories.CommentRepository
	tags       repositories.TagRepository
	graph      *authz.FollowGraph
	authorizer *authz.Authorizer
	notifier   Notifier
	txMgr      repositories.TransactionManager
	logger     *zap.Logger
}

// NewService creates a new social service
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		posts:      d.Posts,
		comments:   d.Comments,
		tags:       d.Tags,
		graph:      d.Graph,
		authorizer: d.Authorizer,
		notifier:   d.Notifier,
		txMgr:      d.TxManager,
		logger:     logger,
	}
}

// ListPosts lists posts newest first, optionally filtered by a search query
func (s *Service) ListPosts(ctx context.Context, query string, opts repositories.ListOptions) ([]*models.Post, int, error) {
	posts, total, err := s.posts.List(ctx, repositories.PostFilter{
		Query:       strings.TrimSpace(query),
		ListOptions: opts,
	})
	if err != nil {
		return nil, 0, services.WrapStorage("failed to list posts", err)
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListPostsByTag lists posts carrying the tag with slug, newest first.
// An unknown slug is NotFound rather than an empty page.
func (s *Service) ListPostsByTag(ctx context.Context, slug string, opts repositories.ListOptions) ([]*models.Post, int, error) {
	tag, err := s.tags.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, 0, services.ErrTagNotFound.WithDetail("slug", slug)
		}
		return nil, 0, services.WrapStorage("failed to resolve tag", err)
	}

	posts, total, err := s.posts.List(ctx, repositories.PostFilter{
		TagID:       &tag.ID,
		ListOptions: opts,
	})
	if err != nil {
		return nil, 0, services.WrapStorage("failed to list posts", err)
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetPost returns a single post with its tags
func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) loadPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, postError(err, id)
	}
	return post, nil
}

// CreatePost creates a post authored by actor. The author is always the actor.
func (s *Service) CreatePost(ctx context.Context, actor authz.Actor, in PostInput) (*models.Post, error) {
	if err := validatePost(in); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	post := models.NewPost(actor.ID, strings.TrimSpace(in.Title), in.Content)
	post.Tags = []*models.Tag{}
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.posts.Create(ctx, post); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return services.ErrUserNotFound.WithDetail("user_id", actor.ID.String())
			}
			return services.WrapStorage("failed to create post", err)
		}
		if len(tags) == 0 {
			return nil
		}
		stored, err := s.setTags(ctx, post.ID, tags)
		if err != nil {
			return err
		}
		post.Tags = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		zap.String("post_id", post.ID.String()),
		zap.String("author_id", actor.ID.String()))
	return post, nil
}

// UpdatePost replaces title and content. Only the author may update.
func (s *Service) UpdatePost(ctx context.Context, actor authz.Actor, id uuid.UUID, in PostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.RequireOwnership(actor, authz.OwnedBy(KindPost, post.ID, post.AuthorID), authz.ActionUpdate); err != nil {
		return nil, err
	}
	if err := validatePost(in); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	post.Title = strings.TrimSpace(in.Title)
	post.Content = in.Content
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.posts.Update(ctx, post); err != nil {
			return postError(err, id)
		}
		if in.Tags == nil {
			return nil
		}
		stored, err := s.setTags(ctx, post.ID, tags)
		if err != nil {
			return err
		}
		post.Tags = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost deletes a post. Only the author may delete.
func (s *Service) DeletePost(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	post, err := s.loadPost(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizer.RequireOwnership(actor, authz.OwnedBy(KindPost, post.ID, post.AuthorID), authz.ActionDelete); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return postError(err, id)
	}

	s.logger.Info("post deleted", zap.String("post_id", id.String()))
	return nil
}

// ListComments lists a post's comments newest first
func (s *Service) ListComments(ctx context.Context, postID uuid.UUID, opts repositories.ListOptions) ([]*models.Comment, int, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, 0, err
	}
	list, total, err := s.comments.ListByPost(ctx, postID, opts)
	if err != nil {
		return nil, 0, services.WrapStorage("failed to list comments", err)
	}
	return list, total, nil
}

// GetComment returns a single comment
func (s *Service) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, commentError(err, id)
	}
	return c, nil
}

// CreateComment adds actor's comment to a post and notifies the post author.
// The comment and its notification are written together.
func (s *Service) CreateComment(ctx context.Context, actor authz.Actor, postID uuid.UUID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, services.ErrInvalidInput.WithDetail("content", "required")
	}

	var comment *models.Comment
	err := s.inTx(ctx, func(ctx context.Context) error {
		post, err := s.loadPost(ctx, postID)
		if err != nil {
			return err
		}

		comment = models.NewComment(post.ID, actor.ID, content)
		if err := s.comments.Create(ctx, comment); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return services.ErrPostNotFound.WithDetail("post_id", postID.String())
			}
			return services.WrapStorage("failed to create comment", err)
		}

		if s.notifier == nil {
			return nil
		}
		n := models.NewNotification(post.AuthorID, actor.ID, models.VerbCommentedOnPost).
			WithTarget(KindPost, post.ID)
		return s.notifier.Notify(ctx, n)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("post_id", postID.String()))
	return comment, nil
}

// UpdateComment replaces a comment's content. Only its author may update.
func (s *Service) UpdateComment(ctx context.Context, actor authz.Actor, id uuid.UUID, content string) (*models.Comment, error) {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.RequireOwnership(actor, authz.OwnedBy(KindComment, c.ID, c.AuthorID), authz.ActionUpdate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, services.ErrInvalidInput.WithDetail("content", "required")
	}

	c.Content = content
	if err := s.comments.Update(ctx, c); err != nil {
		return nil, commentError(err, id)
	}
	return c, nil
}

// DeleteComment deletes a comment. Only its author may delete.
func (s *Service) DeleteComment(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizer.RequireOwnership(actor, authz.OwnedBy(KindComment, c.ID, c.AuthorID), authz.ActionDelete); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return commentError(err, id)
	}
	return nil
}

// Feed returns posts by the actors actor follows, newest first. Following
// nobody yields an empty feed.
func (s *Service) Feed(ctx context.Context, actor authz.Actor, opts repositories.ListOptions) ([]*models.Post, int, error) {
	following, err := s.graph.FollowingSet(ctx, actor.ID)
	if err != nil {
		return nil, 0, err
	}
	if following == nil {
		following = []uuid.UUID{}
	}

	posts, total, err := s.posts.List(ctx, repositories.PostFilter{
		AuthorIDs:   following,
		ListOptions: opts,
	})
	if err != nil {
		return nil, 0, services.WrapStorage("failed to load feed", err)
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Follow makes actor follow target
func (s *Service) Follow(ctx context.Context, actor authz.Actor, targetID uuid.UUID) error {
	return s.graph.Follow(ctx, actor, targetID)
}

// Unfollow removes actor's follow of target
func (s *Service) Unfollow(ctx context.Context, actor authz.Actor, targetID uuid.UUID) error {
	return s.graph.Unfollow(ctx, actor, targetID)
}

// Following lists the ids actor follows
func (s *Service) Following(ctx context.Context, actor authz.Actor) ([]uuid.UUID, error) {
	return s.graph.FollowingSet(ctx, actor.ID)
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txMgr == nil {
		return fn(ctx)
	}
	return services.WithTransaction(ctx, s.txMgr, fn)
}

// setTags resolves tags by slug, creating missing ones, and makes them the
// post's whole tag set
func (s *Service) setTags(ctx context.Context, postID uuid.UUID, tags []*models.Tag) ([]*models.Tag, error) {
	stored := []*models.Tag{}
	if len(tags) > 0 {
		var err error
		if stored, err = s.tags.Ensure(ctx, tags); err != nil {
			return nil, services.WrapStorage("failed to save tags", err)
		}
	}

	ids := make([]uuid.UUID, len(stored))
	for i, t := range stored {
		ids[i] = t.ID
	}
	if err := s.tags.SetForPost(ctx, postID, ids); err != nil {
		return nil, postError(err, postID)
	}
	return stored, nil
}

func (s *Service) attachTags(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	byPost, err := s.tags.ListForPosts(ctx, ids)
	if err != nil {
		return services.WrapStorage("failed to load post tags", err)
	}
	for _, p := range posts {
		p.Tags = byPost[p.ID]
		if p.Tags == nil {
			p.Tags = []*models.Tag{}
		}
	}
	return nil
}

// normalizeTags turns names into tags, one per slug, keeping first spellings
func normalizeTags(names []string) ([]*models.Tag, error) {
	var out []*models.Tag
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len(name) > models.MaxTagNameLength {
			return nil, services.ErrInvalidInput.WithDetail("tags", "tag names must be at most 50 characters")
		}
		tag := models.NewTag(name)
		if tag.Slug == "" {
			return nil, services.ErrInvalidInput.WithDetail("tags", "tag names need a letter or digit")
		}
		if seen[tag.Slug] {
			continue
		}
		seen[tag.Slug] = true
		out = append(out, tag)
	}
	if len(out) > maxTagsPerPost {
		return nil, services.ErrInvalidInput.WithDetail("tags", "too many tags")
	}
	return out, nil
}

func validatePost(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return services.ErrInvalidInput.WithDetail("title", "required")
	}
	if len(in.Title) > 200 {
		return services.ErrInvalidInput.WithDetail("title", "must be at most 200 characters")
	}
	if strings.TrimSpace(in.Content) == "" {
		return services.ErrInvalidInput.WithDetail("content", "required")
	}
	return nil
}

func postError(err error, id uuid.UUID) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrPostNotFound.WithDetail("post_id", id.String())
	}
	return services.WrapStorage("post storage failure", err)
}

func commentError(err error, id uuid.UUID) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrCommentNotFound.WithDetail("comment_id", id.String())
	}
	return services.WrapStorage("comment storage failure", err)
}
