package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/readers-hub/config"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services/authz"
	"github.com/upb/readers-hub/services/social"
	"go.uber.org/zap"
)

// PostRequest is the body of post create and update. Omitting tags on
// update keeps the current ones; an empty list clears them.
type PostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// CommentRequest is the body of comment create and update
type CommentRequest struct {
	Content string `json:"content"`
}

// SocialService defines the post, comment and feed operations used by SocialHandler
type SocialService interface {
	ListPosts(ctx context.Context, query string, opts repositories.ListOptions) ([]*models.Post, int, error)
	ListPostsByTag(ctx context.Context, slug string, opts repositories.ListOptions) ([]*models.Post, int, error)
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	CreatePost(ctx context.Context, actor authz.Actor, in social.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, actor authz.Actor, id uuid.UUID, in social.PostInput) (*models.Post, error)
	DeletePost(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	ListComments(ctx context.Context, postID uuid.UUID, opts repositories.ListOptions) ([]*models.Comment, int, error)
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	CreateComment(ctx context.Context, actor authz.Actor, postID uuid.UUID, content string) (*models.Comment, error)
	UpdateComment(ctx context.Context, actor authz.Actor, id uuid.UUID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	Feed(ctx context.Context, actor authz.Actor, opts repositories.ListOptions) ([]*models.Post, int, error)
}

// SocialHandler handles posts, comments, tags and the follow feed
type SocialHandler struct {
	social SocialService
	pager  pager
	logger *zap.Logger
}

// NewSocialHandler creates a new SocialHandler
func NewSocialHandler(svc SocialService, pagination config.PaginationConfig, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{social: svc, pager: newPager(pagination), logger: logger}
}

// HandleListPosts handles GET /api/v1/posts?q=
func (h *SocialHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}
	posts, total, err := h.social.ListPosts(r.Context(), r.URL.Query().Get("q"), page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writePage(w, page, total, posts, h.logger)
}

// HandleListPostsByTag handles GET /api/v1/tags/{slug}/posts
func (h *SocialHandler) HandleListPostsByTag(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}
	posts, total, err := h.social.ListPostsByTag(r.Context(), chi.URLParam(r, "slug"), page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writePage(w, page, total, posts, h.logger)
}

// HandleGetPost handles GET /api/v1/posts/{id}
func (h *SocialHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	post, err := h.social.GetPost(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, post, h.logger)
}

// HandleCreatePost handles POST /api/v1/posts
func (h *SocialHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req PostRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	post, err := h.social.CreatePost(r.Context(), actor, req.input())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, post, h.logger)
}

// HandleUpdatePost handles PUT /api/v1/posts/{id}
func (h *SocialHandler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req PostRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	post, err := h.social.UpdatePost(r.Context(), actor, id, req.input())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, post, h.logger)
}

// HandleDeletePost handles DELETE /api/v1/posts/{id}
func (h *SocialHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.social.DeletePost(r.Context(), actor, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListComments handles GET /api/v1/posts/{id}/comments
func (h *SocialHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}
	comments, total, err := h.social.ListComments(r.Context(), postID, page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writePage(w, page, total, comments, h.logger)
}

// HandleCreateComment handles POST /api/v1/posts/{id}/comments
func (h *SocialHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	postID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req CommentRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	comment, err := h.social.CreateComment(r.Context(), actor, postID, req.Content)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, comment, h.logger)
}

// HandleGetComment handles GET /api/v1/comments/{id}
func (h *SocialHandler) HandleGetComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	comment, err := h.social.GetComment(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, comment, h.logger)
}

// HandleUpdateComment handles PUT /api/v1/comments/{id}
func (h *SocialHandler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req CommentRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	comment, err := h.social.UpdateComment(r.Context(), actor, id, req.Content)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, comment, h.logger)
}

// HandleDeleteComment handles DELETE /api/v1/comments/{id}
func (h *SocialHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.social.DeleteComment(r.Context(), actor, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFeed handles GET /api/v1/feed
func (h *SocialHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}
	posts, total, err := h.social.Feed(r.Context(), actor, page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writePage(w, page, total, posts, h.logger)
}

// input also splits comma-separated entries, so "dune, classics" is two tags
func (req PostRequest) input() social.PostInput {
	in := social.PostInput{Title: req.Title, Content: req.Content}
	if req.Tags != nil {
		in.Tags = []string{}
		for _, entry := range req.Tags {
			in.Tags = append(in.Tags, models.SplitTagList(entry)...)
		}
	}
	return in
}
