package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/repositories/mocks"
	"github.com/upb/readers-hub/services/authz"
	"github.com/upb/readers-hub/services/notifications"
	"github.com/upb/readers-hub/services/social"
	"github.com/upb/readers-hub/utils"
	"go.uber.org/zap"
)

type socialFixture struct {
	posts         *mocks.PostRepository
	comments      *mocks.CommentRepository
	tags          *mocks.TagRepository
	users         *mocks.UserRepository
	follows       *mocks.FollowRepository
	notifications *mocks.NotificationRepository
}

func newSocialFixture() *socialFixture {
	f := &socialFixture{
		posts:         new(mocks.PostRepository),
		comments:      new(mocks.CommentRepository),
		tags:          new(mocks.TagRepository),
		users:         new(mocks.UserRepository),
		follows:       new(mocks.FollowRepository),
		notifications: new(mocks.NotificationRepository),
	}
	f.tags.On("ListForPosts", mock.Anything, mock.Anything).Return(map[uuid.UUID][]*models.Tag{}, nil).Maybe()
	return f
}

func (f *socialFixture) service() *social.Service {
	notifier := notifications.NewService(f.notifications, zap.NewNop())
	graph := authz.NewFollowGraph(f.users, f.follows, zap.NewNop(), authz.WithObserver(notifier))
	return social.NewService(social.Deps{
		Posts:      f.posts,
		Comments:   f.comments,
		Tags:       f.tags,
		Graph:      graph,
		Authorizer: authz.NewAuthorizer(zap.NewNop(), nil),
		Notifier:   notifier,
		Logger:     zap.NewNop(),
	})
}

func (f *socialFixture) router(actor *authz.Actor) http.Handler {
	h := NewSocialHandler(f.service(), testPagination, zap.NewNop())
	return newRouter(actor, func(r chi.Router) {
		r.Get("/posts", h.HandleListPosts)
		r.Post("/posts", h.HandleCreatePost)
		r.Get("/posts/{id}", h.HandleGetPost)
		r.Put("/posts/{id}", h.HandleUpdatePost)
		r.Delete("/posts/{id}", h.HandleDeletePost)
		r.Get("/posts/{id}/comments", h.HandleListComments)
		r.Post("/posts/{id}/comments", h.HandleCreateComment)
		r.Put("/comments/{id}", h.HandleUpdateComment)
		r.Delete("/comments/{id}", h.HandleDeleteComment)
		r.Get("/feed", h.HandleFeed)
		r.Get("/tags/{slug}/posts", h.HandleListPostsByTag)
	})
}

func TestCreatePost(t *testing.T) {
	f := newSocialFixture()
	actor := authz.NewActor(uuid.New(), authz.RoleMember)
	f.posts.On("Create", mock.Anything, mock.AnythingOfType("*models.Post")).Return(nil)

	w := do(f.router(&actor), http.MethodPost, "/posts", `{"title":"On Kindred","content":"A first read."}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var post models.Post
	decodeData(t, w, &post)
	assert.Equal(t, actor.ID, post.AuthorID)
	assert.Equal(t, "On Kindred", post.Title)
}

func TestCreatePost_WithTags(t *testing.T) {
	f := newSocialFixture()
	actor := authz.NewActor(uuid.New(), authz.RoleMember)
	dune := &models.Tag{ID: uuid.New(), Name: "Dune", Slug: "dune"}
	f.posts.On("Create", mock.Anything, mock.AnythingOfType("*models.Post")).Return(nil)
	f.tags.On("Ensure", mock.Anything, mock.MatchedBy(func(tags []*models.Tag) bool {
		return len(tags) == 1 && tags[0].Slug == "dune"
	})).Return([]*models.Tag{dune}, nil)
	f.tags.On("SetForPost", mock.Anything, mock.Anything, []uuid.UUID{dune.ID}).Return(nil)

	w := do(f.router(&actor), http.MethodPost, "/posts", `{"title":"Arrakis","content":"spice","tags":["Dune, dune ",""]}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var post models.Post
	decodeData(t, w, &post)
	require.Len(t, post.Tags, 1)
	assert.Equal(t, "dune", post.Tags[0].Slug)
	f.tags.AssertExpectations(t)
}

func TestListPostsByTag(t *testing.T) {
	f := newSocialFixture()
	tag := &models.Tag{ID: uuid.New(), Name: "Dune", Slug: "dune"}
	f.tags.On("GetBySlug", mock.Anything, "dune").Return(tag, nil)
	f.tags.On("GetBySlug", mock.Anything, "unknown").Return(nil, repositories.ErrNotFound)
	f.posts.On("List", mock.Anything, mock.MatchedBy(func(filter repositories.PostFilter) bool {
		return filter.TagID != nil && *filter.TagID == tag.ID
	})).Return([]*models.Post{models.NewPost(uuid.New(), "Arrakis", "spice")}, 1, nil)

	w := do(f.router(nil), http.MethodGet, "/tags/dune/posts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page utils.PageResponse
	decodeData(t, w, &page)
	assert.Equal(t, 1, page.Count)

	w = do(f.router(nil), http.MethodGet, "/tags/unknown/posts", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePost_Validation(t *testing.T) {
	f := newSocialFixture()
	actor := authz.NewActor(uuid.New(), authz.RoleMember)

	w := do(f.router(&actor), http.MethodPost, "/posts", `{"title":"","content":"body"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Details, "title")
	f.posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePost_Unauthenticated(t *testing.T) {
	w := do(newSocialFixture().router(nil), http.MethodPost, "/posts", `{"title":"t","content":"c"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListPosts_PassesQuery(t *testing.T) {
	f := newSocialFixture()
	f.posts.On("List", mock.Anything, repositories.PostFilter{
		Query:       "dune",
		ListOptions: repositories.ListOptions{Limit: 5, Offset: 0},
	}).Return([]*models.Post{}, 0, nil)

	w := do(f.router(nil), http.MethodGet, "/posts?q=dune", "")

	require.Equal(t, http.StatusOK, w.Code)
	var page utils.PageResponse
	decodeData(t, w, &page)
	assert.Equal(t, 0, page.Count)
	assert.Equal(t, 1, page.Page)
}

func TestUpdatePost_Ownership(t *testing.T) {
	owner := authz.NewActor(uuid.New(), authz.RoleMember)
	post := models.NewPost(owner.ID, "Draft", "first")

	tests := []struct {
		name   string
		actor  authz.Actor
		status int
	}{
		{"owner", owner, http.StatusOK},
		{"other member", authz.NewActor(uuid.New(), authz.RoleMember), http.StatusForbidden},
		{"admin", authz.NewActor(uuid.New(), authz.RoleAdmin), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSocialFixture()
			stored := *post
			f.posts.On("GetByID", mock.Anything, post.ID).Return(&stored, nil)
			f.posts.On("Update", mock.Anything, mock.Anything).Return(nil)

			w := do(f.router(&tt.actor), http.MethodPut, "/posts/"+post.ID.String(), `{"title":"Final","content":"second"}`)

			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				f.posts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDeletePost_Missing(t *testing.T) {
	f := newSocialFixture()
	id := uuid.New()
	actor := authz.NewActor(uuid.New(), authz.RoleMember)
	f.posts.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	w := do(f.router(&actor), http.MethodDelete, "/posts/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateComment_NotifiesPostAuthor(t *testing.T) {
	f := newSocialFixture()
	author := uuid.New()
	post := models.NewPost(author, "Dune", "spice")
	actor := authz.NewActor(uuid.New(), authz.RoleMember)
	f.posts.On("GetByID", mock.Anything, post.ID).Return(post, nil)
	f.comments.On("Create", mock.Anything, mock.AnythingOfType("*models.Comment")).Return(nil)
	f.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.RecipientID == author && n.ActorID == actor.ID
	})).Return(nil)

	w := do(f.router(&actor), http.MethodPost, "/posts/"+post.ID.String()+"/comments", `{"content":"Loved it"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	f.notifications.AssertExpectations(t)
}

func TestCreateComment_MissingPost(t *testing.T) {
	f := newSocialFixture()
	id := uuid.New()
	actor := authz.NewActor(uuid.New(), authz.RoleMember)
	f.posts.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	w := do(f.router(&actor), http.MethodPost, "/posts/"+id.String()+"/comments", `{"content":"hello"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	f.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeleteComment_NotOwner(t *testing.T) {
	f := newSocialFixture()
	comment := models.NewComment(uuid.New(), uuid.New(), "mine")
	actor := authz.NewActor(uuid.New(), authz.RoleMember)
	f.comments.On("GetByID", mock.Anything, comment.ID).Return(comment, nil)

	w := do(f.router(&actor), http.MethodDelete, "/comments/"+comment.ID.String(), "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	f.comments.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestFeed(t *testing.T) {
	f := newSocialFixture()
	actor := authz.NewActor(uuid.New(), authz.RoleMember)
	followed := uuid.New()
	f.follows.On("ListFollowing", mock.Anything, actor.ID).Return([]uuid.UUID{followed}, nil)
	f.posts.On("List", mock.Anything, mock.MatchedBy(func(filter repositories.PostFilter) bool {
		return len(filter.AuthorIDs) == 1 && filter.AuthorIDs[0] == followed
	})).Return([]*models.Post{models.NewPost(followed, "News", "today")}, 1, nil)

	w := do(f.router(&actor), http.MethodGet, "/feed", "")

	require.Equal(t, http.StatusOK, w.Code)
	var page utils.PageResponse
	decodeData(t, w, &page)
	assert.Equal(t, 1, page.Count)
}
