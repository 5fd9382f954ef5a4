// Package mocks provides testify mocks of the repository interfaces for
// service tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
)

// UserRepository is a mock implementation of repositories.UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.User, int, error) {
	args := m.Called(ctx, opts)
	if users := args.Get(0); users != nil {
		return users.([]*models.User), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *UserRepository) GrantPermission(ctx context.Context, id uuid.UUID, permission string) error {
	args := m.Called(ctx, id, permission)
	return args.Error(0)
}

func (m *UserRepository) RevokePermission(ctx context.Context, id uuid.UUID, permission string) error {
	args := m.Called(ctx, id, permission)
	return args.Error(0)
}

// FollowRepository is a mock implementation of repositories.FollowRepository
type FollowRepository struct {
	mock.Mock
}

func (m *FollowRepository) Add(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *FollowRepository) Remove(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *FollowRepository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *FollowRepository) ListFollowing(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, followerID)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FollowRepository) ListFollowers(ctx context.Context, followeeID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, followeeID)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

// PostRepository is a mock implementation of repositories.PostRepository
type PostRepository struct {
	mock.Mock
}

func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	args := m.Called(ctx, id)
	if post := args.Get(0); post != nil {
		return post.(*models.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PostRepository) List(ctx context.Context, filter repositories.PostFilter) ([]*models.Post, int, error) {
	args := m.Called(ctx, filter)
	if posts := args.Get(0); posts != nil {
		return posts.([]*models.Post), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *PostRepository) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TagRepository is a mock implementation of repositories.TagRepository
type TagRepository struct {
	mock.Mock
}

func (m *TagRepository) Ensure(ctx context.Context, tags []*models.Tag) ([]*models.Tag, error) {
	args := m.Called(ctx, tags)
	if out := args.Get(0); out != nil {
		return out.([]*models.Tag), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	args := m.Called(ctx, slug)
	if tag := args.Get(0); tag != nil {
		return tag.(*models.Tag), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TagRepository) SetForPost(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	args := m.Called(ctx, postID, tagIDs)
	return args.Error(0)
}

func (m *TagRepository) ListForPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]*models.Tag, error) {
	args := m.Called(ctx, postIDs)
	if out := args.Get(0); out != nil {
		return out.(map[uuid.UUID][]*models.Tag), args.Error(1)
	}
	return nil, args.Error(1)
}

// CommentRepository is a mock implementation of repositories.CommentRepository
type CommentRepository struct {
	mock.Mock
}

func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID uuid.UUID, opts repositories.ListOptions) ([]*models.Comment, int, error) {
	args := m.Called(ctx, postID, opts)
	if comments := args.Get(0); comments != nil {
		return comments.([]*models.Comment), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// AuthorRepository is a mock implementation of repositories.AuthorRepository
type AuthorRepository struct {
	mock.Mock
}

func (m *AuthorRepository) Create(ctx context.Context, author *models.Author) error {
	args := m.Called(ctx, author)
	return args.Error(0)
}

func (m *AuthorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Author), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthorRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.Author, int, error) {
	args := m.Called(ctx, opts)
	if authors := args.Get(0); authors != nil {
		return authors.([]*models.Author), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

// BookRepository is a mock implementation of repositories.BookRepository
type BookRepository struct {
	mock.Mock
}

func (m *BookRepository) Create(ctx context.Context, book *models.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *BookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*models.Book), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BookRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.Book, int, error) {
	args := m.Called(ctx, opts)
	if books := args.Get(0); books != nil {
		return books.([]*models.Book), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *BookRepository) ListByAuthors(ctx context.Context, authorIDs []uuid.UUID) ([]*models.Book, error) {
	args := m.Called(ctx, authorIDs)
	if books := args.Get(0); books != nil {
		return books.([]*models.Book), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BookRepository) Update(ctx context.Context, book *models.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// NotificationRepository is a mock implementation of repositories.NotificationRepository
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if n := args.Get(0); n != nil {
		return n.(*models.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, opts repositories.ListOptions) ([]*models.Notification, int, error) {
	args := m.Called(ctx, recipientID, unreadOnly, opts)
	if list := args.Get(0); list != nil {
		return list.([]*models.Notification), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// AuditRepository is a mock implementation of repositories.AuditRepository
type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.AuditLog, int, error) {
	args := m.Called(ctx, opts)
	if list := args.Get(0); list != nil {
		return list.([]*models.AuditLog), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}
