package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// The ctx passed to fn carries the transaction; repositories called with
	// it run their statements inside it.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// ListOptions bounds a list query.
type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter narrows PostRepository.List.
type PostFilter struct {
	// Query matches title, content or the author's username, case-insensitively.
	Query string
	// AuthorIDs restricts results to these authors when non-nil. An empty,
	// non-nil slice matches nothing.
	AuthorIDs []uuid.UUID
	// TagID restricts results to posts carrying the tag when non-nil.
	TagID *uuid.UUID
	ListOptions
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user. Returns a *DuplicateError on a taken
	// username or email.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user, including granted permissions
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user, including granted permissions
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Exists reports whether a user with the id exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// List retrieves users ordered by username
	List(ctx context.Context, opts ListOptions) ([]*models.User, int, error)

	// UpdateProfile updates user-editable profile fields
	UpdateProfile(ctx context.Context, user *models.User) error

	// SetRole replaces the user's primary role
	SetRole(ctx context.Context, id uuid.UUID, role string) error

	// GrantPermission adds a permission; granting twice is a no-op
	GrantPermission(ctx context.Context, id uuid.UUID, permission string) error

	// RevokePermission removes a permission; revoking an absent one is a no-op
	RevokePermission(ctx context.Context, id uuid.UUID, permission string) error
}

// FollowRepository stores directed follow edges
type FollowRepository interface {
	// Add inserts the edge and reports whether it was newly created
	Add(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// Remove deletes the edge and reports whether it existed
	Remove(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// Exists reports whether the edge exists
	Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// ListFollowing returns the ids followerID follows
	ListFollowing(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error)

	// ListFollowers returns the ids following followeeID
	ListFollowers(ctx context.Context, followeeID uuid.UUID) ([]uuid.UUID, error)
}

// PostRepository handles post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)

	// List returns posts newest first, and the total matching count
	List(ctx context.Context, filter PostFilter) ([]*models.Post, int, error)

	// Update updates title and content; the author never changes
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TagRepository handles tags and their attachment to posts
type TagRepository interface {
	// Ensure returns the tags for the given names, creating missing ones.
	// Names resolve by slug, so an existing tag keeps its stored name.
	Ensure(ctx context.Context, tags []*models.Tag) ([]*models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)

	// SetForPost replaces the post's tags with tagIDs
	SetForPost(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error

	// ListForPosts returns each post's tags ordered by name
	ListForPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]*models.Tag, error)
}

// CommentRepository handles comment data operations
type CommentRepository interface {
	// Create returns ErrNotFound if the post no longer exists
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)

	// ListByPost returns a post's comments newest first, and the total count
	ListByPost(ctx context.Context, postID uuid.UUID, opts ListOptions) ([]*models.Comment, int, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthorRepository handles author data operations
type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Author, error)

	// List returns authors ordered by name, and the total count
	List(ctx context.Context, opts ListOptions) ([]*models.Author, int, error)
}

// BookRepository handles book data operations
type BookRepository interface {
	// Create returns ErrNotFound if the author does not exist
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)

	// List returns books ordered by title, and the total count
	List(ctx context.Context, opts ListOptions) ([]*models.Book, int, error)

	// ListByAuthors returns every book written by any of authorIDs
	ListByAuthors(ctx context.Context, authorIDs []uuid.UUID) ([]*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotificationRepository handles notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)

	// ListByRecipient returns unread first, then newest first
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, opts ListOptions) ([]*models.Notification, int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// AuditRepository stores the privilege audit trail
type AuditRepository interface {
	Insert(ctx context.Context, log *models.AuditLog) error

	// List returns entries newest first, and the total count
	List(ctx context.Context, opts ListOptions) ([]*models.AuditLog, int, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users         UserRepository
	Follows       FollowRepository
	Posts         PostRepository
	Tags          TagRepository
	Comments      CommentRepository
	Authors       AuthorRepository
	Books         BookRepository
	Notifications NotificationRepository
	AuditLogs     AuditRepository
}
