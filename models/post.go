package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog/social post. AuthorID is set at creation and never changes.
type Post struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	AuthorID       uuid.UUID  `json:"author" db:"author_id"`
	AuthorUsername string     `json:"author_username" db:"-"`
	Title          string     `json:"title" db:"title"`
	Content        string     `json:"content" db:"content"`
	Tags           []*Tag     `json:"tags" db:"-"`
	Comments       []*Comment `json:"comments,omitempty" db:"-"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Post model
func (Post) TableName() string {
	return "posts"
}

// NewPost creates a new Post instance
func NewPost(authorID uuid.UUID, title, content string) *Post {
	now := time.Now().UTC()
	return &Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Comment is a reply to a Post.
type Comment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	PostID         uuid.UUID `json:"post" db:"post_id"`
	AuthorID       uuid.UUID `json:"author" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"-"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Comment model
func (Comment) TableName() string {
	return "comments"
}

// NewComment creates a new Comment instance
func NewComment(postID, authorID uuid.UUID, content string) *Comment {
	now := time.Now().UTC()
	return &Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
