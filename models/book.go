package models

import (
	"time"

	"github.com/google/uuid"
)

// Author writes books. Deleting an author deletes their books.
type Author struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Books     []*Book   `json:"books" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Author model
func (Author) TableName() string {
	return "authors"
}

// NewAuthor creates a new Author instance
func NewAuthor(name string) *Author {
	return &Author{
		ID:        uuid.New(),
		Name:      name,
		Books:     []*Book{},
		CreatedAt: time.Now().UTC(),
	}
}

// Book is a catalog entry. Books are administratively managed and have no
// owning user.
type Book struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	PublicationYear int       `json:"publication_year" db:"publication_year"`
	AuthorID        uuid.UUID `json:"author" db:"author_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Book model
func (Book) TableName() string {
	return "books"
}

// NewBook creates a new Book instance
func NewBook(authorID uuid.UUID, title string, publicationYear int) *Book {
	now := time.Now().UTC()
	return &Book{
		ID:              uuid.New(),
		Title:           title,
		PublicationYear: publicationYear,
		AuthorID:        authorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
