package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"go.uber.org/zap"
)

// AuthorRepository implements repositories.AuthorRepository
type AuthorRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuthorRepository creates a new author repository
func NewAuthorRepository(db *DB, logger *zap.Logger) *AuthorRepository {
	return &AuthorRepository{db: db, logger: logger}
}

// Create creates a new author
func (r *AuthorRepository) Create(ctx context.Context, author *models.Author) error {
	_, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO authors (id, name, created_at) VALUES ($1, $2, $3)`,
		author.ID, author.Name, author.CreatedAt,
	)
	if err != nil {
		return mapError("create author", err)
	}
	return nil
}

// GetByID retrieves an author by ID, without books
func (r *AuthorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	a := &models.Author{}
	err := GetExecutor(ctx, r.db).
		QueryRowContext(ctx, `SELECT id, name, created_at FROM authors WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.CreatedAt)
	if err != nil {
		return nil, mapError("get author", err)
	}
	return a, nil
}

// List returns authors ordered by name, and the total count
func (r *AuthorRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.Author, int, error) {
	opts = clampList(opts)
	executor := GetExecutor(ctx, r.db)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&total); err != nil {
		return nil, 0, mapError("count authors", err)
	}

	rows, err := executor.QueryContext(ctx,
		`SELECT id, name, created_at FROM authors ORDER BY name, id LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, mapError("list authors", err)
	}
	defer rows.Close()

	authors := make([]*models.Author, 0, opts.Limit)
	for rows.Next() {
		a := &models.Author{}
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			return nil, 0, mapError("scan author", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("iterate authors", err)
	}
	return authors, total, nil
}

// BookRepository implements repositories.BookRepository
type BookRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *DB, logger *zap.Logger) *BookRepository {
	return &BookRepository{db: db, logger: logger}
}

const bookSelect = `SELECT id, title, publication_year, author_id, created_at, updated_at FROM books`

func scanBook(row rowScanner) (*models.Book, error) {
	b := &models.Book{}
	if err := row.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

// Create creates a new book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO books (id, title, publication_year, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, book.ID, book.Title, book.PublicationYear, book.AuthorID, book.CreatedAt, book.UpdatedAt)
	if err != nil {
		return mapError("create book", err)
	}

	r.logger.Info("book created", zap.String("id", book.ID.String()), zap.String("title", book.Title))
	return nil
}

// GetByID retrieves a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	b, err := scanBook(GetExecutor(ctx, r.db).QueryRowContext(ctx, bookSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get book", err)
	}
	return b, nil
}

// List returns books ordered by title, and the total count
func (r *BookRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.Book, int, error) {
	opts = clampList(opts)
	executor := GetExecutor(ctx, r.db)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&total); err != nil {
		return nil, 0, mapError("count books", err)
	}

	rows, err := executor.QueryContext(ctx, bookSelect+` ORDER BY title, id LIMIT $1 OFFSET $2`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, mapError("list books", err)
	}
	defer rows.Close()

	books, err := collectBooks(rows, opts.Limit)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// ListByAuthors returns every book written by any of authorIDs
func (r *BookRepository) ListByAuthors(ctx context.Context, authorIDs []uuid.UUID) ([]*models.Book, error) {
	if len(authorIDs) == 0 {
		return []*models.Book{}, nil
	}

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx,
		bookSelect+` WHERE author_id = ANY($1::uuid[]) ORDER BY publication_year, title`,
		uuidArray(authorIDs),
	)
	if err != nil {
		return nil, mapError("list books by authors", err)
	}
	defer rows.Close()

	return collectBooks(rows, len(authorIDs))
}

func collectBooks(rows interface {
	rowScanner
	Next() bool
	Err() error
}, capacity int) ([]*models.Book, error) {
	books := make([]*models.Book, 0, capacity)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, mapError("scan book", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate books", err)
	}
	return books, nil
}

// Update updates a book's catalog fields
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now().UTC()
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE books SET title = $2, publication_year = $3, author_id = $4, updated_at = $5 WHERE id = $1`,
		book.ID, book.Title, book.PublicationYear, book.AuthorID, book.UpdatedAt,
	)
	if err != nil {
		return mapError("update book", err)
	}
	return requireAffected("update book", res)
}

// Delete deletes a book
func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return mapError("delete book", err)
	}
	if err := requireAffected("delete book", res); err != nil {
		return err
	}

	r.logger.Info("book deleted", zap.String("id", id.String()))
	return nil
}
