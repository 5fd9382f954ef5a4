// Package library manages the book catalog. Reads are public. Every write
// requires the matching model permission, checked before any lookup.
package library

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services"
	"github.com/upb/readers-hub/services/authz"
	"go.uber.org/zap"
)

// BookInput carries the writable book fields
type BookInput struct {
	Title           string
	PublicationYear int
	AuthorID        uuid.UUID
}

// Dashboard is the landing view for one role
type Dashboard struct {
	Role        string `json:"role"`
	Greeting    string `json:"greeting"`
	BookCount   int    `json:"book_count"`
	AuthorCount int    `json:"author_count"`
}

const (
	maxTitleLength = 200
	maxNameLength  = 100
)

var greetings = map[authz.Role]string{
	authz.RoleAdmin:     "Welcome, administrator.",
	authz.RoleLibrarian: "Welcome, librarian.",
	authz.RoleMember:    "Welcome, member.",
}

// Service handles catalog operations
type Service struct {
	authors    repositories.AuthorRepository
	books      repositories.BookRepository
	authorizer *authz.Authorizer
	now        func() time.Time
	logger     *zap.Logger
}

// NewService creates a new library service
func NewService(authors repositories.AuthorRepository, books repositories.BookRepository, authorizer *authz.Authorizer, logger *zap.Logger) *Service {
	return &Service{
		authors:    authors,
		books:      books,
		authorizer: authorizer,
		now:        time.Now,
		logger:     logger,
	}
}

// ListBooks returns books ordered by title
func (s *Service) ListBooks(ctx context.Context, opts repositories.ListOptions) ([]*models.Book, int, error) {
	books, total, err := s.books.List(ctx, opts)
	if err != nil {
		return nil, 0, services.WrapStorage("failed to list books", err)
	}
	return books, total, nil
}

// GetBook returns a single book
func (s *Service) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, bookError(err, id)
	}
	return book, nil
}

// CreateBook adds a book; requires can_add_book
func (s *Service) CreateBook(ctx context.Context, actor authz.Actor, in BookInput) (*models.Book, error) {
	if err := s.authorizer.RequirePermission(actor, authz.PermAddBook); err != nil {
		return nil, err
	}
	if err := s.validateBook(in); err != nil {
		return nil, err
	}

	book := models.NewBook(in.AuthorID, strings.TrimSpace(in.Title), in.PublicationYear)
	if err := s.books.Create(ctx, book); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrAuthorNotFound.WithDetail("author_id", in.AuthorID.String())
		}
		return nil, services.WrapStorage("failed to create book", err)
	}

	s.logger.Info("book added",
		zap.String("book_id", book.ID.String()),
		zap.String("actor_id", actor.ID.String()))
	return book, nil
}

// UpdateBook replaces a book's fields; requires can_change_book
func (s *Service) UpdateBook(ctx context.Context, actor authz.Actor, id uuid.UUID, in BookInput) (*models.Book, error) {
	if err := s.authorizer.RequirePermission(actor, authz.PermChangeBook); err != nil {
		return nil, err
	}

	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, bookError(err, id)
	}
	if err := s.validateBook(in); err != nil {
		return nil, err
	}

	book.Title = strings.TrimSpace(in.Title)
	book.PublicationYear = in.PublicationYear
	book.AuthorID = in.AuthorID
	if err := s.books.Update(ctx, book); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.missingOnUpdate(ctx, id, in.AuthorID)
		}
		return nil, services.WrapStorage("failed to update book", err)
	}
	return book, nil
}

// missingOnUpdate tells a book deleted mid-update from an unknown author
func (s *Service) missingOnUpdate(ctx context.Context, bookID, authorID uuid.UUID) error {
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return bookError(err, bookID)
	}
	return services.ErrAuthorNotFound.WithDetail("author_id", authorID.String())
}

// DeleteBook removes a book; requires can_delete_book
func (s *Service) DeleteBook(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := s.authorizer.RequirePermission(actor, authz.PermDeleteBook); err != nil {
		return err
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return bookError(err, id)
	}

	s.logger.Info("book deleted",
		zap.String("book_id", id.String()),
		zap.String("actor_id", actor.ID.String()))
	return nil
}

// ListAuthors returns authors with their books nested
func (s *Service) ListAuthors(ctx context.Context, opts repositories.ListOptions) ([]*models.Author, int, error) {
	authors, total, err := s.authors.List(ctx, opts)
	if err != nil {
		return nil, 0, services.WrapStorage("failed to list authors", err)
	}
	if err := s.attachBooks(ctx, authors); err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

// GetAuthor returns one author with their books
func (s *Service) GetAuthor(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	author, err := s.authors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrAuthorNotFound.WithDetail("author_id", id.String())
		}
		return nil, services.WrapStorage("failed to load author", err)
	}
	if err := s.attachBooks(ctx, []*models.Author{author}); err != nil {
		return nil, err
	}
	return author, nil
}

// CreateAuthor adds an author; requires can_add_book
func (s *Service) CreateAuthor(ctx context.Context, actor authz.Actor, name string) (*models.Author, error) {
	if err := s.authorizer.RequirePermission(actor, authz.PermAddBook); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, services.ErrInvalidInput.WithDetail("name", "is required and must be at most 100 characters")
	}

	author := models.NewAuthor(name)
	if err := s.authors.Create(ctx, author); err != nil {
		return nil, services.WrapStorage("failed to create author", err)
	}
	return author, nil
}

// Dashboard returns the landing view for role. Only actors holding exactly
// that role may see it.
func (s *Service) Dashboard(ctx context.Context, actor authz.Actor, role authz.Role) (*Dashboard, error) {
	if err := s.authorizer.RequireRole(actor, role); err != nil {
		return nil, err
	}

	probe := repositories.ListOptions{Limit: 1}
	_, books, err := s.books.List(ctx, probe)
	if err != nil {
		return nil, services.WrapStorage("failed to count books", err)
	}
	_, authors, err := s.authors.List(ctx, probe)
	if err != nil {
		return nil, services.WrapStorage("failed to count authors", err)
	}

	return &Dashboard{
		Role:        role.String(),
		Greeting:    greetings[role],
		BookCount:   books,
		AuthorCount: authors,
	}, nil
}

func (s *Service) attachBooks(ctx context.Context, authors []*models.Author) error {
	if len(authors) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(authors))
	byID := make(map[uuid.UUID]*models.Author, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
		a.Books = []*models.Book{}
		byID[a.ID] = a
	}

	books, err := s.books.ListByAuthors(ctx, ids)
	if err != nil {
		return services.WrapStorage("failed to load books", err)
	}
	for _, b := range books {
		if a, ok := byID[b.AuthorID]; ok {
			a.Books = append(a.Books, b)
		}
	}
	return nil
}

func (s *Service) validateBook(in BookInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return services.ErrInvalidInput.WithDetail("title", "is required")
	}
	if len(in.Title) > maxTitleLength {
		return services.ErrInvalidInput.WithDetail("title", "must be at most 200 characters")
	}
	if in.PublicationYear < 0 {
		return services.ErrInvalidInput.WithDetail("publication_year", "must not be negative")
	}
	if in.AuthorID == uuid.Nil {
		return services.ErrInvalidInput.WithDetail("author", "is required")
	}
	if in.PublicationYear > s.now().Year() {
		return services.ErrInvalidInput.WithDetail("publication_year", "cannot be in the future")
	}
	return nil
}

func bookError(err error, id uuid.UUID) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrBookNotFound.WithDetail("book_id", id.String())
	}
	return services.WrapStorage("book store failure", err)
}
