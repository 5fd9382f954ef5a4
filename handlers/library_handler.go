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
	"github.com/upb/readers-hub/services/library"
	"go.uber.org/zap"
)

// BookRequest is the body of book create and update. Field rules are
// enforced by the service after the permission check.
type BookRequest struct {
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	AuthorID        uuid.UUID `json:"author"`
}

// AuthorRequest is the body of author create
type AuthorRequest struct {
	Name string `json:"name"`
}

// LibraryService defines the catalog operations used by LibraryHandler
type LibraryService interface {
	ListBooks(ctx context.Context, opts repositories.ListOptions) ([]*models.Book, int, error)
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	CreateBook(ctx context.Context, actor authz.Actor, in library.BookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, actor authz.Actor, id uuid.UUID, in library.BookInput) (*models.Book, error)
	DeleteBook(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	ListAuthors(ctx context.Context, opts repositories.ListOptions) ([]*models.Author, int, error)
	GetAuthor(ctx context.Context, id uuid.UUID) (*models.Author, error)
	CreateAuthor(ctx context.Context, actor authz.Actor, name string) (*models.Author, error)
	Dashboard(ctx context.Context, actor authz.Actor, role authz.Role) (*library.Dashboard, error)
}

// LibraryHandler handles books, authors and role dashboards
type LibraryHandler struct {
	library LibraryService
	pager   pager
	logger  *zap.Logger
}

// NewLibraryHandler creates a new LibraryHandler
func NewLibraryHandler(svc LibraryService, pagination config.PaginationConfig, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{library: svc, pager: newPager(pagination), logger: logger}
}

// HandleListBooks handles GET /api/v1/books
func (h *LibraryHandler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}
	books, total, err := h.library.ListBooks(r.Context(), page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writePage(w, page, total, books, h.logger)
}

// HandleGetBook handles GET /api/v1/books/{id}
func (h *LibraryHandler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	book, err := h.library.GetBook(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, book, h.logger)
}

// HandleCreateBook handles POST /api/v1/books
func (h *LibraryHandler) HandleCreateBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req BookRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	book, err := h.library.CreateBook(r.Context(), actor, req.input())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, book, h.logger)
}

// HandleUpdateBook handles PUT /api/v1/books/{id}
func (h *LibraryHandler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req BookRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	book, err := h.library.UpdateBook(r.Context(), actor, id, req.input())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, book, h.logger)
}

// HandleDeleteBook handles DELETE /api/v1/books/{id}
func (h *LibraryHandler) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.library.DeleteBook(r.Context(), actor, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAuthors handles GET /api/v1/authors
func (h *LibraryHandler) HandleListAuthors(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}
	authors, total, err := h.library.ListAuthors(r.Context(), page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writePage(w, page, total, authors, h.logger)
}

// HandleGetAuthor handles GET /api/v1/authors/{id}
func (h *LibraryHandler) HandleGetAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	author, err := h.library.GetAuthor(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, author, h.logger)
}

// HandleCreateAuthor handles POST /api/v1/authors
func (h *LibraryHandler) HandleCreateAuthor(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req AuthorRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	author, err := h.library.CreateAuthor(r.Context(), actor, req.Name)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, author, h.logger)
}

// HandleDashboard handles GET /api/v1/dashboards/{role}
func (h *LibraryHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	role, err := authz.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Resource not found", nil, h.logger)
		return
	}

	dash, err := h.library.Dashboard(r.Context(), actor, role)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, dash, h.logger)
}

func (req BookRequest) input() library.BookInput {
	return library.BookInput{
		Title:           req.Title,
		PublicationYear: req.PublicationYear,
		AuthorID:        req.AuthorID,
	}
}
