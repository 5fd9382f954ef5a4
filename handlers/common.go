package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/readers-hub/config"
	"github.com/upb/readers-hub/middleware"
	"github.com/upb/readers-hub/services/authz"
	"github.com/upb/readers-hub/utils"
	"go.uber.org/zap"
)

// pager parses page and page_size against configured bounds
type pager struct {
	defaultSize int
	maxSize     int
}

func newPager(cfg config.PaginationConfig) pager {
	p := pager{defaultSize: cfg.DefaultPageSize, maxSize: cfg.MaxPageSize}
	if p.defaultSize <= 0 {
		p.defaultSize = 5
	}
	if p.maxSize < p.defaultSize {
		p.maxSize = p.defaultSize
	}
	return p
}

func (p pager) parse(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (utils.Pagination, bool) {
	page, err := utils.ParsePagination(r, p.defaultSize, p.maxSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil, logger)
		return page, false
	}
	return page, true
}

// requireActor returns the authenticated actor set by AuthMiddleware.RequireAuth
func requireActor(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (authz.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		logger.Error("actor not found in context",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		writeError(w, http.StatusUnauthorized, "Authentication required", nil, logger)
	}
	return actor, ok
}

// pathUUID parses a UUID path parameter. Malformed ids are reported as 404,
// the same as ids that do not exist.
func pathUUID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusNotFound, "Resource not found", nil, logger)
		return uuid.Nil, false
	}
	return id, true
}

// decode reads the JSON body into dst and validates its struct tags
func decode(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

func writeOK(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteOK(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeCreated(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteCreated(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writePage(w http.ResponseWriter, page utils.Pagination, total int, results interface{}, logger *zap.Logger) {
	if err := utils.WritePage(w, page, total, results); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
