package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/config"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services/authz"
	"go.uber.org/zap"
)

// NotificationService defines the notification operations used by NotificationHandler
type NotificationService interface {
	List(ctx context.Context, actor authz.Actor, unreadOnly bool, opts repositories.ListOptions) ([]*models.Notification, int, error)
	MarkRead(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Notification, error)
}

// NotificationHandler serves the caller's notifications
type NotificationHandler struct {
	notifications NotificationService
	pager         pager
	logger        *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(svc NotificationService, pagination config.PaginationConfig, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: svc, pager: newPager(pagination), logger: logger}
}

// HandleList handles GET /api/v1/notifications?unread=true
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	page, ok := h.pager.parse(w, r, h.logger)
	if !ok {
		return
	}

	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unread must be true or false", nil, h.logger)
			return
		}
		unreadOnly = v
	}

	list, total, err := h.notifications.List(r.Context(), actor, unreadOnly, page.ListOptions())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writePage(w, page, total, list, h.logger)
}

// HandleMarkRead handles POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	n, err := h.notifications.MarkRead(r.Context(), actor, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, n, h.logger)
}
