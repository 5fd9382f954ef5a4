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
	"github.com/upb/readers-hub/utils"
	"go.uber.org/zap"
)

func notificationRouter(repo *mocks.NotificationRepository, actor *authz.Actor) http.Handler {
	h := NewNotificationHandler(notifications.NewService(repo, zap.NewNop()), testPagination, zap.NewNop())
	return newRouter(actor, func(r chi.Router) {
		r.Get("/notifications", h.HandleList)
		r.Post("/notifications/{id}/read", h.HandleMarkRead)
	})
}

func TestNotificationList(t *testing.T) {
	actor := authz.NewActor(uuid.New(), authz.RoleMember)

	tests := []struct {
		name       string
		query      string
		unreadOnly bool
		status     int
	}{
		{"all", "", false, http.StatusOK},
		{"unread only", "?unread=true", true, http.StatusOK},
		{"bad flag", "?unread=maybe", false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.NotificationRepository)
			repo.On("ListByRecipient", mock.Anything, actor.ID, tt.unreadOnly, repositories.ListOptions{Limit: 5}).
				Return([]*models.Notification{models.NewNotification(actor.ID, uuid.New(), models.VerbStartedFollowing)}, 1, nil)

			w := do(notificationRouter(repo, &actor), http.MethodGet, "/notifications"+tt.query, "")

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				var page utils.PageResponse
				decodeData(t, w, &page)
				assert.Equal(t, 1, page.Count)
			}
		})
	}
}

func TestNotificationList_Unauthenticated(t *testing.T) {
	w := do(notificationRouter(new(mocks.NotificationRepository), nil), http.MethodGet, "/notifications", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMarkRead(t *testing.T) {
	actor := authz.NewActor(uuid.New(), authz.RoleMember)

	t.Run("own notification", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		n := models.NewNotification(actor.ID, uuid.New(), models.VerbStartedFollowing)
		repo.On("GetByID", mock.Anything, n.ID).Return(n, nil)
		repo.On("MarkRead", mock.Anything, n.ID).Return(nil)

		w := do(notificationRouter(repo, &actor), http.MethodPost, "/notifications/"+n.ID.String()+"/read", "")

		require.Equal(t, http.StatusOK, w.Code)
		var got models.Notification
		decodeData(t, w, &got)
		assert.True(t, got.Read)
	})

	t.Run("someone else's notification", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		n := models.NewNotification(uuid.New(), uuid.New(), models.VerbStartedFollowing)
		repo.On("GetByID", mock.Anything, n.ID).Return(n, nil)

		w := do(notificationRouter(repo, &actor), http.MethodPost, "/notifications/"+n.ID.String()+"/read", "")

		assert.Equal(t, http.StatusForbidden, w.Code)
		repo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

		w := do(notificationRouter(repo, &actor), http.MethodPost, "/notifications/"+id.String()+"/read", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
