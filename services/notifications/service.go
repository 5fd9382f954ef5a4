// Package notifications records and serves per-user activity notifications.
package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"github.com/upb/readers-hub/services"
	"github.com/upb/readers-hub/services/authz"
	"go.uber.org/zap"
)

// Target kinds attached to notifications
const (
	TargetUser = "user"
	TargetPost = "post"
)

// Service creates and lists notifications. It also observes the follow
// graph: every newly created edge notifies the followee.
type Service struct {
	repo   repositories.NotificationRepository
	logger *zap.Logger
}

// NewService creates a new notifications service
func NewService(repo repositories.NotificationRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Notify stores a notification. Self-notifications are skipped.
func (s *Service) Notify(ctx context.Context, n *models.Notification) error {
	if n.RecipientID == n.ActorID {
		return nil
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return services.WrapStorage("failed to create notification", err)
	}

	s.logger.Debug("notification stored",
		zap.String("recipient_id", n.RecipientID.String()),
		zap.String("verb", n.Verb))
	return nil
}

// Followed implements authz.FollowObserver
func (s *Service) Followed(ctx context.Context, followerID, followeeID uuid.UUID) error {
	n := models.NewNotification(followeeID, followerID, models.VerbStartedFollowing).
		WithTarget(TargetUser, followerID)
	return s.Notify(ctx, n)
}

// List returns the actor's notifications, unread first
func (s *Service) List(ctx context.Context, actor authz.Actor, unreadOnly bool, opts repositories.ListOptions) ([]*models.Notification, int, error) {
	list, total, err := s.repo.ListByRecipient(ctx, actor.ID, unreadOnly, opts)
	if err != nil {
		return nil, 0, services.WrapStorage("failed to list notifications", err)
	}
	return list, total, nil
}

// MarkRead marks one of the actor's notifications as read
func (s *Service) MarkRead(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrNotificationNotFound.WithDetail("notification_id", id.String())
		}
		return nil, services.WrapStorage("failed to load notification", err)
	}
	if n.RecipientID != actor.ID {
		return nil, services.ErrForbidden.WithDetail("notification_id", id.String())
	}
	if n.Read {
		return n, nil
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrNotificationNotFound.WithDetail("notification_id", id.String())
		}
		return nil, services.WrapStorage("failed to mark notification read", err)
	}
	n.Read = true
	return n, nil
}
