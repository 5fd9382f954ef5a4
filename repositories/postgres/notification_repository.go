package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"go.uber.org/zap"
)

// NotificationRepository implements repositories.NotificationRepository
type NotificationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

const notificationSelect = `
	SELECT id, recipient_id, actor_id, verb, target_type, target_id, read, timestamp
	FROM notifications
`

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	err := row.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.Verb, &n.TargetType, &n.TargetID, &n.Read, &n.Timestamp)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, actor_id, verb, target_type, target_id, read, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.RecipientID, n.ActorID, n.Verb, n.TargetType, n.TargetID, n.Read, n.Timestamp)
	if err != nil {
		return mapError("create notification", err)
	}

	r.logger.Debug("notification created",
		zap.String("recipient_id", n.RecipientID.String()),
		zap.String("verb", n.Verb),
	)
	return nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	n, err := scanNotification(GetExecutor(ctx, r.db).QueryRowContext(ctx, notificationSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get notification", err)
	}
	return n, nil
}

// ListByRecipient returns unread first, then newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, opts repositories.ListOptions) ([]*models.Notification, int, error) {
	opts = clampList(opts)
	executor := GetExecutor(ctx, r.db)

	where := ` WHERE recipient_id = $1 AND ($2 = FALSE OR read = FALSE)`

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+where, recipientID, unreadOnly).Scan(&total); err != nil {
		return nil, 0, mapError("count notifications", err)
	}

	rows, err := executor.QueryContext(ctx,
		notificationSelect+where+` ORDER BY read ASC, timestamp DESC, id DESC LIMIT $3 OFFSET $4`,
		recipientID, unreadOnly, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, mapError("list notifications", err)
	}
	defer rows.Close()

	out := make([]*models.Notification, 0, opts.Limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, mapError("scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("iterate notifications", err)
	}
	return out, total, nil
}

// MarkRead flags a notification as read; marking twice is a no-op
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return mapError("mark notification read", err)
	}
	return requireAffected("mark notification read", res)
}
