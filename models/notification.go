package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification verbs
const (
	VerbStartedFollowing = "started following you"
	VerbCommentedOnPost  = "commented on your post"
)

// Notification tells Recipient that Actor did Verb, optionally to Target.
type Notification struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	RecipientID uuid.UUID  `json:"recipient" db:"recipient_id"`
	ActorID     uuid.UUID  `json:"actor" db:"actor_id"`
	Verb        string     `json:"verb" db:"verb"`
	TargetType  *string    `json:"target_type,omitempty" db:"target_type"`
	TargetID    *uuid.UUID `json:"target_id,omitempty" db:"target_id"`
	Read        bool       `json:"read" db:"read"`
	Timestamp   time.Time  `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

// NewNotification creates an unread Notification
func NewNotification(recipientID, actorID uuid.UUID, verb string) *Notification {
	return &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		ActorID:     actorID,
		Verb:        verb,
		Timestamp:   time.Now().UTC(),
	}
}

// WithTarget attaches the object the notification is about
func (n *Notification) WithTarget(targetType string, targetID uuid.UUID) *Notification {
	n.TargetType = &targetType
	n.TargetID = &targetID
	return n
}
