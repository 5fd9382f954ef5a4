package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed edge: Follower follows Followee.
type Follow struct {
	FollowerID uuid.UUID `json:"follower_id" db:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id" db:"followee_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Follow model
func (Follow) TableName() string {
	return "follows"
}
