// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Follow represents a directed follow edge between two users.
// The (FollowerID, FollowedID) pair is unique, and the edge is irreflexive:
// the service layer rejects self-follows before anything reaches storage.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_edge" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follow_edge" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Relationships
	Follower User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followed User `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
