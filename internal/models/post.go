// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post represents a post in the Photogram application.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Caption string `gorm:"type:text;not null" json:"caption"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked bool `gorm:"->;-:migration" json:"liked"`
	// Comments is filled by the feed assembly, not by the ORM.
	Comments  []*Comment `gorm:"-" json:"comments,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
