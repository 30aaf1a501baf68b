// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account.
// PasswordHash is a bcrypt hash; the plaintext password is never stored and
// the hash is never serialized into responses.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Posts    []Post    `gorm:"foreignKey:UserID" json:"posts,omitempty"`
	Likes    []Like    `gorm:"foreignKey:UserID" json:"-"`
	Comments []Comment `gorm:"foreignKey:UserID" json:"-"`
}
