// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered Quill author or reader.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Bio       string    `gorm:"not null;default:''" json:"bio"`
	AvatarURL string    `gorm:"not null;default:''" json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Bookmarks lists bookmarked post IDs in bookmark order; loaded from the bookmarks table.
	Bookmarks []uint `gorm:"-" json:"bookmarks"`
}

// UserSummary is the public projection of a user embedded in posts and comments.
type UserSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// TableName maps UserSummary onto the users table.
func (UserSummary) TableName() string {
	return "users"
}

// Bookmark is a user's saved-for-later relation to a post.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmarks_user_post"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_bookmarks_user_post;index"`
	CreatedAt time.Time `gorm:"not null"`
}
