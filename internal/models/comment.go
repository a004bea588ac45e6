package models

import "time"

// Comment is a reader comment on a post. A nil ParentID marks a top-level comment.
type Comment struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;index" json:"postId"`
	UserID    uint         `gorm:"not null;index" json:"userId"`
	User      *UserSummary `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Text      string       `gorm:"type:text;not null" json:"text"`
	ParentID  *uint        `gorm:"index" json:"parentId"`
	CreatedAt time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
