package models

import (
	"time"
)

// PostPageSize is the fixed number of posts per listing page.
const PostPageSize = 9

// Post represents a published article.
type Post struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	AuthorID   uint         `gorm:"not null;index" json:"authorId"`
	Author     *UserSummary `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title      string       `gorm:"not null" json:"title"`
	Slug       string       `gorm:"not null;uniqueIndex" json:"slug"`
	Excerpt    string       `gorm:"type:text;not null" json:"excerpt"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	ImageURL   string       `gorm:"not null" json:"imageUrl"`
	CategoryID uint         `gorm:"not null;index" json:"categoryId"`
	Category   *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	// Likes lists the IDs of users who liked the post; loaded from post_likes.
	Likes []uint `gorm:"-" json:"likes"`
	// LikeCount is kept equal to len(Likes) by the like toggle.
	LikeCount int       `gorm:"not null;default:0;index" json:"likeCount"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostLike records that a user liked a post.
// The combination of PostID and UserID must be unique.
type PostLike struct {
	ID        uint      `gorm:"primaryKey"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts []*Post `json:"posts"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
}

// PageCount returns ceil(total/PostPageSize).
func PageCount(total int64) int {
	return int((total + PostPageSize - 1) / PostPageSize)
}
