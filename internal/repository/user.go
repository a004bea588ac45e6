package repository

import (
	"context"
	"errors"
	"time"

	"quill/internal/models"
	"quill/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users and their bookmarks.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	BookmarkIDs(ctx context.Context, userID uint) ([]uint, error)
	ToggleBookmark(ctx context.Context, userID, postID uint) (bool, error)
	BookmarkedPosts(ctx context.Context, userID uint) ([]*models.Post, error)
}

type userRepository struct {
	db     *gorm.DB
	posts  *postRepository
	logger *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db:     db,
		posts:  &postRepository{db: db, logger: observability.NewRepoLogger("posts")},
		logger: observability.NewRepoLogger("users"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, readError(err, "User not found")
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no account uses the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return writeError(err)
	}
	r.logger.LogWrite(ctx, "create", "user_id", user.ID)
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Select("name", "email", "password", "bio", "avatar_url", "updated_at").
		Updates(user).Error
	if err != nil {
		return writeError(err)
	}
	r.logger.LogWrite(ctx, "update", "user_id", user.ID)
	return nil
}

// BookmarkIDs lists the user's bookmarked post IDs in bookmark order.
func (r *userRepository) BookmarkIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ToggleBookmark adds or removes the bookmark and reports whether it is now set.
func (r *userRepository) ToggleBookmark(ctx context.Context, userID, postID uint) (bool, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "ToggleBookmark", "bookmarks",
		observability.PostID(postID), observability.UserID(userID))
	defer span.End()

	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Bookmark{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		bookmark := models.Bookmark{UserID: userID, PostID: postID, CreatedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&bookmark).Error; err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, readError(err, "Post not found")
	}
	return added, nil
}

// BookmarkedPosts returns the user's bookmarked posts in bookmark order.
func (r *userRepository) BookmarkedPosts(ctx context.Context, userID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, r.posts.loadLikes(ctx, posts)
}
