package repository

import (
	"context"
	"strings"
	"time"

	"quill/internal/models"
	"quill/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter selects one page of the public post listing.
type PostFilter struct {
	// Keyword is matched case-insensitively against titles.
	Keyword    string
	CategoryID *uint
	Page       int
	PageSize   int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]*models.Post, error)
	ListPopular(ctx context.Context, limit int) ([]*models.Post, error)
	ListRelated(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, postID, userID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, logger: observability.NewRepoLogger("posts")}
}

// withDetails preloads the author summary and category of each post.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", summaryColumns).Preload("Category")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error) {
	defer observability.TrackQuery("list", "posts")()

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = models.PostPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.Post{})
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		query = query.Where(`LOWER(posts.title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(kw))+"%")
	}
	if filter.CategoryID != nil {
		query = query.Where("posts.category_id = ?", *filter.CategoryID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []*models.Post
	if total > 0 {
		err := newestFirst(withDetails(query)).
			Limit(pageSize).
			Offset((page - 1) * pageSize).
			Find(&posts).Error
		if err != nil {
			return nil, 0, models.NewInternalError(err)
		}
	}

	if err := r.loadLikes(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := newestFirst(withDetails(r.db.WithContext(ctx))).
		Where("author_id = ?", authorID).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, r.loadLikes(ctx, posts)
}

func (r *postRepository) ListPopular(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Order("posts.like_count DESC").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, r.loadLikes(ctx, posts)
}

func (r *postRepository) ListRelated(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := newestFirst(withDetails(r.db.WithContext(ctx))).
		Where("category_id = ? AND id <> ?", post.CategoryID, post.ID).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, r.loadLikes(ctx, posts)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withDetails(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, readError(err, "Post not found")
	}
	if err := r.loadLikes(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := withDetails(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, readError(err, "Post not found")
	}
	if err := r.loadLikes(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return writeError(err)
	}
	r.logger.LogWrite(ctx, "create", "post_id", post.ID, "slug", post.Slug)
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(post).
		Omit(clause.Associations).
		Select("title", "slug", "excerpt", "content", "image_url", "category_id", "updated_at").
		Updates(post).Error
	if err != nil {
		return writeError(err)
	}
	r.logger.LogWrite(ctx, "update", "post_id", post.ID)
	return nil
}

// Delete removes the post together with its likes, bookmarks and comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []any{&models.PostLike{}, &models.Bookmark{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		r.logger.LogError(ctx, err, "delete")
		return readError(err, "Post not found")
	}
	r.logger.LogWrite(ctx, "delete", "post_id", id)
	return nil
}

// ToggleLike flips userID's like on the post and recomputes like_count in one
// transaction with the post row locked. It reports whether the post is now liked.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (bool, error) {
	defer observability.TrackQuery("toggle_like", "post_likes")()
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "ToggleLike", "post_likes",
		observability.PostID(postID), observability.UserID(userID))
	defer span.End()

	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := lockForUpdate(tx).Select("id").First(&post, postID).Error; err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.PostLike{PostID: postID, UserID: userID, CreatedAt: time.Now()}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			liked = true
		}

		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = ?)", postID)).
			Error
	})
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return false, readError(err, "Post not found")
	}
	return liked, nil
}

// loadLikes fills Likes with the liking user IDs in like order.
func (r *postRepository) loadLikes(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		p.Likes = []uint{}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	var likes []models.PostLike
	if err := r.db.WithContext(ctx).
		Select("post_id", "user_id").
		Where("post_id IN ?", ids).
		Order("id ASC").
		Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, like := range likes {
		if p := byID[like.PostID]; p != nil {
			p.Likes = append(p.Likes, like.UserID)
		}
	}
	return nil
}
