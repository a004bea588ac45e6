package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"quill/internal/cache"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
	"quill/internal/validation"
)

const (
	popularPostsLimit = 4
	relatedPostsLimit = 3
)

type PostService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
}

type ListPostsInput struct {
	Keyword string
	// Category is the raw category query value; it must be a numeric ID to match anything.
	Category string
	Page     int
}

type CreatePostInput struct {
	AuthorID   uint   `json:"-"`
	Title      string `json:"title" validate:"notblank"`
	Slug       string `json:"slug" validate:"notblank"`
	Excerpt    string `json:"excerpt" validate:"notblank"`
	Content    string `json:"content" validate:"notblank"`
	ImageURL   string `json:"imageUrl" validate:"notblank"`
	CategoryID uint   `json:"category" validate:"required"`
}

// UpdatePostInput carries a partial edit; zero values keep the stored field.
type UpdatePostInput struct {
	PostID     uint
	EditorID   uint
	Title      string
	Slug       string
	Excerpt    string
	Content    string
	ImageURL   string
	CategoryID uint
}

type DeletePostInput struct {
	PostID      uint
	RequesterID uint
}

func NewPostService(postRepo repository.PostRepository, categoryRepo repository.CategoryRepository) *PostService {
	return &PostService{postRepo: postRepo, categoryRepo: categoryRepo}
}

// ListPosts returns one newest-first page of posts filtered by title keyword and category.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}

	filter := repository.PostFilter{Keyword: in.Keyword, Page: page, PageSize: models.PostPageSize}
	if raw := strings.TrimSpace(in.Category); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return &models.PostPage{Posts: []*models.Post{}, Page: page, Pages: 0}, nil
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	posts, total, err := s.postRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &models.PostPage{Posts: posts, Page: page, Pages: models.PageCount(total)}, nil
}

func (s *PostService) ListMyPosts(ctx context.Context, authorID uint) ([]*models.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return nonNilPosts(posts), nil
}

// ListPopular returns the most liked posts, served from cache when possible.
func (s *PostService) ListPopular(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, cache.PopularPostsKey, &posts, cache.PopularPostsTTL, func() error {
		var fetchErr error
		posts, fetchErr = s.postRepo.ListPopular(ctx, popularPostsLimit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return nonNilPosts(posts), nil
}

func (s *PostService) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	slug = validation.NormalizeSlug(slug)
	if slug == "" {
		return nil, models.NewNotFoundError("Post not found")
	}

	var post *models.Post
	err := cache.Aside(ctx, cache.PostSlugKey(slug), &post, cache.PostSlugTTL, func() error {
		var fetchErr error
		post, fetchErr = s.postRepo.GetBySlug(ctx, slug)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	slug := validation.NormalizeSlug(in.Slug)

	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	taken, err := s.postRepo.SlugTaken(ctx, slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, slugConflict()
	}

	post := &models.Post{
		AuthorID:   in.AuthorID,
		Title:      strings.TrimSpace(in.Title),
		Slug:       slug,
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		ImageURL:   strings.TrimSpace(in.ImageURL),
		CategoryID: in.CategoryID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, mapSlugError(err)
	}

	cache.InvalidatePost(ctx)
	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.EditorID {
		return nil, models.NewAuthorizationError("User not authorized")
	}
	oldSlug := post.Slug

	if v := strings.TrimSpace(in.Title); v != "" {
		post.Title = v
	}
	if v := validation.NormalizeSlug(in.Slug); v != "" && v != post.Slug {
		taken, err := s.postRepo.SlugTaken(ctx, v, post.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, slugConflict()
		}
		post.Slug = v
	}
	if strings.TrimSpace(in.Excerpt) != "" {
		post.Excerpt = in.Excerpt
	}
	if strings.TrimSpace(in.Content) != "" {
		post.Content = in.Content
	}
	if v := strings.TrimSpace(in.ImageURL); v != "" {
		post.ImageURL = v
	}
	if in.CategoryID != 0 && in.CategoryID != post.CategoryID {
		if err := s.requireCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		post.CategoryID = in.CategoryID
	}
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, mapSlugError(err)
	}

	cache.InvalidatePost(ctx, oldSlug, post.Slug)
	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) Delete(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.AuthorID != in.RequesterID {
		return models.NewAuthorizationError("User not authorized")
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}

	cache.InvalidatePost(ctx, post.Slug)
	return nil
}

// ToggleLike likes or unlikes the post for userID and returns the updated post.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (*models.Post, error) {
	liked, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	action := "unliked"
	if liked {
		action = "liked"
	}
	observability.LikeToggles.WithLabelValues(action).Inc()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, post.Slug)
	return post, nil
}

// RelatedPosts returns up to three other posts in the same category, newest first.
func (s *PostService) RelatedPosts(ctx context.Context, postID uint) ([]*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	related, err := s.postRepo.ListRelated(ctx, post, relatedPostsLimit)
	if err != nil {
		return nil, err
	}
	return nonNilPosts(related), nil
}

func (s *PostService) requireCategory(ctx context.Context, id uint) error {
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return models.NewValidationError("Category not found")
		}
		return err
	}
	return nil
}

func slugConflict() *models.AppError {
	return models.NewConflictError("A post with this slug already exists")
}

func mapSlugError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return slugConflict()
	}
	return err
}

func nonNilPosts(posts []*models.Post) []*models.Post {
	if posts == nil {
		return []*models.Post{}
	}
	return posts
}
