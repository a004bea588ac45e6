package service

import (
	"context"
	"errors"
	"testing"

	"quill/internal/models"
	"quill/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	listFn         func(context.Context, repository.PostFilter) ([]*models.Post, int64, error)
	listByAuthorFn func(context.Context, uint) ([]*models.Post, error)
	listPopularFn  func(context.Context, int) ([]*models.Post, error)
	listRelatedFn  func(context.Context, *models.Post, int) ([]*models.Post, error)
	getByIDFn      func(context.Context, uint) (*models.Post, error)
	getBySlugFn    func(context.Context, string) (*models.Post, error)
	existsFn       func(context.Context, uint) (bool, error)
	slugTakenFn    func(context.Context, string, uint) (bool, error)
	createFn       func(context.Context, *models.Post) error
	updateFn       func(context.Context, *models.Post) error
	deleteFn       func(context.Context, uint) error
	toggleLikeFn   func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, int64, error) {
	return s.listFn(ctx, filter)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID)
}
func (s *postRepoStub) ListPopular(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.listPopularFn(ctx, limit)
}
func (s *postRepoStub) ListRelated(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error) {
	return s.listRelatedFn(ctx, post, limit)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return s.slugTakenFn(ctx, slug, excludeID)
}
func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, postID, userID uint) (bool, error) {
	return s.toggleLikeFn(ctx, postID, userID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		listFn:         func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) { return nil, 0, nil },
		listByAuthorFn: func(_ context.Context, _ uint) ([]*models.Post, error) { return nil, nil },
		listPopularFn:  func(_ context.Context, _ int) ([]*models.Post, error) { return nil, nil },
		listRelatedFn:  func(_ context.Context, _ *models.Post, _ int) ([]*models.Post, error) { return nil, nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		getBySlugFn:    func(_ context.Context, slug string) (*models.Post, error) { return &models.Post{Slug: slug}, nil },
		existsFn:       func(_ context.Context, _ uint) (bool, error) { return true, nil },
		slugTakenFn:    func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		createFn:       func(_ context.Context, _ *models.Post) error { return nil },
		updateFn:       func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
		toggleLikeFn:   func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	listFn    func(context.Context) ([]models.Category, error)
	getByIDFn func(context.Context, uint) (*models.Category, error)
	existsFn  func(context.Context, string, string) (bool, error)
	createFn  func(context.Context, *models.Category) error
}

func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) ExistsByNameOrSlug(ctx context.Context, name, slug string) (bool, error) {
	return s.existsFn(ctx, name, slug)
}
func (s *categoryRepoStub) Create(ctx context.Context, category *models.Category) error {
	return s.createFn(ctx, category)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		listFn:    func(_ context.Context) ([]models.Category, error) { return nil, nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Category, error) { return &models.Category{ID: id}, nil },
		existsFn:  func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		createFn:  func(_ context.Context, _ *models.Category) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getByEmailFn      func(context.Context, string) (*models.User, error)
	existsFn          func(context.Context, uint) (bool, error)
	createFn          func(context.Context, *models.User) error
	updateFn          func(context.Context, *models.User) error
	bookmarkIDsFn     func(context.Context, uint) ([]uint, error)
	toggleBookmarkFn  func(context.Context, uint, uint) (bool, error)
	bookmarkedPostsFn func(context.Context, uint) ([]*models.Post, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) BookmarkIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.bookmarkIDsFn(ctx, userID)
}
func (s *userRepoStub) ToggleBookmark(ctx context.Context, userID, postID uint) (bool, error) {
	return s.toggleBookmarkFn(ctx, userID, postID)
}
func (s *userRepoStub) BookmarkedPosts(ctx context.Context, userID uint) ([]*models.Post, error) {
	return s.bookmarkedPostsFn(ctx, userID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:      func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		existsFn:          func(_ context.Context, _ uint) (bool, error) { return true, nil },
		createFn:          func(_ context.Context, _ *models.User) error { return nil },
		updateFn:          func(_ context.Context, _ *models.User) error { return nil },
		bookmarkIDsFn:     func(_ context.Context, _ uint) ([]uint, error) { return []uint{}, nil },
		toggleBookmarkFn:  func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		bookmarkedPostsFn: func(_ context.Context, _ uint) ([]*models.Post, error) { return nil, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, _ uint) (*models.Comment, error) {
			return nil, models.NewNotFoundError("Comment not found")
		},
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return []*models.Comment{}, nil },
	}
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	appErr := assertAppError(t, err, models.CodeAuthorization)
	assert.Equal(t, "User not authorized", appErr.Message)
}
