package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"quill/internal/cache"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
	"quill/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs an access token for a user.
type TokenIssuer func(userID uint) (string, error)

type UserService struct {
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
	issueToken TokenIssuer
	hashCost   int
}

type RegisterInput struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput is a partial profile edit. Empty strings keep the stored
// value; a non-nil Bio replaces the bio even when empty.
type UpdateProfileInput struct {
	UserID    uint    `json:"-"`
	Name      string  `json:"name"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Bio       *string `json:"bio"`
	AvatarURL string  `json:"avatarUrl"`
	Password  string  `json:"password"`
}

// AuthResponse is returned by register, login and profile updates.
type AuthResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
	Bookmarks []uint `json:"bookmarks"`
	Token     string `json:"token"`
}

// ProfileResponse is a user's public profile with their posts.
type ProfileResponse struct {
	User  *models.User   `json:"user"`
	Posts []*models.Post `json:"posts"`
}

func NewUserService(userRepo repository.UserRepository, postRepo repository.PostRepository, issueToken TokenIssuer) *UserService {
	return &UserService{
		userRepo:   userRepo,
		postRepo:   postRepo,
		issueToken: issueToken,
		hashCost:   bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost, e.g. bcrypt.MinCost in tests.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, userExists()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, Password: string(hash)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, userExists()
		}
		return nil, err
	}
	user.Bookmarks = []uint{}
	return s.authResponse(user)
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, models.NewAuthenticationError("Invalid email or password")
	}
	if err := s.loadBookmarks(ctx, user); err != nil {
		return nil, err
	}
	return s.authResponse(user)
}

// GetProfile returns a user's public profile and posts, newest first.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.loadBookmarks(ctx, user); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{User: user, Posts: nonNilPosts(posts)}, nil
}

func (s *UserService) GetOwnDetails(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.loadBookmarks(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies a partial edit and issues a fresh token.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*AuthResponse, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	summaryChanged := false
	if v := strings.TrimSpace(in.Name); v != "" && v != user.Name {
		user.Name = v
		summaryChanged = true
	}
	if in.Email != "" && in.Email != user.Email {
		other, err := s.userRepo.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != user.ID {
			return nil, models.NewConflictError("Email already in use").WithStatus(http.StatusBadRequest)
		}
		user.Email = in.Email
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if v := strings.TrimSpace(in.AvatarURL); v != "" && v != user.AvatarURL {
		user.AvatarURL = v
		summaryChanged = true
	}
	if in.Password != "" {
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hash)
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Email already in use").WithStatus(http.StatusBadRequest)
		}
		return nil, err
	}
	if summaryChanged {
		s.invalidateAuthoredPosts(ctx, user.ID)
	}
	if err := s.loadBookmarks(ctx, user); err != nil {
		return nil, err
	}
	return s.authResponse(user)
}

// invalidateAuthoredPosts drops cached post views that embed the author summary.
func (s *UserService) invalidateAuthoredPosts(ctx context.Context, authorID uint) {
	posts, err := s.postRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "author posts lookup for cache invalidation failed", "user_id", authorID, "error", err)
		cache.InvalidatePost(ctx)
		return
	}
	slugs := make([]string, 0, len(posts))
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	cache.InvalidatePost(ctx, slugs...)
}

// ToggleBookmark adds or removes the post from the user's bookmarks and
// returns the bookmarked post IDs in bookmark order.
func (s *UserService) ToggleBookmark(ctx context.Context, userID, postID uint) ([]uint, error) {
	added, err := s.userRepo.ToggleBookmark(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	action := "removed"
	if added {
		action = "added"
	}
	observability.BookmarkToggles.WithLabelValues(action).Inc()

	return s.userRepo.BookmarkIDs(ctx, userID)
}

func (s *UserService) ListBookmarkedPosts(ctx context.Context, userID uint) ([]*models.Post, error) {
	posts, err := s.userRepo.BookmarkedPosts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNilPosts(posts), nil
}

func (s *UserService) loadBookmarks(ctx context.Context, user *models.User) error {
	ids, err := s.userRepo.BookmarkIDs(ctx, user.ID)
	if err != nil {
		return err
	}
	user.Bookmarks = ids
	return nil
}

func (s *UserService) authResponse(user *models.User) (*AuthResponse, error) {
	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	bookmarks := user.Bookmarks
	if bookmarks == nil {
		bookmarks = []uint{}
	}
	return &AuthResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Bio:       user.Bio,
		AvatarURL: user.AvatarURL,
		Bookmarks: bookmarks,
		Token:     token,
	}, nil
}

func userExists() *models.AppError {
	return models.NewConflictError("User already exists").WithStatus(http.StatusBadRequest)
}
