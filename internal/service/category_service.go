package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quill/internal/cache"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		var fetchErr error
		categories, fetchErr = s.categoryRepo.List(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Please add all required fields: name")
	}
	slug := validation.CategorySlug(name)

	exists, err := s.categoryRepo.ExistsByNameOrSlug(ctx, name, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, categoryExists()
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, categoryExists()
		}
		return nil, err
	}

	cache.InvalidateCategories(ctx)
	return category, nil
}

func categoryExists() *models.AppError {
	return models.NewConflictError("Category already exists").WithStatus(http.StatusBadRequest)
}
