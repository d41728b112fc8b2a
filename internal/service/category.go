package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/cache"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/repository"
	"github.com/tasteboard/tasteboard/internal/retry"
	"github.com/tasteboard/tasteboard/internal/slugger"
)

// DefaultPageSize is the category page size when the client does not ask for
// one.
const DefaultPageSize = 12

// CategoryInput carries the client-supplied category fields.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PublicID    string `json:"publicId,omitempty"`
}

type CategoryService struct {
	categories repository.CategoryRepository
	users      repository.UserRepository
	cache      cache.Cache
	logger     *slog.Logger
}

func NewCategoryService(categories repository.CategoryRepository, users repository.UserRepository, c cache.Cache, logger *slog.Logger) *CategoryService {
	return &CategoryService{categories: categories, users: users, cache: c, logger: logger}
}

// GetBySlug returns the category with one page of its recipes. Only the
// page-independent metadata (including the total recipe count) is cached;
// the recipe page is always read fresh so every page shares one cache entry.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string, page, pageSize int) (*model.Category, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	key := cache.CategoryKey(slug)

	var category *model.Category
	var cached model.Category
	if s.cache.Get(ctx, key, &cached) {
		category = &cached
	} else {
		fresh, err := retry.Read(ctx, func(ctx context.Context) (*model.Category, error) {
			return s.categories.GetBySlug(ctx, slug)
		})
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, key, fresh, cache.CategoryTTL)
		category = fresh
	}

	recipes, err := retry.Read(ctx, func(ctx context.Context) ([]model.Recipe, error) {
		return s.categories.RecipePage(ctx, category.ID, repository.Page{
			Limit:  pageSize,
			Offset: (page - 1) * pageSize,
		})
	})
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		decorateRecipe(&recipes[i])
	}

	category.Recipes = recipes
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if s.cache.Get(ctx, cache.CategoriesKey, &cached) {
		return cached, nil
	}

	categories, err := retry.Read(ctx, func(ctx context.Context) ([]model.Category, error) {
		return s.categories.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cache.CategoriesKey, categories, cache.CategoriesTTL)
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, actorID string, input CategoryInput) (*model.Category, error) {
	if err := requireAdmin(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	slug, err := slugger.Unique(ctx, input.Name, s.categories.SlugExists)
	if err != nil {
		return nil, err
	}

	category := &model.Category{
		Slug:        slug,
		Name:        input.Name,
		Description: input.Description,
		PublicID:    input.PublicID,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.CategoriesKey)
	s.logger.Info("category created", "slug", category.Slug, "actor", actorID)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, actorID, slug string, input CategoryInput) (*model.Category, error) {
	if err := requireAdmin(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if input.Name != category.Name {
		newSlug, err := slugger.Unique(ctx, input.Name, s.categories.SlugExists)
		if err != nil {
			return nil, err
		}
		category.Slug = newSlug
	}
	category.Name = input.Name
	category.Description = input.Description
	category.PublicID = input.PublicID

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.CategoryKey(slug), cache.CategoryKey(category.Slug), cache.CategoriesKey)
	s.logger.Info("category updated", "slug", category.Slug, "actor", actorID)
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, actorID, slug string) error {
	if err := requireAdmin(ctx, s.users, actorID); err != nil {
		return err
	}

	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, category.ID); err != nil {
		return err
	}

	s.cache.Delete(ctx, cache.CategoryKey(slug), cache.CategoriesKey)
	s.logger.Info("category deleted", "slug", slug, "actor", actorID)
	return nil
}
