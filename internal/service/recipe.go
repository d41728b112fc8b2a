// Package service holds the business logic between handlers and storage.
// Services own the cache-aside read paths, admin authorization, slug
// lifecycle and cache invalidation; handlers stay thin.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/cache"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/rating"
	"github.com/tasteboard/tasteboard/internal/repository"
	"github.com/tasteboard/tasteboard/internal/retry"
	"github.com/tasteboard/tasteboard/internal/slugger"
)

// RecipeInput carries the client-supplied recipe fields for create and
// update. Media nil means "leave media unchanged" on update.
type RecipeInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Content     json.RawMessage    `json:"content,omitempty"`
	Ingredients []model.Ingredient `json:"ingredients"`
	Steps       []model.Step       `json:"steps"`
	Nutrition   json.RawMessage    `json:"nutrition,omitempty"`
	CookTime    int                `json:"cookTime"`
	PrepTime    int                `json:"prepTime"`
	Servings    int                `json:"servings"`
	Video       string             `json:"video,omitempty"`
	CategoryIDs []string           `json:"categoryIds"`
	Media       []model.Media      `json:"media,omitempty"`
}

type RecipeService struct {
	recipes repository.RecipeRepository
	users   repository.UserRepository
	cache   cache.Cache
	logger  *slog.Logger
}

func NewRecipeService(recipes repository.RecipeRepository, users repository.UserRepository, c cache.Cache, logger *slog.Logger) *RecipeService {
	return &RecipeService{recipes: recipes, users: users, cache: c, logger: logger}
}

// GetBySlug serves the recipe projection cache-aside: probe the cache, fall
// back to the store with bounded retries, decorate with the derived rating,
// then populate the cache for the next reader.
func (s *RecipeService) GetBySlug(ctx context.Context, slug string) (*model.Recipe, error) {
	key := cache.RecipeKey(slug)

	var cached model.Recipe
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	recipe, err := retry.Read(ctx, func(ctx context.Context) (*model.Recipe, error) {
		return s.recipes.GetBySlug(ctx, slug)
	})
	if err != nil {
		return nil, err
	}

	decorateRecipe(recipe)
	s.cache.Set(ctx, key, recipe, cache.RecipeTTL)
	return recipe, nil
}

// List always reads the store: the listing reflects writes immediately and
// is cheap enough to skip the cache.
func (s *RecipeService) List(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
	recipes, err := retry.Read(ctx, func(ctx context.Context) ([]model.Recipe, error) {
		return s.recipes.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		decorateRecipe(&recipes[i])
	}
	return recipes, nil
}

// Search matches the query against title and description. An empty query
// returns no results without touching cache or store.
func (s *RecipeService) Search(ctx context.Context, query, categorySlug string) ([]model.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Recipe{}, nil
	}

	key := cache.SearchKey(query, categorySlug)

	var cached []model.Recipe
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	recipes, err := retry.Read(ctx, func(ctx context.Context) ([]model.Recipe, error) {
		return s.recipes.Search(ctx, query, categorySlug)
	})
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		decorateRecipe(&recipes[i])
	}

	s.cache.Set(ctx, key, recipes, cache.SearchTTL)
	return recipes, nil
}

// Create persists a new recipe on behalf of an admin. The slug derives from
// the title, with a numeric suffix when taken.
func (s *RecipeService) Create(ctx context.Context, actorID string, input RecipeInput) (*model.Recipe, error) {
	if err := requireAdmin(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	if err := validateRecipeInput(input); err != nil {
		return nil, err
	}

	slug, err := slugger.Unique(ctx, input.Title, s.recipes.SlugExists)
	if err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		Slug:        slug,
		Title:       input.Title,
		Description: input.Description,
		Content:     input.Content,
		Ingredients: input.Ingredients,
		Steps:       input.Steps,
		Nutrition:   input.Nutrition,
		CookTime:    input.CookTime,
		PrepTime:    input.PrepTime,
		Servings:    input.Servings,
		Video:       input.Video,
		AuthorID:    actorID,
		Categories:  categorySummaries(input.CategoryIDs),
		Media:       input.Media,
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	s.logger.Info("recipe created", "slug", recipe.Slug, "actor", actorID)
	return recipe, nil
}

// Update rewrites the recipe identified by slug. A title change regenerates
// the slug, so the returned recipe may live at a new address.
func (s *RecipeService) Update(ctx context.Context, actorID, slug string, input RecipeInput) (*model.Recipe, error) {
	if err := requireAdmin(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	if err := validateRecipeInput(input); err != nil {
		return nil, err
	}

	recipe, err := s.recipes.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if input.Title != recipe.Title {
		newSlug, err := slugger.Unique(ctx, input.Title, s.recipes.SlugExists)
		if err != nil {
			return nil, err
		}
		recipe.Slug = newSlug
	}

	recipe.Title = input.Title
	recipe.Description = input.Description
	recipe.Content = input.Content
	recipe.Ingredients = input.Ingredients
	recipe.Steps = input.Steps
	recipe.Nutrition = input.Nutrition
	recipe.CookTime = input.CookTime
	recipe.PrepTime = input.PrepTime
	recipe.Servings = input.Servings
	recipe.Video = input.Video
	recipe.Categories = categorySummaries(input.CategoryIDs)
	recipe.Media = input.Media

	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.RecipeKey(slug), cache.RecipeKey(recipe.Slug))
	s.invalidateListings(ctx)
	s.logger.Info("recipe updated", "slug", recipe.Slug, "actor", actorID)

	decorateRecipe(recipe)
	return recipe, nil
}

func (s *RecipeService) Delete(ctx context.Context, actorID, slug string) error {
	if err := requireAdmin(ctx, s.users, actorID); err != nil {
		return err
	}

	recipe, err := s.recipes.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipe.ID); err != nil {
		return err
	}

	s.cache.Delete(ctx, cache.RecipeKey(slug))
	s.invalidateListings(ctx)
	s.logger.Info("recipe deleted", "slug", slug, "actor", actorID)
	return nil
}

// invalidateListings drops every cached projection a recipe write can touch:
// the listing, search results, and the category caches whose RecipeCount the
// write may have changed.
func (s *RecipeService) invalidateListings(ctx context.Context) {
	s.cache.Delete(ctx, cache.RecipesKey, cache.CategoriesKey)
	s.cache.DeleteMatching(ctx, cache.SearchPattern)
	s.cache.DeleteMatching(ctx, cache.CategoryPattern)
}

func validateRecipeInput(input RecipeInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if input.Servings < 0 {
		return apperror.ValidationFailed("servings", "servings cannot be negative")
	}
	if input.CookTime < 0 || input.PrepTime < 0 {
		return apperror.ValidationFailed("cookTime", "times cannot be negative")
	}
	return nil
}

func categorySummaries(ids []string) []model.CategorySummary {
	if len(ids) == 0 {
		return nil
	}
	summaries := make([]model.CategorySummary, len(ids))
	for i, id := range ids {
		summaries[i] = model.CategorySummary{ID: id}
	}
	return summaries
}

// decorateRecipe computes the derived rating fields from the loaded reviews.
func decorateRecipe(recipe *model.Recipe) {
	recipe.Rating = rating.Average(recipe.Reviews)
	recipe.ReviewCount = len(recipe.Reviews)
}

// requireAdmin authorizes a mutating call: the actor must be authenticated
// and hold the ADMIN role in the store. The stored role is the only signal
// consulted; token claims are not trusted for authorization.
func requireAdmin(ctx context.Context, users repository.UserRepository, actorID string) error {
	if actorID == "" {
		return apperror.Unauthorized("authentication required")
	}
	user, err := users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized("unknown user")
		}
		return err
	}
	if !user.IsAdmin() {
		return apperror.Forbidden("admin access required")
	}
	return nil
}
