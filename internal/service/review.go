package service

import (
	"context"
	"log/slog"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/cache"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/repository"
	"github.com/tasteboard/tasteboard/internal/retry"
)

type ReviewService struct {
	reviews repository.ReviewRepository
	recipes repository.RecipeRepository
	cache   cache.Cache
	logger  *slog.Logger
}

func NewReviewService(reviews repository.ReviewRepository, recipes repository.RecipeRepository, c cache.Cache, logger *slog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, recipes: recipes, cache: c, logger: logger}
}

// Submit records a user's review of a recipe. A user holds at most one
// review per recipe; resubmitting replaces the rating and comment in place.
// The write is a single atomic upsert and is not retried.
func (s *ReviewService) Submit(ctx context.Context, userID, recipeID string, ratingValue int, comment string) (*model.Review, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}
	if ratingValue < 1 || ratingValue > 5 {
		return nil, apperror.ValidationFailed("rating", "rating must be between 1 and 5")
	}

	// The recipe lookup both rejects reviews of absent recipes and yields
	// the slug needed for cache invalidation.
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	review := &model.Review{
		UserID:   userID,
		RecipeID: recipeID,
		Rating:   ratingValue,
		Comment:  comment,
	}
	if err := s.reviews.Upsert(ctx, review); err != nil {
		return nil, err
	}

	// The cached projection embeds the review list and the derived rating,
	// so it must go; listings and search results carry ratings too.
	s.cache.Delete(ctx, cache.RecipeKey(recipe.Slug), cache.RecipesKey)
	s.cache.DeleteMatching(ctx, cache.SearchPattern)

	s.logger.Info("review submitted", "recipe", recipe.Slug, "user", userID, "rating", ratingValue)
	return review, nil
}

// ListForRecipe returns a recipe's reviews, newest first, with reviewer
// summaries attached.
func (s *ReviewService) ListForRecipe(ctx context.Context, recipeID string) ([]model.Review, error) {
	return retry.Read(ctx, func(ctx context.Context) ([]model.Review, error) {
		return s.reviews.ListByRecipe(ctx, recipeID)
	})
}
