package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func carbonara() *model.Recipe {
	return &model.Recipe{
		ID:    "r1",
		Slug:  "spaghetti-carbonara",
		Title: "Spaghetti Carbonara",
		Reviews: []model.Review{
			{ID: "v1", UserID: "u1", RecipeID: "r1", Rating: 4},
			{ID: "v2", UserID: "u2", RecipeID: "r1", Rating: 5},
			{ID: "v3", UserID: "u3", RecipeID: "r1", Rating: 3},
		},
	}
}

func TestRecipeGetBySlug_ComputesRating(t *testing.T) {
	repo := &mockRecipeRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Recipe, error) {
			return carbonara(), nil
		},
	}
	svc := NewRecipeService(repo, adminActor(), newSpyCache(), testLogger())

	got, err := svc.GetBySlug(context.Background(), "spaghetti-carbonara")
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if got.Rating != 4.0 {
		t.Errorf("Rating = %v, want 4.0", got.Rating)
	}
	if got.ReviewCount != 3 {
		t.Errorf("ReviewCount = %d, want 3", got.ReviewCount)
	}
}

// The second read must come from the cache: the store is hit exactly once.
func TestRecipeGetBySlug_SecondReadServedFromCache(t *testing.T) {
	repo := &mockRecipeRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Recipe, error) {
			return carbonara(), nil
		},
	}
	cacheSpy := newSpyCache()
	svc := NewRecipeService(repo, adminActor(), cacheSpy, testLogger())

	first, err := svc.GetBySlug(context.Background(), "spaghetti-carbonara")
	if err != nil {
		t.Fatalf("first GetBySlug() error = %v", err)
	}
	second, err := svc.GetBySlug(context.Background(), "spaghetti-carbonara")
	if err != nil {
		t.Fatalf("second GetBySlug() error = %v", err)
	}

	if repo.getBySlugCalls != 1 {
		t.Errorf("store hit %d times, want 1", repo.getBySlugCalls)
	}
	if second.Rating != first.Rating || second.Title != first.Title {
		t.Errorf("cached read differs: %+v vs %+v", second, first)
	}
	if ttl, ok := cacheSpy.setTTLs["recipe:spaghetti-carbonara"]; !ok || ttl.Seconds() != 3600 {
		t.Errorf("cache set TTL = %v, want 1h under recipe:<slug>", ttl)
	}
}

func TestRecipeGetBySlug_NotFoundNotRetried(t *testing.T) {
	repo := &mockRecipeRepo{}
	svc := NewRecipeService(repo, adminActor(), newSpyCache(), testLogger())

	_, err := svc.GetBySlug(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetBySlug() error = %v, want ErrNotFound", err)
	}
	if repo.getBySlugCalls != 1 {
		t.Errorf("store hit %d times, want 1 (no retry on NotFound)", repo.getBySlugCalls)
	}
}

func TestRecipeGetBySlug_TransientFailureExhaustsRetries(t *testing.T) {
	repo := &mockRecipeRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Recipe, error) {
			return nil, errors.New("disk on fire")
		},
	}
	svc := NewRecipeService(repo, adminActor(), newSpyCache(), testLogger())

	_, err := svc.GetBySlug(context.Background(), "spaghetti-carbonara")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("GetBySlug() error = %v, want ErrUnavailable", err)
	}
	if repo.getBySlugCalls != 3 {
		t.Errorf("store hit %d times, want 3", repo.getBySlugCalls)
	}
}

func TestRecipeList_ComputesPerRecipeRatings(t *testing.T) {
	repo := &mockRecipeRepo{
		listFn: func(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
			return []model.Recipe{
				*carbonara(),
				{ID: "r2", Slug: "plain", Title: "Plain"},
			}, nil
		},
	}
	svc := NewRecipeService(repo, adminActor(), newSpyCache(), testLogger())

	got, err := svc.List(context.Background(), repository.RecipeFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got[0].Rating != 4.0 {
		t.Errorf("got[0].Rating = %v, want 4.0", got[0].Rating)
	}
	if got[1].Rating != 0 || got[1].ReviewCount != 0 {
		t.Errorf("unreviewed recipe rating = %v/%d, want 0/0", got[1].Rating, got[1].ReviewCount)
	}
}

func TestRecipeSearch_EmptyQueryShortCircuits(t *testing.T) {
	repo := &mockRecipeRepo{}
	svc := NewRecipeService(repo, adminActor(), newSpyCache(), testLogger())

	for _, query := range []string{"", "   "} {
		got, err := svc.Search(context.Background(), query, "")
		if err != nil {
			t.Fatalf("Search(%q) error = %v", query, err)
		}
		if len(got) != 0 {
			t.Errorf("Search(%q) = %+v, want empty", query, got)
		}
	}
	if repo.searchCalls != 0 {
		t.Errorf("store hit %d times for empty queries, want 0", repo.searchCalls)
	}
}

func TestRecipeSearch_CachesUnderCompositeKey(t *testing.T) {
	repo := &mockRecipeRepo{
		searchFn: func(ctx context.Context, query, categorySlug string) ([]model.Recipe, error) {
			return []model.Recipe{*carbonara()}, nil
		},
	}
	cacheSpy := newSpyCache()
	svc := NewRecipeService(repo, adminActor(), cacheSpy, testLogger())

	if _, err := svc.Search(context.Background(), "carbonara", "pasta"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, err := svc.Search(context.Background(), "carbonara", "pasta"); err != nil {
		t.Fatalf("second Search() error = %v", err)
	}

	if repo.searchCalls != 1 {
		t.Errorf("store hit %d times, want 1", repo.searchCalls)
	}
	if ttl, ok := cacheSpy.setTTLs["search:carbonara:pasta"]; !ok || ttl.Minutes() != 15 {
		t.Errorf("search cache TTL = %v under search:carbonara:pasta, want 15m", ttl)
	}
}

func TestRecipeCreate_RequiresAdmin(t *testing.T) {
	svc := NewRecipeService(&mockRecipeRepo{}, adminActor(), newSpyCache(), testLogger())
	input := RecipeInput{Title: "My Dish"}

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "", input)
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Create() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("non-admin", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "bob", input)
		if !errors.Is(err, apperror.ErrForbidden) {
			t.Errorf("Create() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("unknown actor", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "ghost", input)
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Create() error = %v, want ErrUnauthorized", err)
		}
	})
}

func TestRecipeCreate_SuffixesSlugOnCollision(t *testing.T) {
	repo := &mockRecipeRepo{
		slugExistsFn: func(ctx context.Context, slug string) (bool, error) {
			return slug == "my-dish", nil
		},
	}
	svc := NewRecipeService(repo, adminActor(), newSpyCache(), testLogger())

	got, err := svc.Create(context.Background(), "admin", RecipeInput{Title: "My Dish"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Slug != "my-dish-2" {
		t.Errorf("Slug = %q, want my-dish-2", got.Slug)
	}
}

func TestRecipeCreate_InvalidInput(t *testing.T) {
	svc := NewRecipeService(&mockRecipeRepo{}, adminActor(), newSpyCache(), testLogger())

	_, err := svc.Create(context.Background(), "admin", RecipeInput{Title: "   "})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestRecipeCreate_InvalidatesListings(t *testing.T) {
	cacheSpy := newSpyCache()
	svc := NewRecipeService(&mockRecipeRepo{}, adminActor(), cacheSpy, testLogger())

	if _, err := svc.Create(context.Background(), "admin", RecipeInput{Title: "My Dish"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !cacheSpy.deleted("recipes") {
		t.Error("recipes listing key not invalidated")
	}
	// Category caches embed recipe counts, so they go stale on every
	// recipe write and must be dropped too.
	if !cacheSpy.deleted("categories") {
		t.Error("categories listing key not invalidated")
	}
	if len(cacheSpy.deletePatterns) != 2 ||
		cacheSpy.deletePatterns[0] != "search:*" ||
		cacheSpy.deletePatterns[1] != "category:*" {
		t.Errorf("deletePatterns = %v, want [search:* category:*]", cacheSpy.deletePatterns)
	}
}

func TestRecipeUpdate_TitleChangeRegeneratesSlug(t *testing.T) {
	repo := &mockRecipeRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Recipe, error) {
			return &model.Recipe{ID: "r1", Slug: "old-dish", Title: "Old Dish"}, nil
		},
	}
	cacheSpy := newSpyCache()
	svc := NewRecipeService(repo, adminActor(), cacheSpy, testLogger())

	got, err := svc.Update(context.Background(), "admin", "old-dish", RecipeInput{Title: "New Dish"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Slug != "new-dish" {
		t.Errorf("Slug = %q, want new-dish", got.Slug)
	}
	if !cacheSpy.deleted("recipe:old-dish") || !cacheSpy.deleted("recipe:new-dish") {
		t.Errorf("deleted keys = %v, want both old and new recipe keys", cacheSpy.deletedKeys)
	}
}

func TestRecipeUpdate_SameTitleKeepsSlug(t *testing.T) {
	repo := &mockRecipeRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Recipe, error) {
			return &model.Recipe{ID: "r1", Slug: "my-dish", Title: "My Dish"}, nil
		},
		// A regenerated slug would collide with the recipe itself; an
		// unchanged title must not reach slug generation at all.
		slugExistsFn: func(ctx context.Context, slug string) (bool, error) {
			return true, nil
		},
	}
	svc := NewRecipeService(repo, adminActor(), newSpyCache(), testLogger())

	got, err := svc.Update(context.Background(), "admin", "my-dish", RecipeInput{Title: "My Dish"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Slug != "my-dish" {
		t.Errorf("Slug = %q, want my-dish unchanged", got.Slug)
	}
}

func TestRecipeDelete_InvalidatesProjection(t *testing.T) {
	repo := &mockRecipeRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Recipe, error) {
			return &model.Recipe{ID: "r1", Slug: slug}, nil
		},
	}
	cacheSpy := newSpyCache()
	svc := NewRecipeService(repo, adminActor(), cacheSpy, testLogger())

	if err := svc.Delete(context.Background(), "admin", "my-dish"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !cacheSpy.deleted("recipe:my-dish") || !cacheSpy.deleted("recipes") {
		t.Errorf("deleted keys = %v, want recipe:my-dish and recipes", cacheSpy.deletedKeys)
	}
	if !cacheSpy.deleted("categories") {
		t.Error("categories listing key not invalidated")
	}
	if len(cacheSpy.deletePatterns) != 2 || cacheSpy.deletePatterns[1] != "category:*" {
		t.Errorf("deletePatterns = %v, want category:* alongside search:*", cacheSpy.deletePatterns)
	}
}
