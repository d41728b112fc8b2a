package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/repository"
)

func dessertsRepo() *mockCategoryRepo {
	return &mockCategoryRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Category, error) {
			return &model.Category{ID: "c1", Slug: "desserts", Name: "Desserts", RecipeCount: 15}, nil
		},
		recipePageFn: func(ctx context.Context, categoryID string, page repository.Page) ([]model.Recipe, error) {
			recipes := make([]model.Recipe, 0, page.Limit)
			for i := 0; i < page.Limit && page.Offset+i < 15; i++ {
				n := page.Offset + i + 1
				recipes = append(recipes, model.Recipe{
					ID:   fmt.Sprintf("r%d", n),
					Slug: fmt.Sprintf("cake-%d", n),
				})
			}
			return recipes, nil
		},
	}
}

func TestCategoryGetBySlug_Pagination(t *testing.T) {
	repo := dessertsRepo()
	svc := NewCategoryService(repo, adminActor(), newSpyCache(), testLogger())

	t.Run("defaults to page 1 size 12", func(t *testing.T) {
		got, err := svc.GetBySlug(context.Background(), "desserts", 0, 0)
		if err != nil {
			t.Fatalf("GetBySlug() error = %v", err)
		}
		if repo.lastPage.Limit != 12 || repo.lastPage.Offset != 0 {
			t.Errorf("page = %+v, want limit 12 offset 0", repo.lastPage)
		}
		if len(got.Recipes) != 12 {
			t.Errorf("page holds %d recipes, want 12", len(got.Recipes))
		}
	})

	t.Run("second page holds recipes 13 through 15", func(t *testing.T) {
		got, err := svc.GetBySlug(context.Background(), "desserts", 2, 12)
		if err != nil {
			t.Fatalf("GetBySlug() error = %v", err)
		}
		if repo.lastPage.Offset != 12 {
			t.Errorf("offset = %d, want 12", repo.lastPage.Offset)
		}
		if len(got.Recipes) != 3 {
			t.Fatalf("page 2 holds %d recipes, want 3", len(got.Recipes))
		}
		if got.Recipes[0].Slug != "cake-13" {
			t.Errorf("page 2 starts at %s, want cake-13", got.Recipes[0].Slug)
		}
		// Total is page-independent.
		if got.RecipeCount != 15 {
			t.Errorf("RecipeCount = %d, want 15", got.RecipeCount)
		}
	})
}

// Metadata is cached per slug; the recipe page is fetched fresh every time,
// so different pages never serve stale or mixed results.
func TestCategoryGetBySlug_MetadataCachedPageFresh(t *testing.T) {
	repo := dessertsRepo()
	svc := NewCategoryService(repo, adminActor(), newSpyCache(), testLogger())

	if _, err := svc.GetBySlug(context.Background(), "desserts", 1, 12); err != nil {
		t.Fatalf("first GetBySlug() error = %v", err)
	}
	got, err := svc.GetBySlug(context.Background(), "desserts", 2, 12)
	if err != nil {
		t.Fatalf("second GetBySlug() error = %v", err)
	}

	if repo.getBySlugCalls != 1 {
		t.Errorf("metadata store hits = %d, want 1", repo.getBySlugCalls)
	}
	if repo.recipePageCalls != 2 {
		t.Errorf("page store hits = %d, want 2", repo.recipePageCalls)
	}
	if got.Recipes[0].Slug != "cake-13" {
		t.Errorf("cached metadata served wrong page start: %s", got.Recipes[0].Slug)
	}
}

func TestCategoryGetBySlug_NotFound(t *testing.T) {
	svc := NewCategoryService(&mockCategoryRepo{}, adminActor(), newSpyCache(), testLogger())

	_, err := svc.GetBySlug(context.Background(), "no-such", 1, 12)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetBySlug() error = %v, want ErrNotFound", err)
	}
}

func TestCategoryList_Cached(t *testing.T) {
	repo := &mockCategoryRepo{
		listFn: func(ctx context.Context) ([]model.Category, error) {
			return []model.Category{{ID: "c1", Slug: "desserts", Name: "Desserts"}}, nil
		},
	}
	cacheSpy := newSpyCache()
	svc := NewCategoryService(repo, adminActor(), cacheSpy, testLogger())

	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("second List() error = %v", err)
	}

	if repo.listCalls != 1 {
		t.Errorf("store hits = %d, want 1", repo.listCalls)
	}
	if ttl, ok := cacheSpy.setTTLs["categories"]; !ok || ttl.Seconds() != 60 {
		t.Errorf("categories TTL = %v, want 60s", ttl)
	}
}

func TestCategoryCreate_RequiresAdmin(t *testing.T) {
	svc := NewCategoryService(&mockCategoryRepo{}, adminActor(), newSpyCache(), testLogger())

	_, err := svc.Create(context.Background(), "bob", CategoryInput{Name: "Soups"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Create() error = %v, want ErrForbidden", err)
	}
}

func TestCategoryCreate_GeneratesSlugAndInvalidates(t *testing.T) {
	cacheSpy := newSpyCache()
	svc := NewCategoryService(&mockCategoryRepo{}, adminActor(), cacheSpy, testLogger())

	got, err := svc.Create(context.Background(), "admin", CategoryInput{Name: "Street Food"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Slug != "street-food" {
		t.Errorf("Slug = %q, want street-food", got.Slug)
	}
	if !cacheSpy.deleted("categories") {
		t.Error("categories listing key not invalidated")
	}
}

func TestCategoryUpdate_RenameRegeneratesSlug(t *testing.T) {
	repo := &mockCategoryRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Category, error) {
			return &model.Category{ID: "c1", Slug: "desserts", Name: "Desserts"}, nil
		},
	}
	cacheSpy := newSpyCache()
	svc := NewCategoryService(repo, adminActor(), cacheSpy, testLogger())

	got, err := svc.Update(context.Background(), "admin", "desserts", CategoryInput{Name: "Sweet Things"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Slug != "sweet-things" {
		t.Errorf("Slug = %q, want sweet-things", got.Slug)
	}
	if !cacheSpy.deleted("category:desserts") || !cacheSpy.deleted("categories") {
		t.Errorf("deleted keys = %v, want old category key and listing", cacheSpy.deletedKeys)
	}
}

func TestCategoryDelete_Invalidates(t *testing.T) {
	repo := &mockCategoryRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Category, error) {
			return &model.Category{ID: "c1", Slug: slug, Name: "Desserts"}, nil
		},
	}
	cacheSpy := newSpyCache()
	svc := NewCategoryService(repo, adminActor(), cacheSpy, testLogger())

	if err := svc.Delete(context.Background(), "admin", "desserts"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !cacheSpy.deleted("category:desserts") {
		t.Error("category:desserts not invalidated")
	}
}
