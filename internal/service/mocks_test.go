package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/repository"
)

// Hand-written mocks: function fields override behavior per test, counters
// record how often the store was actually hit.

type mockRecipeRepo struct {
	createFn     func(ctx context.Context, recipe *model.Recipe) error
	getBySlugFn  func(ctx context.Context, slug string) (*model.Recipe, error)
	getByIDFn    func(ctx context.Context, id string) (*model.Recipe, error)
	listFn       func(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error)
	searchFn     func(ctx context.Context, query, categorySlug string) ([]model.Recipe, error)
	updateFn     func(ctx context.Context, recipe *model.Recipe) error
	deleteFn     func(ctx context.Context, id string) error
	slugExistsFn func(ctx context.Context, slug string) (bool, error)

	getBySlugCalls int
	searchCalls    int
}

func (m *mockRecipeRepo) Create(ctx context.Context, recipe *model.Recipe) error {
	if m.createFn != nil {
		return m.createFn(ctx, recipe)
	}
	recipe.ID = "r1"
	return nil
}

func (m *mockRecipeRepo) GetBySlug(ctx context.Context, slug string) (*model.Recipe, error) {
	m.getBySlugCalls++
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, apperror.NotFound("recipe", slug)
}

func (m *mockRecipeRepo) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, apperror.NotFound("recipe", id)
}

func (m *mockRecipeRepo) List(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockRecipeRepo) Search(ctx context.Context, query, categorySlug string) ([]model.Recipe, error) {
	m.searchCalls++
	if m.searchFn != nil {
		return m.searchFn(ctx, query, categorySlug)
	}
	return nil, nil
}

func (m *mockRecipeRepo) Update(ctx context.Context, recipe *model.Recipe) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, recipe)
	}
	return nil
}

func (m *mockRecipeRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRecipeRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, slug)
	}
	return false, nil
}

type mockCategoryRepo struct {
	createFn     func(ctx context.Context, category *model.Category) error
	getBySlugFn  func(ctx context.Context, slug string) (*model.Category, error)
	recipePageFn func(ctx context.Context, categoryID string, page repository.Page) ([]model.Recipe, error)
	listFn       func(ctx context.Context) ([]model.Category, error)
	updateFn     func(ctx context.Context, category *model.Category) error
	deleteFn     func(ctx context.Context, id string) error
	slugExistsFn func(ctx context.Context, slug string) (bool, error)

	getBySlugCalls  int
	recipePageCalls int
	listCalls       int
	lastPage        repository.Page
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	if m.createFn != nil {
		return m.createFn(ctx, category)
	}
	category.ID = "c1"
	return nil
}

func (m *mockCategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	m.getBySlugCalls++
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, apperror.NotFound("category", slug)
}

func (m *mockCategoryRepo) RecipePage(ctx context.Context, categoryID string, page repository.Page) ([]model.Recipe, error) {
	m.recipePageCalls++
	m.lastPage = page
	if m.recipePageFn != nil {
		return m.recipePageFn(ctx, categoryID, page)
	}
	return nil, nil
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCategoryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, slug)
	}
	return false, nil
}

type mockReviewRepo struct {
	upsertFn       func(ctx context.Context, review *model.Review) error
	listByRecipeFn func(ctx context.Context, recipeID string) ([]model.Review, error)

	upsertCalls int
}

func (m *mockReviewRepo) Upsert(ctx context.Context, review *model.Review) error {
	m.upsertCalls++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, review)
	}
	review.ID = "v1"
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	return nil
}

func (m *mockReviewRepo) ListByRecipe(ctx context.Context, recipeID string) ([]model.Review, error) {
	if m.listByRecipeFn != nil {
		return m.listByRecipeFn(ctx, recipeID)
	}
	return nil, nil
}

type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.users == nil {
		m.users = make(map[string]*model.User)
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (m *mockUserRepo) PromoteAdmins(ctx context.Context, emails []string) error {
	return nil
}

// adminActor seeds a user repo holding one admin and one regular user.
func adminActor() *mockUserRepo {
	return &mockUserRepo{users: map[string]*model.User{
		"admin": {ID: "admin", Role: model.RoleAdmin},
		"bob":   {ID: "bob", Role: model.RoleUser},
	}}
}

// spyCache is an in-memory cache.Cache that records every set and delete so
// tests can assert on invalidation behavior. TTLs are recorded, not enforced.
type spyCache struct {
	entries        map[string][]byte
	setKeys        []string
	setTTLs        map[string]time.Duration
	deletedKeys    []string
	deletePatterns []string
}

func newSpyCache() *spyCache {
	return &spyCache{
		entries: make(map[string][]byte),
		setTTLs: make(map[string]time.Duration),
	}
}

func (c *spyCache) Get(ctx context.Context, key string, dest any) bool {
	data, ok := c.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *spyCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.entries[key] = data
	c.setKeys = append(c.setKeys, key)
	c.setTTLs[key] = ttl
}

func (c *spyCache) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		delete(c.entries, key)
		c.deletedKeys = append(c.deletedKeys, key)
	}
}

func (c *spyCache) DeleteMatching(ctx context.Context, pattern string) {
	c.deletePatterns = append(c.deletePatterns, pattern)
}

func (c *spyCache) Close() error { return nil }

func (c *spyCache) deleted(key string) bool {
	for _, k := range c.deletedKeys {
		if k == key {
			return true
		}
	}
	return false
}
