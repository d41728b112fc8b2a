// Package repository declares the data access interfaces the service layer
// programs against. The sqlite subpackage provides the production
// implementation; tests supply in-memory mocks.
package repository

import (
	"context"

	"github.com/tasteboard/tasteboard/internal/model"
)

// Page is offset/limit pagination for listing operations.
type Page struct {
	Limit  int
	Offset int
}

// RecipeFilter narrows List results. Zero values mean "no restriction".
type RecipeFilter struct {
	CategorySlug string
	AuthorID     string
}

type RecipeRepository interface {
	// Create persists a new recipe together with its category links and
	// any media rows, filling in ID and timestamps.
	Create(ctx context.Context, recipe *model.Recipe) error

	// GetBySlug returns the full recipe projection: author summary,
	// category summaries, media, and reviews with reviewer summaries.
	GetBySlug(ctx context.Context, slug string) (*model.Recipe, error)

	// GetByID returns the bare recipe row, no relations loaded.
	GetByID(ctx context.Context, id string) (*model.Recipe, error)

	// List returns recipes matching the filter, newest first, each with
	// author, categories, media and reviews loaded.
	List(ctx context.Context, filter RecipeFilter) ([]model.Recipe, error)

	// Search matches query case-insensitively against title or
	// description, optionally restricted to a category. Results carry
	// media and reviews for rating computation.
	Search(ctx context.Context, query, categorySlug string) ([]model.Recipe, error)

	// Update rewrites the recipe row and its category links. When
	// recipe.Media is non-nil it also replaces the recipe's image media.
	Update(ctx context.Context, recipe *model.Recipe) error

	// Delete removes the recipe; its reviews and media cascade.
	Delete(ctx context.Context, id string) error

	SlugExists(ctx context.Context, slug string) (bool, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error

	// GetBySlug returns the category's page-independent metadata,
	// including the total recipe count.
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)

	// RecipePage returns one page of the category's recipes, newest
	// first, each with media and reviews loaded.
	RecipePage(ctx context.Context, categoryID string, page Page) ([]model.Recipe, error)

	// List returns all categories ordered by name, with recipe counts.
	List(ctx context.Context) ([]model.Category, error)

	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type ReviewRepository interface {
	// Upsert atomically creates or updates the review keyed by
	// (UserID, RecipeID). On update the existing row keeps its ID and
	// CreatedAt; rating and comment are replaced. The persisted row is
	// written back into review.
	Upsert(ctx context.Context, review *model.Review) error

	// ListByRecipe returns a recipe's reviews, newest first, each with
	// the reviewer's summary.
	ListByRecipe(ctx context.Context, recipeID string) ([]model.Review, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)

	// PromoteAdmins sets the ADMIN role on every user whose email is in
	// the list. Run once at startup as the allow-list bootstrap; runtime
	// authorization reads only the stored role.
	PromoteAdmins(ctx context.Context, emails []string) error
}
