package model

import "time"

// Category groups recipes under a browsable page (e.g. "Desserts").
//
// PublicId references the externally hosted cover image asset; an empty value
// means the category has no cover image.
type Category struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PublicID    string    `json:"publicId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// RecipeCount is the total number of recipes in the category,
	// independent of any pagination applied to Recipes.
	RecipeCount int      `json:"recipeCount"`
	Recipes     []Recipe `json:"recipes,omitempty"`
}
