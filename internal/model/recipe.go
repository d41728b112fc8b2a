// Package model defines the data structures used throughout the application.
package model

import (
	"encoding/json"
	"time"
)

// Ingredient is one entry in a recipe's ordered ingredient list.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// Step is one entry in a recipe's ordered step list.
type Step struct {
	Content string `json:"content"`
}

// Recipe represents a published recipe.
//
// Content and Nutrition are rich JSON documents produced by the editor; their
// internal shape is a display-layer concern, so they stay as json.RawMessage.
// Ingredients and Steps have a fixed shape and are decoded into typed slices
// at the storage boundary.
//
// The relation fields (Author, Categories, Media, Reviews) are populated only
// on projections that asked for them. Rating and ReviewCount are derived from
// Reviews and are never authoritative.
type Recipe struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Content     json.RawMessage `json:"content,omitempty"`
	Ingredients []Ingredient    `json:"ingredients"`
	Steps       []Step          `json:"steps"`
	Nutrition   json.RawMessage `json:"nutrition,omitempty"`
	CookTime    int             `json:"cookTime"` // minutes
	PrepTime    int             `json:"prepTime"` // minutes
	Servings    int             `json:"servings"`
	Video       string          `json:"video,omitempty"`
	AuthorID    string          `json:"authorId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	Author      *UserSummary      `json:"author,omitempty"`
	Categories  []CategorySummary `json:"categories,omitempty"`
	Media       []Media           `json:"media,omitempty"`
	Reviews     []Review          `json:"reviews,omitempty"`
	Rating      float64           `json:"rating"`
	ReviewCount int               `json:"reviewCount"`
}

// UserSummary is the slice of a user embedded in projections (recipe author,
// review author). Never includes email or role.
type UserSummary struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// CategorySummary is the slice of a category embedded in recipe projections.
type CategorySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
