package model

import "time"

// Review is a star rating with an optional comment, left by one user on one
// recipe. A user holds at most one review per recipe: resubmitting updates the
// existing row in place, keeping its ID and CreatedAt.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	RecipeID  string    `json:"recipeId"`
	Rating    int       `json:"rating"` // 1..5 inclusive
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *UserSummary `json:"user,omitempty"`
}
