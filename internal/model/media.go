package model

import "time"

// Media asset types.
const (
	MediaImage = "IMAGE"
	MediaVideo = "VIDEO"
)

// Media is an externally hosted asset attached to exactly one recipe or one
// category. PublicID is the host-side asset identifier; URL is the delivery
// address derived from it. Media rows are owned: deleting the owner deletes
// them.
type Media struct {
	ID         string    `json:"id"`
	RecipeID   string    `json:"recipeId,omitempty"`
	CategoryID string    `json:"categoryId,omitempty"`
	URL        string    `json:"url"`
	PublicID   string    `json:"publicId"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
}
