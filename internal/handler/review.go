package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/auth"
	"github.com/tasteboard/tasteboard/internal/model"
)

// ReviewService is the slice of the review service the handlers consume.
type ReviewService interface {
	Submit(ctx context.Context, userID, recipeID string, rating int, comment string) (*model.Review, error)
	ListForRecipe(ctx context.Context, recipeID string) ([]model.Review, error)
}

// RecipeResolver looks a recipe up by slug so the review listing route can
// translate its slug parameter into a recipe ID.
type RecipeResolver interface {
	GetBySlug(ctx context.Context, slug string) (*model.Recipe, error)
}

type ReviewHandler struct {
	reviews ReviewService
	recipes RecipeResolver
	logger  *slog.Logger
}

func NewReviewHandler(reviews ReviewService, recipes RecipeResolver, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, recipes: recipes, logger: logger}
}

type submitReviewRequest struct {
	RecipeID string `json:"recipeId"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// HandleSubmit serves POST /api/reviews (authenticated).
func (h *ReviewHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.RecipeID == "" {
		writeError(w, apperror.ValidationFailed("recipeId", "recipeId is required"))
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	review, err := h.reviews.Submit(r.Context(), identity.UserID, req.RecipeID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// HandleListForRecipe serves GET /api/recipes/{slug}/reviews.
func (h *ReviewHandler) HandleListForRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	recipe, err := h.recipes.GetBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return
	}

	reviews, err := h.reviews.ListForRecipe(r.Context(), recipe.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	writeJSON(w, http.StatusOK, reviews)
}
