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
	"github.com/tasteboard/tasteboard/internal/repository"
	"github.com/tasteboard/tasteboard/internal/service"
)

// RecipeService is the slice of the recipe service the handlers consume.
type RecipeService interface {
	GetBySlug(ctx context.Context, slug string) (*model.Recipe, error)
	List(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error)
	Search(ctx context.Context, query, categorySlug string) ([]model.Recipe, error)
	Create(ctx context.Context, actorID string, input service.RecipeInput) (*model.Recipe, error)
	Update(ctx context.Context, actorID, slug string, input service.RecipeInput) (*model.Recipe, error)
	Delete(ctx context.Context, actorID, slug string) error
}

type RecipeHandler struct {
	recipes RecipeService
	logger  *slog.Logger
}

func NewRecipeHandler(recipes RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, logger: logger}
}

// HandleList serves GET /api/recipes with optional ?category= and ?author=
// filters.
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := repository.RecipeFilter{
		CategorySlug: r.URL.Query().Get("category"),
		AuthorID:     r.URL.Query().Get("author"),
	}

	recipes, err := h.recipes.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

// HandleGet serves GET /api/recipes/{slug}.
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	recipe, err := h.recipes.GetBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// HandleSearch serves GET /api/search?q=&category=.
func (h *RecipeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	categorySlug := r.URL.Query().Get("category")

	recipes, err := h.recipes.Search(r.Context(), query, categorySlug)
	if err != nil {
		writeError(w, err)
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

// HandleCreate serves POST /api/recipes (admin).
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input service.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	recipe, err := h.recipes.Create(r.Context(), identity.UserID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// HandleUpdate serves PUT /api/recipes/{slug} (admin).
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var input service.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	recipe, err := h.recipes.Update(r.Context(), identity.UserID, slug, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// HandleDelete serves DELETE /api/recipes/{slug} (admin).
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.recipes.Delete(r.Context(), identity.UserID, slug); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
