package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tasteboard/tasteboard/internal/apperror"
	"github.com/tasteboard/tasteboard/internal/auth"
	"github.com/tasteboard/tasteboard/internal/model"
	"github.com/tasteboard/tasteboard/internal/service"
)

// CategoryService is the slice of the category service the handlers consume.
type CategoryService interface {
	GetBySlug(ctx context.Context, slug string, page, pageSize int) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, actorID string, input service.CategoryInput) (*model.Category, error)
	Update(ctx context.Context, actorID, slug string, input service.CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, actorID, slug string) error
}

type CategoryHandler struct {
	categories CategoryService
	logger     *slog.Logger
}

func NewCategoryHandler(categories CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// HandleList serves GET /api/categories.
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleGet serves GET /api/categories/{slug}?page=&pageSize=. Absent or
// malformed paging parameters fall back to the defaults.
func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page := queryInt(r, "page")
	pageSize := queryInt(r, "pageSize")

	category, err := h.categories.GetBySlug(r.Context(), slug, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleCreate serves POST /api/categories (admin).
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input service.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	category, err := h.categories.Create(r.Context(), identity.UserID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// HandleUpdate serves PUT /api/categories/{slug} (admin).
func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var input service.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	category, err := h.categories.Update(r.Context(), identity.UserID, slug, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleDelete serves DELETE /api/categories/{slug} (admin).
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.categories.Delete(r.Context(), identity.UserID, slug); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return value
}
