package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/labhub/internal/domain/recipe"
	"github.com/geocoder89/labhub/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecipeStore interface {
	Create(ctx context.Context, rc recipe.Recipe) (recipe.Recipe, error)
	List(ctx context.Context, ownerID string, f recipe.ListFilter) ([]recipe.Recipe, int, error)
	GetByID(ctx context.Context, ownerID, id string) (recipe.Recipe, error)
	Update(ctx context.Context, ownerID, id string, req recipe.UpdateRecipeRequest) (recipe.Recipe, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// RecipesHandler serves the caller's own recipes. Other owners' rows are
// indistinguishable from missing ones.
type RecipesHandler struct {
	repo    RecipeStore
	timeout time.Duration
}

func NewRecipesHandler(repo RecipeStore) *RecipesHandler {
	return &RecipesHandler{repo: repo, timeout: 2 * time.Second}
}

var invalidPrice = FieldError{
	Field:   "price",
	Rule:    "decimal",
	Param:   "5,2",
	Message: recipe.ErrInvalidPrice.Error(),
}

// GET /recipes?q=pasta&limit=20&offset=0
func (h *RecipesHandler) List(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	limit, offset, err := utils.ParsePage(ctx.Query("limit"), ctx.Query("offset"))
	if err != nil {
		respondPageError(ctx, err)
		return
	}

	f := recipe.ListFilter{Limit: limit, Offset: offset}
	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		f.Query = &q
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	items, total, err := h.repo.List(cctx, p.UserID, f)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list recipes failed", "err", err)
		RespondInternal(ctx, "Could not list recipes")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":  items,
		"count":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// POST /recipes
func (h *RecipesHandler) Create(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var req recipe.CreateRecipeRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if err := recipe.ValidatePrice(*req.Price); err != nil {
		RespondFieldErrors(ctx, "Invalid request body", invalidPrice)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	rc, err := h.repo.Create(cctx, recipe.NewFromCreateRequest(p.UserID, req))
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "create recipe failed", "err", err)
		RespondInternal(ctx, "Could not create recipe")
		return
	}

	respondRecipe(ctx, http.StatusCreated, rc)
}

// GET /recipes/:id
func (h *RecipesHandler) Get(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	id, ok := recipeID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	rc, err := h.repo.GetByID(cctx, p.UserID, id)
	if err != nil {
		h.respondRepoError(ctx, err, "Could not fetch recipe")
		return
	}

	respondRecipe(ctx, http.StatusOK, rc)
}

// PATCH /recipes/:id. An If-Match naming an older version is a 412.
func (h *RecipesHandler) Update(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	id, ok := recipeID(ctx)
	if !ok {
		return
	}

	var req recipe.UpdateRecipeRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if req.Price != nil {
		if err := recipe.ValidatePrice(*req.Price); err != nil {
			RespondFieldErrors(ctx, "Invalid request body", invalidPrice)
			return
		}
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if ctx.GetHeader("If-Match") != "" {
		current, err := h.repo.GetByID(cctx, p.UserID, id)
		if err != nil {
			h.respondRepoError(ctx, err, "Could not update recipe")
			return
		}
		if ifMatchFails(ctx, current) {
			return
		}
	}

	rc, err := h.repo.Update(cctx, p.UserID, id, req)
	if err != nil {
		h.respondRepoError(ctx, err, "Could not update recipe")
		return
	}

	respondRecipe(ctx, http.StatusOK, rc)
}

// DELETE /recipes/:id
func (h *RecipesHandler) Delete(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	id, ok := recipeID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.repo.Delete(cctx, p.UserID, id); err != nil {
		h.respondRepoError(ctx, err, "Could not delete recipe")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *RecipesHandler) respondRepoError(ctx *gin.Context, err error, message string) {
	if errors.Is(err, recipe.ErrNotFound) {
		RespondNotFound(ctx, "Recipe not found")
		return
	}

	slog.Default().ErrorContext(ctx.Request.Context(), message, "err", err)
	RespondInternal(ctx, message)
}

func recipeID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		RespondNotFound(ctx, "Recipe not found")
		return "", false
	}
	return id, true
}
