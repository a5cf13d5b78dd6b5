package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/labhub/internal/domain/recipe"
)

type RecipesRepo struct {
	mu    sync.RWMutex
	items map[string]recipe.Recipe
}

func NewRecipesRepo() *RecipesRepo {
	return &RecipesRepo{items: make(map[string]recipe.Recipe)}
}

func (r *RecipesRepo) Create(_ context.Context, rc recipe.Recipe) (recipe.Recipe, error) {
	r.mu.Lock()
	r.items[rc.ID] = rc
	r.mu.Unlock()

	return rc, nil
}

func (r *RecipesRepo) List(_ context.Context, ownerID string, f recipe.ListFilter) ([]recipe.Recipe, int, error) {
	var q string
	if f.Query != nil {
		q = strings.ToLower(*f.Query)
	}

	r.mu.RLock()
	matched := make([]recipe.Recipe, 0)
	for _, rc := range r.items {
		if rc.UserID != ownerID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(rc.Title), q) {
			continue
		}
		matched = append(matched, rc)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return page(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *RecipesRepo) GetByID(_ context.Context, ownerID, id string) (recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rc, ok := r.items[id]
	if !ok || rc.UserID != ownerID {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return rc, nil
}

func (r *RecipesRepo) Update(_ context.Context, ownerID, id string, req recipe.UpdateRecipeRequest) (recipe.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.items[id]
	if !ok || rc.UserID != ownerID {
		return recipe.Recipe{}, recipe.ErrNotFound
	}

	if req.Empty() {
		return rc, nil
	}

	if req.Title != nil {
		rc.Title = *req.Title
	}
	if req.Description != nil {
		rc.Description = *req.Description
	}
	if req.TimeMinutes != nil {
		rc.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		rc.Price = req.Price.Round(2)
	}
	if req.Link != nil {
		rc.Link = *req.Link
	}
	rc.UpdatedAt = time.Now().UTC()

	r.items[id] = rc
	return rc, nil
}

func (r *RecipesRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.items[id]
	if !ok || rc.UserID != ownerID {
		return recipe.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
