package recipe

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(ownerID string, req CreateRecipeRequest) Recipe {
	now := time.Now().UTC()

	r := Recipe{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.TimeMinutes != nil {
		r.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		r.Price = req.Price.Round(2)
	}

	return r
}
