package recipe

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Recipe struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	TimeMinutes int             `json:"timeMinutes"`
	Price       decimal.Decimal `json:"price"`
	Link        string          `json:"link"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (r Recipe) String() string {
	return r.Title
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Query  *string
	Limit  int
	Offset int
}

var (
	ErrNotFound     = errors.New("recipe not found")
	ErrInvalidPrice = errors.New("price must be between 0 and 999.99 with at most 2 decimal places")
)

// NUMERIC(5,2): three integer digits, two decimal places.
var maxPrice = decimal.NewFromInt(1000)

func ValidatePrice(p decimal.Decimal) error {
	if !p.Equal(p.Round(2)) {
		return ErrInvalidPrice
	}
	if p.IsNegative() || p.GreaterThanOrEqual(maxPrice) {
		return ErrInvalidPrice
	}
	return nil
}

type CreateRecipeRequest struct {
	Title       string           `json:"title" binding:"required,max=255"`
	Description string           `json:"description"`
	TimeMinutes *int             `json:"timeMinutes" binding:"required,min=0,max=2147483647"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Link        string           `json:"link" binding:"omitempty,max=255"`
}

// partial update, nil fields are left untouched
type UpdateRecipeRequest struct {
	Title       *string          `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	TimeMinutes *int             `json:"timeMinutes" binding:"omitempty,min=0,max=2147483647"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link" binding:"omitempty,max=255"`
}

func (r UpdateRecipeRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.TimeMinutes == nil && r.Price == nil && r.Link == nil
}
