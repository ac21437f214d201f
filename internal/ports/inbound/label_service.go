// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/domain/label"
	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/google/uuid"
)

// LabelService defines the use cases for nutrition label generation.
// The three stages can be driven one by one (Parse, Resolve, Finalize) so a
// caller can review the parse and skip unknown ingredients, or all at once
// with Generate.
type LabelService interface {
	// Stages
	Parse(ctx context.Context, text string) (*Draft, error)
	Resolve(ctx context.Context, draft *Draft, skip []string) (*Draft, error)
	Finalize(ctx context.Context, draft *Draft, cmd FinalizeCommand) (*LabelDTO, error)

	// Commands
	Generate(ctx context.Context, cmd GenerateLabelCommand) (*LabelDTO, error)
	Rescale(ctx context.Context, cmd RescaleCommand) (*LabelDTO, error)

	// Queries
	GetLabel(ctx context.Context, id uuid.UUID) (*LabelDTO, error)
	ListLabels(ctx context.Context, params PaginationParams) (*LabelList, error)
}

// Draft carries a recipe between stages. It belongs to the caller: the
// service keeps no state between calls.
type Draft struct {
	Recipe   recipe.ParsedRecipe                 `json:"recipe"`
	Resolved map[string]nutrition.Resolution     `json:"resolved"`
	Saved    map[string]nutrition.AggregatedDish `json:"saved"`
	Skipped  []string                            `json:"skipped"`
}

// GenerateLabelCommand contains data for generating a label in one call
type GenerateLabelCommand struct {
	Text             string   `json:"text" validate:"required,max=20000"`
	ServingSizeGrams float64  `json:"serving_size_grams" validate:"gt=0"`
	YieldFactor      float64  `json:"yield_factor" validate:"gte=0"`
	Skip             []string `json:"skip"`
}

// FinalizeCommand contains the figures applied when aggregating a draft
type FinalizeCommand struct {
	ServingSizeGrams float64 `json:"serving_size_grams" validate:"gt=0"`
	YieldFactor      float64 `json:"yield_factor" validate:"gte=0"`
}

// RescaleCommand asks for a stored label at another serving size
type RescaleCommand struct {
	LabelID          uuid.UUID `json:"label_id" validate:"required"`
	ServingSizeGrams float64   `json:"serving_size_grams" validate:"gt=0"`
}

// PaginationParams for paginated queries
type PaginationParams struct {
	Offset int `json:"offset" validate:"min=0"`
	Limit  int `json:"limit" validate:"min=1,max=100"`
}

// LabelDTO is the label representation returned to callers
type LabelDTO struct {
	ID        uuid.UUID                `json:"id"`
	Title     string                   `json:"title"`
	Recipe    recipe.ParsedRecipe      `json:"recipe"`
	Dish      nutrition.AggregatedDish `json:"dish"`
	Facts     label.Facts              `json:"facts"`
	CreatedAt time.Time                `json:"created_at"`
}

// LabelList is a page of labels
type LabelList struct {
	Labels []*LabelDTO `json:"labels"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

// NewLabelDTO converts a label entity
func NewLabelDTO(l *label.Label) *LabelDTO {
	return &LabelDTO{
		ID:        l.ID,
		Title:     l.Title(),
		Recipe:    l.Recipe,
		Dish:      l.Dish,
		Facts:     l.Facts(),
		CreatedAt: l.CreatedAt,
	}
}
