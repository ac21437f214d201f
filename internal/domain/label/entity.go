package label

import (
	"errors"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/google/uuid"
)

var ErrEmptyTitle = errors.New("label title is required")

// Label is a finalized nutrition label: the parsed recipe, the dish aggregated
// from it and the time it was produced. Saved labels can be used as
// ingredients of later recipes by title.
type Label struct {
	ID        uuid.UUID
	Recipe    recipe.ParsedRecipe
	Dish      nutrition.AggregatedDish
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLabel creates a label for an aggregated dish
func NewLabel(parsed recipe.ParsedRecipe, dish nutrition.AggregatedDish) (*Label, error) {
	if parsed.Title == "" {
		return nil, ErrEmptyTitle
	}
	now := time.Now().UTC()
	return &Label{
		ID:        uuid.New(),
		Recipe:    parsed,
		Dish:      dish,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Title returns the recipe title
func (l *Label) Title() string {
	return l.Recipe.Title
}

// Key returns the lookup key of the title
func (l *Label) Key() string {
	return recipe.Key(l.Recipe.Title)
}

// Facts returns the display view of the label
func (l *Label) Facts() Facts {
	return NewFacts(l.Dish)
}

// Rescale returns a copy of the label for another serving size. The stored
// dish is left unchanged.
func (l *Label) Rescale(servingSizeGrams float64) (*Label, error) {
	dish, err := nutrition.Rescale(l.Dish, servingSizeGrams)
	if err != nil {
		return nil, err
	}
	out := *l
	out.Dish = dish
	return &out, nil
}
