package label

import (
	"testing"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLabel(t *testing.T) {
	parsed := recipe.Parse("Green  Salad\n100 g lettuce")
	dish := nutrition.AggregatedDish{Title: parsed.Title, ServingSizeGrams: 50, TotalWeightGrams: 100}

	l, err := NewLabel(parsed, dish)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, l.ID)
	assert.Equal(t, "green salad", l.Key())
	assert.False(t, l.CreatedAt.IsZero())
	assert.Equal(t, l.CreatedAt, l.UpdatedAt)
}

func TestNewLabel_RequiresTitle(t *testing.T) {
	_, err := NewLabel(recipe.ParsedRecipe{}, nutrition.AggregatedDish{})

	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestLabel_Rescale(t *testing.T) {
	per100 := nutrition.NewProfile(map[nutrition.Nutrient]float64{nutrition.NutrientSodium: 200})
	l := &Label{
		ID:     uuid.New(),
		Recipe: recipe.ParsedRecipe{Title: "Broth"},
		Dish: nutrition.AggregatedDish{
			Title:               "Broth",
			NutritionPer100g:    per100,
			NutritionPerServing: per100,
			TotalWeightGrams:    500,
			ServingSizeGrams:    100,
		},
	}

	rescaled, err := l.Rescale(250)

	require.NoError(t, err)
	assert.Equal(t, l.ID, rescaled.ID)
	assert.InDelta(t, 500, rescaled.Dish.NutritionPerServing.Value(nutrition.NutrientSodium), 1e-9)
	assert.InDelta(t, 2, rescaled.Dish.ServingsPerContainer, 1e-9)
	assert.InDelta(t, 100, l.Dish.ServingSizeGrams, 1e-9)

	_, err = l.Rescale(0)
	assert.ErrorIs(t, err, nutrition.ErrInvalidServingSize)
}
