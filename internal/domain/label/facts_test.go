package label

import (
	"testing"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFacts(t *testing.T) {
	// Arrange
	dish := nutrition.AggregatedDish{
		Title:                "Lentil Soup",
		ServingSizeGrams:     240,
		ServingsPerContainer: 3.333333,
		NutritionPerServing: nutrition.NewProfile(map[nutrition.Nutrient]float64{
			nutrition.NutrientCalories:          187,
			nutrition.NutrientTotalFat:          2.3,
			nutrition.NutrientSodium:            460,
			nutrition.NutrientTotalSugars:       4.2,
			nutrition.NutrientAddedSugars:       0.7,
			nutrition.NutrientTransFat:          0,
			nutrition.NutrientTotalCarbohydrate: 27.6,
		}),
		Warnings: []nutrition.DataQualityWarning{
			{Kind: nutrition.WarningCoverage, Message: "sodium reported for 40% of the dish by weight"},
		},
	}

	// Act
	facts := NewFacts(dish)

	// Assert
	assert.Equal(t, "Lentil Soup", facts.Title)
	assert.Equal(t, "240 g", facts.ServingSize)
	assert.Equal(t, "3.3", facts.ServingsPerContainer)
	assert.Equal(t, "190", facts.Calories)
	assert.Equal(t, []string{"sodium reported for 40% of the dish by weight"}, facts.Notes)

	byNutrient := make(map[nutrition.Nutrient]Line, len(facts.Lines))
	for _, l := range facts.Lines {
		byNutrient[l.Nutrient] = l
	}
	require.Len(t, byNutrient, 6)
	assert.NotContains(t, byNutrient, nutrition.NutrientCalories)
	assert.NotContains(t, byNutrient, nutrition.NutrientProtein)

	assert.Equal(t, "2.5 g", byNutrient[nutrition.NutrientTotalFat].Amount)
	assert.Equal(t, "3%", byNutrient[nutrition.NutrientTotalFat].DailyValue)
	assert.Equal(t, "20%", byNutrient[nutrition.NutrientSodium].DailyValue)
	assert.Empty(t, byNutrient[nutrition.NutrientTotalSugars].DailyValue)
	assert.Empty(t, byNutrient[nutrition.NutrientTransFat].DailyValue)
	assert.Equal(t, "0 g", byNutrient[nutrition.NutrientTransFat].Amount)
	assert.Equal(t, 1, byNutrient[nutrition.NutrientTransFat].Indent)
	assert.Equal(t, "Includes less than 1 g Added Sugars", byNutrient[nutrition.NutrientAddedSugars].Name)
	assert.Equal(t, 2, byNutrient[nutrition.NutrientAddedSugars].Indent)
}

func TestNewFacts_FollowsLabelOrder(t *testing.T) {
	dish := nutrition.AggregatedDish{
		ServingSizeGrams: 100,
		NutritionPerServing: nutrition.NewProfile(map[nutrition.Nutrient]float64{
			nutrition.NutrientPotassium: 300,
			nutrition.NutrientProtein:   3,
			nutrition.NutrientTotalFat:  1,
		}),
	}

	facts := NewFacts(dish)

	require.Len(t, facts.Lines, 3)
	assert.Equal(t, nutrition.NutrientTotalFat, facts.Lines[0].Nutrient)
	assert.Equal(t, nutrition.NutrientProtein, facts.Lines[1].Nutrient)
	assert.Equal(t, nutrition.NutrientPotassium, facts.Lines[2].Nutrient)
	assert.Equal(t, "0", facts.Calories)
	assert.NotNil(t, facts.Notes)
}
