package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfile_AbsentIsNotZero(t *testing.T) {
	p := NewProfile(map[Nutrient]float64{
		NutrientCalories: 100,
		NutrientSodium:   0,
		NutrientProtein:  3,
	})

	assert.True(t, p.Has(NutrientSodium))
	assert.False(t, p.Has(NutrientDietaryFiber))

	without := p.Without(NutrientSodium)
	assert.False(t, without.Has(NutrientSodium))
	assert.True(t, p.Has(NutrientSodium), "original is unchanged")
	assert.Equal(t, 2, without.Len())

	scaled := without.Scale(2)
	assert.Equal(t, 200.0, scaled.Value(NutrientCalories))
	assert.False(t, scaled.Has(NutrientSodium))
}

func TestAllNutrients_LabelOrder(t *testing.T) {
	all := AllNutrients()

	assert.Equal(t, NutrientCalories, all[0])
	for _, n := range all {
		assert.True(t, n.Valid(), n)
	}

	all[0] = "mutated"
	assert.Equal(t, NutrientCalories, AllNutrients()[0])
}
