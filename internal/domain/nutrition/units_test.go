package nutrition

import (
	"math"
	"testing"

	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGrams_GenericTable(t *testing.T) {
	tests := []struct {
		unit recipe.MeasurementUnit
		want float64
	}{
		{recipe.MeasurementUnitGram, 2},
		{recipe.MeasurementUnitMilligram, 0.002},
		{recipe.MeasurementUnitKilogram, 2000},
		{recipe.MeasurementUnitOunce, 56.69904625},
		{recipe.MeasurementUnitPound, 907.18474},
		{recipe.MeasurementUnitMilliliter, 2},
		{recipe.MeasurementUnitLiter, 2000},
		{recipe.MeasurementUnitTeaspoon, 9.8578431875},
		{recipe.MeasurementUnitTablespoon, 29.5735295625},
		{recipe.MeasurementUnitFluidOunce, 59.147059125},
		{recipe.MeasurementUnitCup, 473.176473},
		{recipe.MeasurementUnitPinch, 9.8578431875 / 16},
		{recipe.MeasurementUnitDash, 9.8578431875 / 8},
	}

	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			got, err := ToGrams(2, tt.unit, nil)

			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestToGrams_NeverConstantAcrossUnits(t *testing.T) {
	units := []recipe.MeasurementUnit{
		recipe.MeasurementUnitMilligram, recipe.MeasurementUnitGram, recipe.MeasurementUnitKilogram,
		recipe.MeasurementUnitOunce, recipe.MeasurementUnitPound,
		recipe.MeasurementUnitTeaspoon, recipe.MeasurementUnitTablespoon, recipe.MeasurementUnitCup,
		recipe.MeasurementUnitFluidOunce,
		recipe.MeasurementUnitPinch, recipe.MeasurementUnitDash,
	}

	for _, quantity := range []float64{0.25, 1, 3, 17.5} {
		seen := make(map[float64]recipe.MeasurementUnit)
		for _, u := range units {
			grams, err := ToGrams(quantity, u, nil)
			require.NoError(t, err)

			if other, dup := seen[grams]; dup {
				t.Fatalf("%g %s and %g %s both convert to %g g", quantity, u, quantity, other, grams)
			}
			seen[grams] = u
		}
	}

	// metric volumes are water equivalents of metric masses
	g, _ := ToGrams(1, recipe.MeasurementUnitGram, nil)
	ml, _ := ToGrams(1, recipe.MeasurementUnitMilliliter, nil)
	assert.Equal(t, g, ml)
	kg, _ := ToGrams(1, recipe.MeasurementUnitKilogram, nil)
	l, _ := ToGrams(1, recipe.MeasurementUnitLiter, nil)
	assert.Equal(t, kg, l)
}

func TestToGrams_CountUnits(t *testing.T) {
	for _, u := range []recipe.MeasurementUnit{
		recipe.MeasurementUnitPiece, recipe.MeasurementUnitSlice, recipe.MeasurementUnitItem, recipe.MeasurementUnitNone,
	} {
		t.Run("Unit_"+string(u), func(t *testing.T) {
			grams, err := ToGrams(2, u, nil)

			var convErr *ConversionError
			require.ErrorAs(t, err, &convErr)
			assert.ErrorIs(t, err, ErrNoGenericConversion)
			assert.Zero(t, grams)
		})
	}
}

func TestToGrams_UnknownUnit(t *testing.T) {
	_, err := ToGrams(1, recipe.MeasurementUnit("bushel"), nil)

	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestToGrams_InvalidQuantity(t *testing.T) {
	for _, q := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := ToGrams(q, recipe.MeasurementUnitGram, nil)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestToGrams_Portions(t *testing.T) {
	portions := []Portion{
		NewPortion("cup, chopped", 1, 150),
		NewPortion("tbsp", 2, 18),
		NewPortion("1 large", 1, 50),
		NewPortion("slice", 1, 28),
	}

	t.Run("PortionBeatsGenericTable", func(t *testing.T) {
		grams, err := ToGrams(2, recipe.MeasurementUnitCup, portions)

		require.NoError(t, err)
		assert.InDelta(t, 300, grams, 1e-9)
	})

	t.Run("PortionAmountDividesWeight", func(t *testing.T) {
		grams, err := ToGrams(1, recipe.MeasurementUnitTablespoon, portions)

		require.NoError(t, err)
		assert.InDelta(t, 9, grams, 1e-9)
	})

	t.Run("CountUsesNamedPortion", func(t *testing.T) {
		grams, err := ToGrams(3, recipe.MeasurementUnitNone, portions)

		require.NoError(t, err)
		assert.InDelta(t, 150, grams, 1e-9)
	})

	t.Run("SliceUsesSlicePortion", func(t *testing.T) {
		grams, err := ToGrams(2, recipe.MeasurementUnitSlice, portions)

		require.NoError(t, err)
		assert.InDelta(t, 56, grams, 1e-9)
	})

	t.Run("UnmatchedFallsBack", func(t *testing.T) {
		grams, err := ToGrams(1, recipe.MeasurementUnitTeaspoon, portions)

		require.NoError(t, err)
		assert.InDelta(t, GramsPerTeaspoon, grams, 1e-9)
	})

	t.Run("PiecePreferredOverNamedPortion", func(t *testing.T) {
		grams, err := ToGrams(1, recipe.MeasurementUnitNone, append([]Portion{NewPortion("medium", 1, 44)}, NewPortion("each", 1, 40)))

		require.NoError(t, err)
		assert.InDelta(t, 40, grams, 1e-9)
	})

	t.Run("ZeroWeightPortionIgnored", func(t *testing.T) {
		_, err := ToGrams(1, recipe.MeasurementUnitPiece, []Portion{NewPortion("piece", 1, 0)})

		assert.ErrorIs(t, err, ErrNoGenericConversion)
	})
}

func TestNewPortion(t *testing.T) {
	assert.Equal(t, recipe.MeasurementUnitCup, NewPortion("cup, chopped", 0, 1).Unit)
	assert.Equal(t, recipe.MeasurementUnitFluidOunce, NewPortion("fl oz (1 serving)", 1, 1).Unit)
	assert.Equal(t, recipe.MeasurementUnitTablespoon, NewPortion("1 tbsp", 1, 1).Unit)
	assert.Equal(t, recipe.MeasurementUnitNone, NewPortion("large", 1, 1).Unit)
	assert.Equal(t, 1.0, NewPortion("cup", 0, 1).Amount)
}

func TestGramFactor_CountUnitsHaveNone(t *testing.T) {
	f, ok := GramFactor(recipe.MeasurementUnitCup)
	require.True(t, ok)
	assert.InDelta(t, 236.5882365, f, 1e-9)

	_, ok = GramFactor(recipe.MeasurementUnitPiece)
	assert.False(t, ok)
}
