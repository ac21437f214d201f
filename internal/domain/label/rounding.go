// Package label turns raw nutrient amounts into Nutrition Facts display values
// following the FDA rounding rules of 21 CFR 101.9.
//
// All functions are pure. They format values for display and never feed
// rounded values back into a nutrient profile: rescaling always starts again
// from the raw amounts.
package label

import (
	"math"
	"strconv"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
)

// roundTo rounds v to the nearest multiple of step, halves away from zero
func roundTo(v, step float64) float64 {
	return math.Floor(v/step+0.5) * step
}

func format(v float64, decimals int, unit string) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// clean treats non-finite and negative amounts as zero so that display code
// never prints them
func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// RoundCalories: <5 kcal is 0, up to 50 kcal nearest 5, above nearest 10
func RoundCalories(kcal float64) string {
	kcal = clean(kcal)
	switch {
	case kcal < 5:
		return "0"
	case kcal <= 50:
		return format(roundTo(kcal, 5), 0, "")
	default:
		return format(roundTo(kcal, 10), 0, "")
	}
}

// RoundFat applies to total, saturated and trans fat: <0.5 g is 0, below 5 g
// nearest 0.5 g, otherwise nearest 1 g
func RoundFat(grams float64) string {
	grams = clean(grams)
	switch {
	case grams < 0.5:
		return "0 g"
	case grams < 5:
		v := roundTo(grams, 0.5)
		if v == math.Trunc(v) {
			return format(v, 0, "g")
		}
		return format(v, 1, "g")
	default:
		return format(roundTo(grams, 1), 0, "g")
	}
}

// RoundCholesterol: <2 mg is 0, 2 to 5 mg "less than 5 mg", above nearest 5 mg
func RoundCholesterol(mg float64) string {
	mg = clean(mg)
	switch {
	case mg < 2:
		return "0 mg"
	case mg <= 5:
		return "less than 5 mg"
	default:
		return format(roundTo(mg, 5), 0, "mg")
	}
}

// RoundSodium: <5 mg is 0, 5 to 140 mg nearest 5 mg, above nearest 10 mg
func RoundSodium(mg float64) string {
	mg = clean(mg)
	switch {
	case mg < 5:
		return "0 mg"
	case mg <= 140:
		return format(roundTo(mg, 5), 0, "mg")
	default:
		return format(roundTo(mg, 10), 0, "mg")
	}
}

// RoundPotassium follows the sodium steps
func RoundPotassium(mg float64) string {
	return RoundSodium(mg)
}

// RoundCarbohydrate applies to total carbohydrate, dietary fiber, total and
// added sugars: <0.5 g is 0, below 1 g "less than 1 g", otherwise nearest 1 g
func RoundCarbohydrate(grams float64) string {
	grams = clean(grams)
	switch {
	case grams < 0.5:
		return "0 g"
	case grams < 1:
		return "less than 1 g"
	default:
		return format(roundTo(grams, 1), 0, "g")
	}
}

// RoundProtein follows the carbohydrate steps
func RoundProtein(grams float64) string {
	return RoundCarbohydrate(grams)
}

// RoundVitaminD rounds to the nearest 0.1 mcg
func RoundVitaminD(mcg float64) string {
	return format(roundTo(clean(mcg), 0.1), 1, "mcg")
}

// RoundCalcium rounds to the nearest 10 mg
func RoundCalcium(mg float64) string {
	return format(roundTo(clean(mg), 10), 0, "mg")
}

// RoundIron rounds to the nearest 0.1 mg
func RoundIron(mg float64) string {
	return format(roundTo(clean(mg), 0.1), 1, "mg")
}

// RoundServings rounds servings per container to one decimal
func RoundServings(servings float64) string {
	return format(roundTo(clean(servings), 0.1), 1, "")
}

// Round dispatches to the rounding rule of n
func Round(n nutrition.Nutrient, amount float64) string {
	switch n {
	case nutrition.NutrientCalories:
		return RoundCalories(amount)
	case nutrition.NutrientTotalFat, nutrition.NutrientSaturatedFat, nutrition.NutrientTransFat:
		return RoundFat(amount)
	case nutrition.NutrientCholesterol:
		return RoundCholesterol(amount)
	case nutrition.NutrientSodium:
		return RoundSodium(amount)
	case nutrition.NutrientPotassium:
		return RoundPotassium(amount)
	case nutrition.NutrientTotalCarbohydrate, nutrition.NutrientDietaryFiber,
		nutrition.NutrientTotalSugars, nutrition.NutrientAddedSugars:
		return RoundCarbohydrate(amount)
	case nutrition.NutrientProtein:
		return RoundProtein(amount)
	case nutrition.NutrientVitaminD:
		return RoundVitaminD(amount)
	case nutrition.NutrientCalcium:
		return RoundCalcium(amount)
	case nutrition.NutrientIron:
		return RoundIron(amount)
	default:
		return format(clean(amount), 1, n.Unit())
	}
}
