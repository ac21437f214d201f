package label

import (
	"fmt"
	"math"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
)

// dailyValues are the reference daily intakes for adults and children over 4
// (2016 label rule), in each nutrient's unit
var dailyValues = map[nutrition.Nutrient]float64{
	nutrition.NutrientTotalFat:          78,
	nutrition.NutrientSaturatedFat:      20,
	nutrition.NutrientCholesterol:       300,
	nutrition.NutrientSodium:            2300,
	nutrition.NutrientTotalCarbohydrate: 275,
	nutrition.NutrientDietaryFiber:      28,
	nutrition.NutrientAddedSugars:       50,
	nutrition.NutrientProtein:           50,
	nutrition.NutrientVitaminD:          20,
	nutrition.NutrientCalcium:           1300,
	nutrition.NutrientIron:              18,
	nutrition.NutrientPotassium:         4700,
}

// DailyValue returns the reference daily intake of n. Calories, trans fat and
// total sugars have none.
func DailyValue(n nutrition.Nutrient) (float64, bool) {
	v, ok := dailyValues[n]
	return v, ok
}

// PercentDailyValue returns amount as a whole percentage of the daily value
// of n, rounded to the nearest 1%
func PercentDailyValue(n nutrition.Nutrient, amount float64) (int, bool) {
	dv, ok := dailyValues[n]
	if !ok {
		return 0, false
	}
	return int(roundTo(clean(amount)/dv*100, 1)), true
}

// Line is one row of the Nutrition Facts panel
type Line struct {
	Nutrient   nutrition.Nutrient `json:"nutrient"`
	Name       string             `json:"name"`
	Amount     string             `json:"amount"`
	DailyValue string             `json:"daily_value,omitempty"`
	Indent     int                `json:"indent"`
}

// Facts is the display view of an aggregated dish. Every figure is a rounded
// string; the dish itself is left untouched.
type Facts struct {
	Title                string   `json:"title"`
	ServingSize          string   `json:"serving_size"`
	ServingsPerContainer string   `json:"servings_per_container"`
	Calories             string   `json:"calories"`
	Lines                []Line   `json:"lines"`
	Notes                []string `json:"notes"`
}

var indents = map[nutrition.Nutrient]int{
	nutrition.NutrientSaturatedFat: 1,
	nutrition.NutrientTransFat:     1,
	nutrition.NutrientDietaryFiber: 1,
	nutrition.NutrientTotalSugars:  1,
	nutrition.NutrientAddedSugars:  2,
}

// NewFacts builds the Nutrition Facts view of d from its raw per-serving
// amounts. Nutrients the dish does not report are left off the panel.
func NewFacts(d nutrition.AggregatedDish) Facts {
	per := d.NutritionPerServing
	facts := Facts{
		Title:                d.Title,
		ServingSize:          fmt.Sprintf("%s g", format(math.Round(clean(d.ServingSizeGrams)), 0, "")),
		ServingsPerContainer: RoundServings(d.ServingsPerContainer),
		Calories:             RoundCalories(per.Value(nutrition.NutrientCalories)),
		Lines:                make([]Line, 0, per.Len()),
		Notes:                make([]string, 0, len(d.Warnings)),
	}

	for _, n := range per.Nutrients() {
		if n == nutrition.NutrientCalories {
			continue
		}
		amount, _ := per.Amount(n)

		line := Line{
			Nutrient: n,
			Name:     n.DisplayName(),
			Amount:   Round(n, amount),
			Indent:   indents[n],
		}
		if pct, ok := PercentDailyValue(n, amount); ok {
			line.DailyValue = fmt.Sprintf("%d%%", pct)
		}
		if n == nutrition.NutrientAddedSugars {
			line.Name = "Includes " + line.Amount + " Added Sugars"
		}
		facts.Lines = append(facts.Lines, line)
	}

	for _, w := range d.Warnings {
		facts.Notes = append(facts.Notes, w.Message)
	}

	return facts
}
