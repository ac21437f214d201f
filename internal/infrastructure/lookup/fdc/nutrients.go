package fdc

import (
	"strings"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
)

// FoodData Central nutrient IDs mapped onto label nutrients
const (
	NutrientIDEnergy            = 1008 // kcal
	NutrientIDEnergyKJ          = 1062
	NutrientIDEnergyAtwaterGen  = 2047 // kcal, Foundation foods
	NutrientIDEnergyAtwaterSpec = 2048 // kcal, Foundation foods
	NutrientIDProtein           = 1003
	NutrientIDTotalFat          = 1004
	NutrientIDTotalFatNLEA      = 1085
	NutrientIDCarbohydrate      = 1005
	NutrientIDCarbohydrateSum   = 1050
	NutrientIDSaturatedFat      = 1258
	NutrientIDTransFat          = 1257
	NutrientIDCholesterol       = 1253
	NutrientIDSodium            = 1093
	NutrientIDFiber             = 1079
	NutrientIDSugarsNLEA        = 2000
	NutrientIDSugars            = 1063
	NutrientIDAddedSugars       = 1235
	NutrientIDVitaminD          = 1114
	NutrientIDVitaminDIU        = 1110
	NutrientIDCalcium           = 1087
	NutrientIDIron              = 1089
	NutrientIDPotassium         = 1092
)

// source is one FDC nutrient that can supply a label nutrient. A lower rank
// wins when a food reports several sources for the same nutrient.
type source struct {
	nutrient nutrition.Nutrient
	rank     int
}

// nutrientIDs is closed: FDC nutrients not listed here never reach the
// domain
var nutrientIDs = map[int]source{
	NutrientIDEnergy:            {nutrition.NutrientCalories, 0},
	NutrientIDEnergyAtwaterGen:  {nutrition.NutrientCalories, 1},
	NutrientIDEnergyAtwaterSpec: {nutrition.NutrientCalories, 2},
	NutrientIDEnergyKJ:          {nutrition.NutrientCalories, 3},
	NutrientIDProtein:           {nutrition.NutrientProtein, 0},
	NutrientIDTotalFat:          {nutrition.NutrientTotalFat, 0},
	NutrientIDTotalFatNLEA:      {nutrition.NutrientTotalFat, 1},
	NutrientIDCarbohydrate:      {nutrition.NutrientTotalCarbohydrate, 0},
	NutrientIDCarbohydrateSum:   {nutrition.NutrientTotalCarbohydrate, 1},
	NutrientIDSaturatedFat:      {nutrition.NutrientSaturatedFat, 0},
	NutrientIDTransFat:          {nutrition.NutrientTransFat, 0},
	NutrientIDCholesterol:       {nutrition.NutrientCholesterol, 0},
	NutrientIDSodium:            {nutrition.NutrientSodium, 0},
	NutrientIDFiber:             {nutrition.NutrientDietaryFiber, 0},
	NutrientIDSugarsNLEA:        {nutrition.NutrientTotalSugars, 0},
	NutrientIDSugars:            {nutrition.NutrientTotalSugars, 1},
	NutrientIDAddedSugars:       {nutrition.NutrientAddedSugars, 0},
	NutrientIDVitaminD:          {nutrition.NutrientVitaminD, 0},
	NutrientIDVitaminDIU:        {nutrition.NutrientVitaminD, 1},
	NutrientIDCalcium:           {nutrition.NutrientCalcium, 0},
	NutrientIDIron:              {nutrition.NutrientIron, 0},
	NutrientIDPotassium:         {nutrition.NutrientPotassium, 0},
}

const (
	kilojoulesPerKilocalorie = 4.184
	vitaminDIUPerMicrogram   = 40
)

// massUnits are grams per unit
var massUnits = map[string]float64{
	"g":   1,
	"mg":  1e-3,
	"ug":  1e-6,
	"µg":  1e-6,
	"μg":  1e-6,
	"mcg": 1e-6,
}

// convert expresses value, reported in unit from, in the label unit of n.
// Units that cannot be reconciled report false.
func convert(n nutrition.Nutrient, value float64, from string) (float64, bool) {
	from = strings.ToLower(strings.TrimSpace(from))
	to := n.Unit()

	switch {
	case from == to:
		return value, true
	case n == nutrition.NutrientCalories:
		if from == "kj" {
			return value / kilojoulesPerKilocalorie, true
		}
		return 0, false
	case n == nutrition.NutrientVitaminD && from == "iu":
		return value / vitaminDIUPerMicrogram, true
	}

	f, ok := massUnits[from]
	if !ok {
		return 0, false
	}
	t, ok := massUnits[to]
	if !ok {
		return 0, false
	}
	return value * f / t, true
}

// reported is one nutrient amount as FDC returned it
type reported struct {
	id     int
	unit   string
	amount float64
}

// toProfile keeps the best-ranked source of every label nutrient. Energy in
// kJ only counts when no kcal source is present.
func toProfile(values []reported) nutrition.Profile {
	type pick struct {
		value float64
		rank  int
	}
	best := make(map[nutrition.Nutrient]pick)

	for _, r := range values {
		src, ok := nutrientIDs[r.id]
		if !ok {
			continue
		}
		v, ok := convert(src.nutrient, r.amount, r.unit)
		if !ok {
			continue
		}
		if cur, seen := best[src.nutrient]; seen && cur.rank <= src.rank {
			continue
		}
		best[src.nutrient] = pick{value: v, rank: src.rank}
	}

	amounts := make(map[nutrition.Nutrient]float64, len(best))
	for n, p := range best {
		amounts[n] = p.value
	}
	return nutrition.NewProfile(amounts)
}
