// Package nutrition converts parsed recipes into weighted nutrient profiles.
//
// Everything here is pure: conversion and aggregation perform no I/O, keep no
// state and report problems through returned errors and warnings. Nutrient
// data for each ingredient is supplied by the caller.
package nutrition

// Nutrient is the canonical key of a label nutrient
type Nutrient string

const (
	NutrientCalories          Nutrient = "calories"
	NutrientTotalFat          Nutrient = "total_fat"
	NutrientSaturatedFat      Nutrient = "saturated_fat"
	NutrientTransFat          Nutrient = "trans_fat"
	NutrientCholesterol       Nutrient = "cholesterol"
	NutrientSodium            Nutrient = "sodium"
	NutrientTotalCarbohydrate Nutrient = "total_carbohydrate"
	NutrientDietaryFiber      Nutrient = "dietary_fiber"
	NutrientTotalSugars       Nutrient = "total_sugars"
	NutrientAddedSugars       Nutrient = "added_sugars"
	NutrientProtein           Nutrient = "protein"
	NutrientVitaminD          Nutrient = "vitamin_d"
	NutrientCalcium           Nutrient = "calcium"
	NutrientIron              Nutrient = "iron"
	NutrientPotassium         Nutrient = "potassium"
)

type nutrientInfo struct {
	name string
	unit string
}

var nutrientTable = map[Nutrient]nutrientInfo{
	NutrientCalories:          {"Calories", "kcal"},
	NutrientTotalFat:          {"Total Fat", "g"},
	NutrientSaturatedFat:      {"Saturated Fat", "g"},
	NutrientTransFat:          {"Trans Fat", "g"},
	NutrientCholesterol:       {"Cholesterol", "mg"},
	NutrientSodium:            {"Sodium", "mg"},
	NutrientTotalCarbohydrate: {"Total Carbohydrate", "g"},
	NutrientDietaryFiber:      {"Dietary Fiber", "g"},
	NutrientTotalSugars:       {"Total Sugars", "g"},
	NutrientAddedSugars:       {"Added Sugars", "g"},
	NutrientProtein:           {"Protein", "g"},
	NutrientVitaminD:          {"Vitamin D", "mcg"},
	NutrientCalcium:           {"Calcium", "mg"},
	NutrientIron:              {"Iron", "mg"},
	NutrientPotassium:         {"Potassium", "mg"},
}

// labelOrder is the order nutrients appear on a Nutrition Facts panel
var labelOrder = []Nutrient{
	NutrientCalories,
	NutrientTotalFat,
	NutrientSaturatedFat,
	NutrientTransFat,
	NutrientCholesterol,
	NutrientSodium,
	NutrientTotalCarbohydrate,
	NutrientDietaryFiber,
	NutrientTotalSugars,
	NutrientAddedSugars,
	NutrientProtein,
	NutrientVitaminD,
	NutrientCalcium,
	NutrientIron,
	NutrientPotassium,
}

// AllNutrients returns every canonical nutrient in label order
func AllNutrients() []Nutrient {
	out := make([]Nutrient, len(labelOrder))
	copy(out, labelOrder)
	return out
}

// ParseNutrient validates a nutrient key
func ParseNutrient(s string) (Nutrient, bool) {
	n := Nutrient(s)
	_, ok := nutrientTable[n]
	return n, ok
}

// Valid reports whether n is a canonical nutrient key
func (n Nutrient) Valid() bool {
	_, ok := nutrientTable[n]
	return ok
}

// DisplayName returns the label name, e.g. "Total Fat"
func (n Nutrient) DisplayName() string {
	if info, ok := nutrientTable[n]; ok {
		return info.name
	}
	return string(n)
}

// Unit returns the unit amounts of n are expressed in: kcal, g, mg or mcg
func (n Nutrient) Unit() string {
	return nutrientTable[n].unit
}

func (n Nutrient) String() string {
	return string(n)
}
