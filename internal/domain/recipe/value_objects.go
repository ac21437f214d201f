package recipe

import "strings"

// MeasurementUnit represents a culinary unit of measurement
type MeasurementUnit string

const (
	// Mass units
	MeasurementUnitMilligram MeasurementUnit = "mg"
	MeasurementUnitGram      MeasurementUnit = "g"
	MeasurementUnitKilogram  MeasurementUnit = "kg"
	MeasurementUnitOunce     MeasurementUnit = "oz"
	MeasurementUnitPound     MeasurementUnit = "lb"

	// Volume units
	MeasurementUnitTeaspoon   MeasurementUnit = "tsp"
	MeasurementUnitTablespoon MeasurementUnit = "tbsp"
	MeasurementUnitCup        MeasurementUnit = "cup"
	MeasurementUnitFluidOunce MeasurementUnit = "fl oz"
	MeasurementUnitMilliliter MeasurementUnit = "ml"
	MeasurementUnitLiter      MeasurementUnit = "l"
	MeasurementUnitDash       MeasurementUnit = "dash"
	MeasurementUnitPinch      MeasurementUnit = "pinch"

	// Count units
	MeasurementUnitPiece MeasurementUnit = "piece"
	MeasurementUnitSlice MeasurementUnit = "slice"
	MeasurementUnitItem  MeasurementUnit = "item"

	// Portions of a composed dish
	MeasurementUnitServing MeasurementUnit = "serving"
	MeasurementUnitBatch   MeasurementUnit = "batch"

	// MeasurementUnitNone marks a bare count such as "1 egg"
	MeasurementUnitNone MeasurementUnit = ""
)

// UnitKind groups units by the physical quantity they measure
type UnitKind string

const (
	UnitKindMass   UnitKind = "mass"
	UnitKindVolume UnitKind = "volume"
	UnitKindCount  UnitKind = "count"
)

// Kind returns the kind of the unit. Unknown units report UnitKindCount,
// since they have no generic gram equivalent either.
func (u MeasurementUnit) Kind() UnitKind {
	switch u {
	case MeasurementUnitMilligram, MeasurementUnitGram, MeasurementUnitKilogram,
		MeasurementUnitOunce, MeasurementUnitPound:
		return UnitKindMass
	case MeasurementUnitTeaspoon, MeasurementUnitTablespoon, MeasurementUnitCup,
		MeasurementUnitFluidOunce, MeasurementUnitMilliliter, MeasurementUnitLiter,
		MeasurementUnitDash, MeasurementUnitPinch:
		return UnitKindVolume
	default:
		return UnitKindCount
	}
}

// IsCount reports whether the unit counts discrete things
func (u MeasurementUnit) IsCount() bool {
	return u.Kind() == UnitKindCount
}

// unitAliases is the fixed culinary vocabulary understood by the parser.
// Keys are lower case with trailing periods removed.
var unitAliases = map[string]MeasurementUnit{
	"mg": MeasurementUnitMilligram, "milligram": MeasurementUnitMilligram, "milligrams": MeasurementUnitMilligram,
	"g": MeasurementUnitGram, "gr": MeasurementUnitGram, "gram": MeasurementUnitGram, "grams": MeasurementUnitGram,
	"gramme": MeasurementUnitGram, "grammes": MeasurementUnitGram,
	"kg": MeasurementUnitKilogram, "kgs": MeasurementUnitKilogram, "kilogram": MeasurementUnitKilogram,
	"kilograms": MeasurementUnitKilogram,
	"oz":        MeasurementUnitOunce, "ozs": MeasurementUnitOunce, "ounce": MeasurementUnitOunce, "ounces": MeasurementUnitOunce,
	"lb": MeasurementUnitPound, "lbs": MeasurementUnitPound, "pound": MeasurementUnitPound, "pounds": MeasurementUnitPound,

	"tsp": MeasurementUnitTeaspoon, "tsps": MeasurementUnitTeaspoon, "teaspoon": MeasurementUnitTeaspoon,
	"teaspoons": MeasurementUnitTeaspoon,
	"tbsp":      MeasurementUnitTablespoon, "tbsps": MeasurementUnitTablespoon, "tbs": MeasurementUnitTablespoon,
	"tbl": MeasurementUnitTablespoon, "tablespoon": MeasurementUnitTablespoon, "tablespoons": MeasurementUnitTablespoon,
	"cup": MeasurementUnitCup, "cups": MeasurementUnitCup,
	"floz": MeasurementUnitFluidOunce, "fl oz": MeasurementUnitFluidOunce, "fl ozs": MeasurementUnitFluidOunce,
	"fluid ounce": MeasurementUnitFluidOunce, "fluid ounces": MeasurementUnitFluidOunce,
	"ml": MeasurementUnitMilliliter, "mls": MeasurementUnitMilliliter, "milliliter": MeasurementUnitMilliliter,
	"milliliters": MeasurementUnitMilliliter, "millilitre": MeasurementUnitMilliliter, "millilitres": MeasurementUnitMilliliter,
	"l": MeasurementUnitLiter, "liter": MeasurementUnitLiter, "liters": MeasurementUnitLiter,
	"litre": MeasurementUnitLiter, "litres": MeasurementUnitLiter,
	"dash": MeasurementUnitDash, "dashes": MeasurementUnitDash,
	"pinch": MeasurementUnitPinch, "pinches": MeasurementUnitPinch,

	"piece": MeasurementUnitPiece, "pieces": MeasurementUnitPiece, "pc": MeasurementUnitPiece,
	"pcs": MeasurementUnitPiece, "each": MeasurementUnitPiece, "ea": MeasurementUnitPiece, "whole": MeasurementUnitPiece,
	"slice": MeasurementUnitSlice, "slices": MeasurementUnitSlice,
	"item": MeasurementUnitItem, "items": MeasurementUnitItem,
	"serving": MeasurementUnitServing, "servings": MeasurementUnitServing,
	"batch": MeasurementUnitBatch, "batches": MeasurementUnitBatch,
}

// ParseUnit maps a written unit (any alias, any case) to its canonical form
func ParseUnit(s string) (MeasurementUnit, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	key = strings.ReplaceAll(key, ".", "")
	if key == "" {
		return MeasurementUnitNone, false
	}
	u, ok := unitAliases[key]
	return u, ok
}

// Key normalizes an ingredient or sub-recipe name for use as a map key
func Key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
