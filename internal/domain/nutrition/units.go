package nutrition

import (
	"strings"

	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
)

// Mass conversions are exact. Volume conversions assume the density of water
// (1 g/ml) and are therefore only an approximation for any other ingredient;
// a matching portion from the nutrient source always takes precedence.
const (
	GramsPerMilligram = 0.001
	GramsPerKilogram  = 1000.0
	GramsPerOunce     = 28.349523125
	GramsPerPound     = 453.59237

	GramsPerMilliliter = 1.0
	GramsPerLiter      = 1000.0
	GramsPerTeaspoon   = 4.92892159375
	GramsPerTablespoon = 3 * GramsPerTeaspoon
	GramsPerFluidOunce = 2 * GramsPerTablespoon
	GramsPerCup        = 8 * GramsPerFluidOunce
	GramsPerPinch      = GramsPerTeaspoon / 16
	GramsPerDash       = GramsPerTeaspoon / 8
)

var gramsPerUnit = map[recipe.MeasurementUnit]float64{
	recipe.MeasurementUnitGram:       1,
	recipe.MeasurementUnitMilligram:  GramsPerMilligram,
	recipe.MeasurementUnitKilogram:   GramsPerKilogram,
	recipe.MeasurementUnitOunce:      GramsPerOunce,
	recipe.MeasurementUnitPound:      GramsPerPound,
	recipe.MeasurementUnitMilliliter: GramsPerMilliliter,
	recipe.MeasurementUnitLiter:      GramsPerLiter,
	recipe.MeasurementUnitTeaspoon:   GramsPerTeaspoon,
	recipe.MeasurementUnitTablespoon: GramsPerTablespoon,
	recipe.MeasurementUnitFluidOunce: GramsPerFluidOunce,
	recipe.MeasurementUnitCup:        GramsPerCup,
	recipe.MeasurementUnitPinch:      GramsPerPinch,
	recipe.MeasurementUnitDash:       GramsPerDash,
}

// GramFactor returns the generic grams per one unit. Count units have none.
func GramFactor(unit recipe.MeasurementUnit) (float64, bool) {
	f, ok := gramsPerUnit[unit]
	return f, ok
}

// Portion is an ingredient-specific household measure, such as
// "1 slice = 28 g", supplied by the nutrient source
type Portion struct {
	Name       string                 `json:"name"`
	Unit       recipe.MeasurementUnit `json:"unit"`
	Amount     float64                `json:"amount"`
	GramWeight float64                `json:"gram_weight"`
}

// NewPortion builds a portion from a free-form measure name such as
// "cup, chopped" or "1 large", recognizing its unit when it has one.
// Amount defaults to 1.
func NewPortion(name string, amount, gramWeight float64) Portion {
	if amount <= 0 {
		amount = 1
	}
	return Portion{
		Name:       name,
		Unit:       portionUnit(name),
		Amount:     amount,
		GramWeight: gramWeight,
	}
}

func (p Portion) gramsPerUnit() float64 {
	amount := p.Amount
	if amount <= 0 {
		amount = 1
	}
	return p.GramWeight / amount
}

func portionUnit(name string) recipe.MeasurementUnit {
	name = strings.ToLower(name)
	if i := strings.IndexAny(name, ",("); i >= 0 {
		name = name[:i]
	}
	if _, rest, err := recipe.ScanQuantity(name); err == nil {
		name = rest
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return recipe.MeasurementUnitNone
	}
	if u, ok := recipe.ParseUnit(strings.Join(fields, " ")); ok {
		return u
	}
	if len(fields) >= 2 {
		if u, ok := recipe.ParseUnit(fields[0] + " " + fields[1]); ok {
			return u
		}
	}
	if u, ok := recipe.ParseUnit(fields[0]); ok {
		return u
	}
	return recipe.MeasurementUnitNone
}

// ToGrams converts a quantity of unit into grams. A portion matching the unit
// is authoritative; otherwise the generic mass/volume table is used. Count
// units without a matching portion fail with a ConversionError wrapping
// ErrNoGenericConversion.
func ToGrams(quantity float64, unit recipe.MeasurementUnit, portions []Portion) (float64, error) {
	if !isFinite(quantity) || quantity < 0 {
		return 0, &ConversionError{Quantity: quantity, Unit: unit, Err: ErrInvalidQuantity}
	}

	if p, ok := matchPortion(unit, portions); ok {
		return quantity * p.gramsPerUnit(), nil
	}

	if f, ok := gramsPerUnit[unit]; ok {
		return quantity * f, nil
	}

	if _, known := recipe.ParseUnit(string(unit)); !known && unit != recipe.MeasurementUnitNone {
		return 0, &ConversionError{Quantity: quantity, Unit: unit, Err: ErrUnknownUnit}
	}
	return 0, &ConversionError{Quantity: quantity, Unit: unit, Err: ErrNoGenericConversion}
}

// matchPortion finds the portion describing one unit. Bare counts ("1 egg")
// and pieces match piece or item portions first, then named portions such as
// "large".
func matchPortion(unit recipe.MeasurementUnit, portions []Portion) (Portion, bool) {
	usable := func(p Portion) bool {
		return p.GramWeight > 0 && isFinite(p.GramWeight)
	}

	if unit != recipe.MeasurementUnitNone {
		for _, p := range portions {
			if p.Unit == unit && usable(p) {
				return p, true
			}
		}
	}

	switch unit {
	case recipe.MeasurementUnitNone, recipe.MeasurementUnitPiece, recipe.MeasurementUnitItem:
	default:
		return Portion{}, false
	}

	for _, p := range portions {
		if (p.Unit == recipe.MeasurementUnitPiece || p.Unit == recipe.MeasurementUnitItem) && usable(p) {
			return p, true
		}
	}
	for _, p := range portions {
		if p.Unit == recipe.MeasurementUnitNone && usable(p) {
			return p, true
		}
	}
	return Portion{}, false
}
