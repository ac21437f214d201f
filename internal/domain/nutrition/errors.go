package nutrition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
)

// Domain errors for unit conversion and aggregation
var (
	// Conversion errors
	ErrNoGenericConversion = errors.New("unit has no generic gram equivalent")
	ErrUnknownUnit         = errors.New("unknown unit")
	ErrInvalidQuantity     = errors.New("quantity must be a finite, non-negative number")

	// Aggregation errors
	ErrInvalidTotalWeight  = errors.New("invalid total weight")
	ErrInvalidServingSize  = errors.New("serving size must be greater than zero")
	ErrNoValidIngredients  = errors.New("no valid ingredients")
	ErrNonFiniteNutrient   = errors.New("non-finite nutrient value")
	ErrInvalidYield        = errors.New("yield factor must be a positive, finite number")
	ErrRecipeHasErrors     = errors.New("recipe has parse errors")
	ErrUnconvertibleAmount = errors.New("ingredient amount cannot be converted to grams")
)

// ConversionError reports a quantity that could not be turned into grams
type ConversionError struct {
	Ingredient string
	Quantity   float64
	Unit       recipe.MeasurementUnit
	Err        error
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	unit := string(e.Unit)
	if unit == "" {
		unit = "(no unit)"
	}
	if e.Ingredient != "" {
		return fmt.Sprintf("cannot convert %g %s of %q to grams: %v", e.Quantity, unit, e.Ingredient, e.Err)
	}
	return fmt.Sprintf("cannot convert %g %s to grams: %v", e.Quantity, unit, e.Err)
}

// Unwrap returns the underlying sentinel
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// AggregationError reports why a dish could not be aggregated. Err is one of
// the aggregation sentinels; Nutrient and Ingredient name the offending input
// when one exists.
type AggregationError struct {
	Err        error
	Nutrient   Nutrient
	Ingredient string
	Detail     string
	Cause      error
}

// Error implements the error interface
func (e *AggregationError) Error() string {
	var b strings.Builder
	b.WriteString("aggregation failed: ")
	b.WriteString(e.Err.Error())
	if e.Nutrient != "" {
		fmt.Fprintf(&b, " (nutrient %s)", e.Nutrient)
	}
	if e.Ingredient != "" {
		fmt.Fprintf(&b, " (ingredient %q)", e.Ingredient)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the cause
func (e *AggregationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// WarningKind classifies a data-quality warning
type WarningKind string

const (
	// WarningInvariant marks a nutrient capped to the nutrient that contains it
	WarningInvariant WarningKind = "invariant"
	// WarningNegative marks a negative input amount clamped to zero
	WarningNegative WarningKind = "negative"
	// WarningCoverage marks a nutrient not reported by every ingredient
	WarningCoverage WarningKind = "coverage"
)

// DataQualityWarning records a correction applied to upstream nutrient data,
// or a gap in it. Corrections carry the original and corrected amounts.
type DataQualityWarning struct {
	Kind       WarningKind `json:"kind"`
	Nutrient   Nutrient    `json:"nutrient"`
	Ingredient string      `json:"ingredient,omitempty"`
	Original   float64     `json:"original"`
	Corrected  float64     `json:"corrected"`
	Message    string      `json:"message"`
}

func (w DataQualityWarning) String() string {
	return w.Message
}
