package nutrition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
)

// Input is everything needed to aggregate one parsed recipe
type Input struct {
	Recipe recipe.ParsedRecipe

	// Resolved holds nutrient data per leaf ingredient, keyed by recipe.Key.
	// Ingredients missing from both Resolved and Saved are skipped.
	Resolved map[string]Resolution

	// Saved holds previously aggregated dishes used as ingredients, keyed by
	// recipe.Key of their name.
	Saved map[string]AggregatedDish

	ServingSizeGrams float64

	// YieldFactor is cooked weight divided by raw weight. Zero means 1.
	YieldFactor float64
}

type part struct {
	name    string
	grams   float64
	profile Profile
	source  ContributionSource
}

type aggregator struct {
	in       Input
	warnings []DataQualityWarning
	skipped  []string
}

// Aggregate computes the mass-weighted nutrient profile of a recipe.
//
// Every line is converted to grams and contributes amount x grams / 100 of
// each nutrient. Parsed sub-recipes are aggregated first and contribute
// through their own per-100 g profile; a sub-recipe line without a
// convertible unit counts whole batches. The yield factor scales the total
// weight and divides the per-100 g profile, so nutrient mass is conserved.
// Nutrient relationships are corrected afterwards and every correction is
// reported as a DataQualityWarning.
func Aggregate(in Input) (AggregatedDish, error) {
	if !isFinite(in.ServingSizeGrams) || in.ServingSizeGrams <= 0 {
		return AggregatedDish{}, &AggregationError{
			Err:    ErrInvalidServingSize,
			Detail: fmt.Sprintf("got %g g", in.ServingSizeGrams),
		}
	}

	yield := in.YieldFactor
	if yield == 0 {
		yield = 1
	}
	if !isFinite(yield) || yield < 0 {
		return AggregatedDish{}, &AggregationError{
			Err:    ErrInvalidYield,
			Detail: fmt.Sprintf("got %g", in.YieldFactor),
		}
	}

	if !in.Recipe.OK() {
		return AggregatedDish{}, &AggregationError{Err: ErrRecipeHasErrors, Cause: in.Recipe.Err()}
	}

	a := &aggregator{in: in}
	parts, err := a.collect()
	if err != nil {
		return AggregatedDish{}, err
	}
	if len(parts) == 0 {
		detail := ""
		if len(a.skipped) > 0 {
			detail = "skipped: " + strings.Join(a.skipped, ", ")
		}
		return AggregatedDish{}, &AggregationError{Err: ErrNoValidIngredients, Detail: detail}
	}

	rawWeight, rawPer100, err := a.combine("", parts)
	if err != nil {
		return AggregatedDish{}, err
	}

	per100, corrections := EnforceInvariants(rawPer100.Scale(1 / yield))
	a.warnings = append(a.warnings, corrections...)

	total := rawWeight * yield
	dish := AggregatedDish{
		Title:                in.Recipe.Title,
		NutritionPer100g:     per100,
		TotalWeightGrams:     total,
		RawWeightGrams:       rawWeight,
		YieldFactor:          yield,
		ServingSizeGrams:     in.ServingSizeGrams,
		NutritionPerServing:  per100.Scale(in.ServingSizeGrams / 100),
		ServingsPerContainer: total / in.ServingSizeGrams,
		Contributions:        make([]Contribution, 0, len(parts)),
		Warnings:             a.warnings,
		Skipped:              a.skipped,
	}
	for _, p := range parts {
		dish.Contributions = append(dish.Contributions, Contribution{Name: p.name, Grams: p.grams, Source: p.source})
	}
	if dish.Warnings == nil {
		dish.Warnings = []DataQualityWarning{}
	}
	if dish.Skipped == nil {
		dish.Skipped = []string{}
	}

	if err := checkFinite(dish); err != nil {
		return AggregatedDish{}, err
	}
	return dish, nil
}

func (a *aggregator) collect() ([]part, error) {
	parts := make([]part, 0, len(a.in.Recipe.Ingredients)+len(a.in.Recipe.SubRecipes))

	for _, ing := range a.in.Recipe.Ingredients {
		p, ok, err := a.ingredient(ing)
		if err != nil {
			return nil, err
		}
		if ok {
			parts = append(parts, p)
		}
	}

	for _, sub := range a.in.Recipe.SubRecipes {
		p, ok, err := a.subRecipe(sub)
		if err != nil {
			return nil, err
		}
		if ok {
			parts = append(parts, p)
		}
	}

	return parts, nil
}

func (a *aggregator) ingredient(ing recipe.ParsedIngredient) (part, bool, error) {
	key := ing.Key()

	if dish, ok := a.in.Saved[key]; ok {
		unit := ing.Unit
		if unit == recipe.MeasurementUnitNone {
			unit = recipe.MeasurementUnitBatch
		}
		grams, err := ToGrams(ing.Quantity, unit, dish.Portions())
		if err != nil {
			return part{}, false, conversionFailure(ing.IngredientName, err)
		}
		profile, err := a.sanitize(ing.IngredientName, dish.NutritionPer100g)
		if err != nil {
			return part{}, false, err
		}
		return part{name: ing.IngredientName, grams: grams, profile: profile, source: SourceSavedDish}, true, nil
	}

	res, ok := a.in.Resolved[key]
	if !ok {
		a.skipped = append(a.skipped, ing.IngredientName)
		return part{}, false, nil
	}

	grams, err := ToGrams(ing.Quantity, ing.Unit, res.Portions)
	if err != nil {
		return part{}, false, conversionFailure(ing.IngredientName, err)
	}
	profile, err := a.sanitize(ing.IngredientName, res.Profile)
	if err != nil {
		return part{}, false, err
	}
	return part{name: ing.IngredientName, grams: grams, profile: profile, source: SourceIngredient}, true, nil
}

func (a *aggregator) subRecipe(sub recipe.SubRecipe) (part, bool, error) {
	parts := make([]part, 0, len(sub.Ingredients))
	for _, ing := range sub.Ingredients {
		p, ok, err := a.ingredient(ing)
		if err != nil {
			return part{}, false, err
		}
		if ok {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		a.skipped = append(a.skipped, sub.Name)
		return part{}, false, nil
	}

	weight, per100, err := a.combine(sub.Name, parts)
	if err != nil {
		return part{}, false, err
	}

	var grams float64
	switch sub.Unit {
	case recipe.MeasurementUnitNone, recipe.MeasurementUnitBatch:
		grams = sub.Quantity * weight
	default:
		grams, err = ToGrams(sub.Quantity, sub.Unit, nil)
		if err != nil {
			return part{}, false, conversionFailure(sub.Name, err)
		}
	}

	return part{name: sub.Name, grams: grams, profile: per100, source: SourceSubRecipe}, true, nil
}

// combine returns the total weight of parts and their mass-weighted per-100 g
// profile. A nutrient reported by at least one part is kept; parts that do not
// report it contribute nothing and are listed in a coverage warning.
func (a *aggregator) combine(scope string, parts []part) (float64, Profile, error) {
	total := 0.0
	for _, p := range parts {
		total += p.grams
	}
	if !isFinite(total) || total <= 0 {
		return 0, Profile{}, &AggregationError{
			Err:        ErrInvalidTotalWeight,
			Ingredient: scope,
			Detail:     fmt.Sprintf("ingredients sum to %g g", total),
		}
	}

	values := make(map[Nutrient]float64)
	for _, n := range labelOrder {
		mass := 0.0
		reported := false
		var missing []string

		for _, p := range parts {
			v, ok := p.profile.Amount(n)
			if !ok {
				missing = append(missing, p.name)
				continue
			}
			reported = true
			mass += v * p.grams / 100
		}
		if !reported {
			continue
		}

		value := mass / (total / 100)
		if !isFinite(value) {
			return 0, Profile{}, &AggregationError{
				Err:        ErrNonFiniteNutrient,
				Nutrient:   n,
				Ingredient: scope,
				Detail:     fmt.Sprintf("%g of nutrient mass over %g g", mass, total),
			}
		}
		values[n] = value

		if len(missing) > 0 {
			msg := fmt.Sprintf("%s not reported for %s", n.DisplayName(), strings.Join(missing, ", "))
			if scope != "" {
				msg = fmt.Sprintf("%s (in %s)", msg, scope)
			}
			a.warnings = append(a.warnings, DataQualityWarning{
				Kind:       WarningCoverage,
				Nutrient:   n,
				Ingredient: strings.Join(missing, ", "),
				Message:    msg,
			})
		}
	}

	return total, NewProfile(values), nil
}

// sanitize rejects non-finite amounts and clamps negative ones to zero
func (a *aggregator) sanitize(ingredient string, p Profile) (Profile, error) {
	out := p
	for _, n := range p.Nutrients() {
		v, _ := p.Amount(n)
		if !isFinite(v) {
			return Profile{}, &AggregationError{
				Err:        ErrNonFiniteNutrient,
				Nutrient:   n,
				Ingredient: ingredient,
				Detail:     fmt.Sprintf("input amount is %v", v),
			}
		}
		if v < 0 {
			out = out.With(n, 0)
			a.warnings = append(a.warnings, DataQualityWarning{
				Kind:       WarningNegative,
				Nutrient:   n,
				Ingredient: ingredient,
				Original:   v,
				Corrected:  0,
				Message:    fmt.Sprintf("%s of %s was negative (%g) and was set to 0", n.DisplayName(), ingredient, v),
			})
		}
	}
	return out, nil
}

func conversionFailure(ingredient string, err error) error {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		convErr.Ingredient = ingredient
	}
	return &AggregationError{Err: ErrUnconvertibleAmount, Ingredient: ingredient, Cause: err}
}

// checkFinite fails on the first NaN or infinite figure of a dish
func checkFinite(d AggregatedDish) error {
	scalars := []struct {
		name  string
		value float64
	}{
		{"total weight", d.TotalWeightGrams},
		{"servings per container", d.ServingsPerContainer},
	}
	for _, s := range scalars {
		if !isFinite(s.value) {
			return &AggregationError{
				Err:    ErrNonFiniteNutrient,
				Detail: fmt.Sprintf("%s is %v (raw weight %g g, yield %g, serving %g g)", s.name, s.value, d.RawWeightGrams, d.YieldFactor, d.ServingSizeGrams),
			}
		}
	}

	profiles := []struct {
		basis   string
		profile Profile
	}{
		{"per 100 g", d.NutritionPer100g},
		{"per serving", d.NutritionPerServing},
	}
	for _, p := range profiles {
		if n, v, bad := p.profile.firstNonFinite(); bad {
			return &AggregationError{
				Err:      ErrNonFiniteNutrient,
				Nutrient: n,
				Detail:   fmt.Sprintf("%s amount is %v (total weight %g g, yield %g, serving %g g)", p.basis, v, d.TotalWeightGrams, d.YieldFactor, d.ServingSizeGrams),
			}
		}
	}
	return nil
}
