package nutrition

import "fmt"

// containment states that dependent is part of ceiling and cannot exceed it
type containment struct {
	dependent Nutrient
	ceiling   Nutrient
}

// containments are checked in order; sugars are capped before added sugars
// are compared against them.
var containments = []containment{
	{NutrientDietaryFiber, NutrientTotalCarbohydrate},
	{NutrientTotalSugars, NutrientTotalCarbohydrate},
	{NutrientAddedSugars, NutrientTotalSugars},
	{NutrientSaturatedFat, NutrientTotalFat},
	{NutrientTransFat, NutrientTotalFat},
}

// EnforceInvariants caps every nutrient that exceeds the nutrient containing
// it and returns one warning per correction. Rules whose nutrients are not
// both reported are not checked.
func EnforceInvariants(p Profile) (Profile, []DataQualityWarning) {
	out := p
	var warnings []DataQualityWarning

	for _, c := range containments {
		dep, ok := out.Amount(c.dependent)
		if !ok {
			continue
		}
		ceiling, ok := out.Amount(c.ceiling)
		if !ok || dep <= ceiling {
			continue
		}

		out = out.With(c.dependent, ceiling)
		warnings = append(warnings, DataQualityWarning{
			Kind:      WarningInvariant,
			Nutrient:  c.dependent,
			Original:  dep,
			Corrected: ceiling,
			Message: fmt.Sprintf("%s (%g %s) exceeded %s and was capped to %g %s",
				c.dependent.DisplayName(), dep, c.dependent.Unit(), c.ceiling.DisplayName(), ceiling, c.ceiling.Unit()),
		})
	}

	return out, warnings
}

// Violations lists the containment rules p breaks, for validation
func Violations(p Profile) []string {
	var out []string
	for _, c := range containments {
		dep, ok1 := p.Amount(c.dependent)
		ceiling, ok2 := p.Amount(c.ceiling)
		if ok1 && ok2 && dep > ceiling {
			out = append(out, fmt.Sprintf("%s > %s", c.dependent, c.ceiling))
		}
	}
	return out
}
