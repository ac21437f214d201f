// Package recipe turns free-form recipe text into a typed tree of
// ingredients and parenthetical sub-recipes.
//
// The package is pure: parsing performs no I/O, keeps no state between calls,
// and reports every problem through the returned ParsedRecipe.
package recipe

// ParsedIngredient is one ingredient read from a recipe line
type ParsedIngredient struct {
	RawText        string          `json:"raw_text"`
	Quantity       float64         `json:"quantity"`
	Unit           MeasurementUnit `json:"unit"`
	IngredientName string          `json:"ingredient_name"`
}

// Key returns the normalized lookup key of the ingredient
func (i ParsedIngredient) Key() string {
	return Key(i.IngredientName)
}

// SubRecipe is the decomposition of one parenthetical group. Quantity and
// Unit describe how much of the sub-recipe the parent line uses.
type SubRecipe struct {
	Name        string             `json:"name"`
	RawText     string             `json:"raw_text"`
	Quantity    float64            `json:"quantity"`
	Unit        MeasurementUnit    `json:"unit"`
	Ingredients []ParsedIngredient `json:"ingredients"`
}

// Key returns the normalized lookup key of the sub-recipe
func (s SubRecipe) Key() string {
	return Key(s.Name)
}

// ParsedRecipe is the result of parsing a recipe. Errors are hard failures:
// the recipe must not be aggregated while any are present. Warnings are
// advisory. Ingredients and SubRecipes hold whatever could be recovered, so a
// partial preview can still be shown.
type ParsedRecipe struct {
	Title       string             `json:"title"`
	Ingredients []ParsedIngredient `json:"ingredients"`
	SubRecipes  []SubRecipe        `json:"sub_recipes"`
	Warnings    []string           `json:"warnings"`
	Errors      []string           `json:"errors"`

	parseErrors ParseErrors
}

// OK reports whether the recipe parsed without hard errors
func (r ParsedRecipe) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the hard parse errors as a single error, or nil
func (r ParsedRecipe) Err() error {
	if r.OK() {
		return nil
	}
	if len(r.parseErrors) > 0 {
		return r.parseErrors
	}
	// decoded from JSON: only the messages survive
	errs := make(ParseErrors, len(r.Errors))
	for i, msg := range r.Errors {
		errs[i] = &ParseError{Message: msg}
	}
	return errs
}

// LeafIngredients returns every ingredient that needs its own nutrient
// profile: top-level ingredients followed by the contents of each sub-recipe.
func (r ParsedRecipe) LeafIngredients() []ParsedIngredient {
	leaves := make([]ParsedIngredient, 0, len(r.Ingredients))
	leaves = append(leaves, r.Ingredients...)
	for _, sub := range r.SubRecipes {
		leaves = append(leaves, sub.Ingredients...)
	}
	return leaves
}
