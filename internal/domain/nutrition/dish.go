package nutrition

import (
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
)

// Resolution is the nutrient data resolved for one leaf ingredient
type Resolution struct {
	Profile     Profile   `json:"profile"`
	Portions    []Portion `json:"portions,omitempty"`
	Source      string    `json:"source,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ContributionSource tells where a contribution's nutrient data came from
type ContributionSource string

const (
	SourceIngredient ContributionSource = "ingredient"
	SourceSubRecipe  ContributionSource = "sub_recipe"
	SourceSavedDish  ContributionSource = "saved_dish"
)

// Contribution is the weight one top-level line adds to a dish
type Contribution struct {
	Name   string             `json:"name"`
	Grams  float64            `json:"grams"`
	Source ContributionSource `json:"source"`
}

// AggregatedDish is the nutrient model of a dish. NutritionPer100g is the
// canonical, unrounded basis for every other figure. TotalWeightGrams is the
// weight after YieldFactor was applied to RawWeightGrams. Values are never
// modified in place; Rescale returns a new dish.
type AggregatedDish struct {
	Title                string               `json:"title"`
	NutritionPer100g     Profile              `json:"nutrition_per_100g"`
	TotalWeightGrams     float64              `json:"total_weight_grams"`
	RawWeightGrams       float64              `json:"raw_weight_grams"`
	YieldFactor          float64              `json:"yield_factor"`
	ServingSizeGrams     float64              `json:"serving_size_grams"`
	NutritionPerServing  Profile              `json:"nutrition_per_serving"`
	ServingsPerContainer float64              `json:"servings_per_container"`
	Contributions        []Contribution       `json:"contributions"`
	Warnings             []DataQualityWarning `json:"warnings"`
	Skipped              []string             `json:"skipped"`
}

// Portions lets the dish be used as an ingredient of another dish:
// "serving" weighs one serving and "batch" weighs the whole dish.
func (d AggregatedDish) Portions() []Portion {
	return []Portion{
		{Name: "serving", Unit: recipe.MeasurementUnitServing, Amount: 1, GramWeight: d.ServingSizeGrams},
		{Name: "batch", Unit: recipe.MeasurementUnitBatch, Amount: 1, GramWeight: d.TotalWeightGrams},
	}
}

// Resolution exposes the dish as resolved nutrient data
func (d AggregatedDish) Resolution() Resolution {
	return Resolution{
		Profile:     d.NutritionPer100g,
		Portions:    d.Portions(),
		Source:      "dish",
		Description: d.Title,
	}
}

// Rescale returns a copy of d for a different serving size. Per-serving
// amounts are re-derived from the raw per-100 g profile.
func Rescale(d AggregatedDish, servingSizeGrams float64) (AggregatedDish, error) {
	if !isFinite(servingSizeGrams) || servingSizeGrams <= 0 {
		return AggregatedDish{}, &AggregationError{Err: ErrInvalidServingSize}
	}

	out := d
	out.ServingSizeGrams = servingSizeGrams
	out.NutritionPerServing = d.NutritionPer100g.Scale(servingSizeGrams / 100)
	out.ServingsPerContainer = d.TotalWeightGrams / servingSizeGrams
	out.Contributions = append([]Contribution{}, d.Contributions...)
	out.Warnings = append([]DataQualityWarning{}, d.Warnings...)
	out.Skipped = append([]string{}, d.Skipped...)

	if err := checkFinite(out); err != nil {
		return AggregatedDish{}, err
	}
	return out, nil
}
