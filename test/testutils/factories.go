// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/brianvoe/gofakeit/v6"
)

// ProfileFactory generates nutrient profiles, including adversarial ones that
// break nutrient relationships on purpose
type ProfileFactory struct {
	faker *gofakeit.Faker
	seq   int
}

// NewProfileFactory creates a new profile factory with seeded faker
func NewProfileFactory(seed int64) *ProfileFactory {
	return &ProfileFactory{
		faker: gofakeit.New(seed),
	}
}

// Consistent returns a complete profile whose parts never exceed their totals
func (pf *ProfileFactory) Consistent() nutrition.Profile {
	fat := pf.faker.Float64Range(0, 60)
	carbs := pf.faker.Float64Range(0, 80)
	sugars := pf.faker.Float64Range(0, carbs)

	return nutrition.NewProfile(map[nutrition.Nutrient]float64{
		nutrition.NutrientCalories:          pf.faker.Float64Range(0, 700),
		nutrition.NutrientTotalFat:          fat,
		nutrition.NutrientSaturatedFat:      pf.faker.Float64Range(0, fat/2),
		nutrition.NutrientTransFat:          pf.faker.Float64Range(0, fat/10),
		nutrition.NutrientCholesterol:       pf.faker.Float64Range(0, 300),
		nutrition.NutrientSodium:            pf.faker.Float64Range(0, 2000),
		nutrition.NutrientTotalCarbohydrate: carbs,
		nutrition.NutrientDietaryFiber:      pf.faker.Float64Range(0, carbs-sugars),
		nutrition.NutrientTotalSugars:       sugars,
		nutrition.NutrientAddedSugars:       pf.faker.Float64Range(0, sugars),
		nutrition.NutrientProtein:           pf.faker.Float64Range(0, 40),
		nutrition.NutrientVitaminD:          pf.faker.Float64Range(0, 10),
		nutrition.NutrientCalcium:           pf.faker.Float64Range(0, 500),
		nutrition.NutrientIron:              pf.faker.Float64Range(0, 10),
		nutrition.NutrientPotassium:         pf.faker.Float64Range(0, 1000),
	})
}

// Adversarial returns a profile with inverted relationships: sugars above
// carbohydrate, added sugars above sugars, fat parts above total fat. Some
// amounts may be negative and some nutrients may be missing.
func (pf *ProfileFactory) Adversarial() nutrition.Profile {
	carbs := pf.faker.Float64Range(0, 20)
	fat := pf.faker.Float64Range(0, 10)

	values := map[nutrition.Nutrient]float64{
		nutrition.NutrientCalories:          pf.faker.Float64Range(-50, 900),
		nutrition.NutrientTotalCarbohydrate: carbs,
		nutrition.NutrientTotalSugars:       carbs + pf.faker.Float64Range(0.1, 50),
		nutrition.NutrientDietaryFiber:      carbs + pf.faker.Float64Range(0, 30),
		nutrition.NutrientTotalFat:          fat,
		nutrition.NutrientSaturatedFat:      fat + pf.faker.Float64Range(0.1, 20),
		nutrition.NutrientTransFat:          fat + pf.faker.Float64Range(0, 5),
		nutrition.NutrientSodium:            pf.faker.Float64Range(-10, 3000),
		nutrition.NutrientProtein:           pf.faker.Float64Range(0, 50),
	}
	values[nutrition.NutrientAddedSugars] = values[nutrition.NutrientTotalSugars] + pf.faker.Float64Range(0, 25)

	for n := range values {
		if pf.faker.IntRange(0, 9) == 0 {
			delete(values, n)
		}
	}
	return nutrition.NewProfile(values)
}

// Any returns a consistent or an adversarial profile at random
func (pf *ProfileFactory) Any() nutrition.Profile {
	if pf.faker.Bool() {
		return pf.Adversarial()
	}
	return pf.Consistent()
}

// IngredientName returns a unique lower-case ingredient name
func (pf *ProfileFactory) IngredientName() string {
	pf.seq++
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || r == ' ' {
			return unicode.ToLower(r)
		}
		return -1
	}, pf.faker.Vegetable())
	return fmt.Sprintf("%s %d", strings.Join(strings.Fields(name), " "), pf.seq)
}

// Grams returns a positive ingredient weight
func (pf *ProfileFactory) Grams() float64 {
	return float64(pf.faker.IntRange(1, 500))
}

// RecipeBuilder builds recipe text line by line, keeping the nutrient data
// needed to aggregate it
type RecipeBuilder struct {
	title    string
	lines    []string
	resolved map[string]nutrition.Resolution
}

// NewRecipeBuilder creates a new recipe builder with a generated title
func NewRecipeBuilder() *RecipeBuilder {
	faker := gofakeit.New(time.Now().UnixNano())

	return &RecipeBuilder{
		title:    faker.Fruit() + " Bowl",
		resolved: make(map[string]nutrition.Resolution),
	}
}

// WithTitle sets the recipe title
func (rb *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	rb.title = title
	return rb
}

// WithGrams adds an ingredient line measured in grams
func (rb *RecipeBuilder) WithGrams(name string, grams float64, profile nutrition.Profile) *RecipeBuilder {
	rb.lines = append(rb.lines, strconv.FormatFloat(grams, 'f', -1, 64)+" g "+name)
	rb.resolved[recipe.Key(name)] = nutrition.Resolution{Profile: profile}
	return rb
}

// WithLine adds a raw line without nutrient data
func (rb *RecipeBuilder) WithLine(line string) *RecipeBuilder {
	rb.lines = append(rb.lines, line)
	return rb
}

// WithResolution registers nutrient data for an ingredient
func (rb *RecipeBuilder) WithResolution(name string, res nutrition.Resolution) *RecipeBuilder {
	rb.resolved[recipe.Key(name)] = res
	return rb
}

// Text returns the recipe text
func (rb *RecipeBuilder) Text() string {
	return rb.title + "\n" + strings.Join(rb.lines, "\n")
}

// Build parses the recipe and returns an aggregation input for it
func (rb *RecipeBuilder) Build(servingSizeGrams float64) nutrition.Input {
	resolved := make(map[string]nutrition.Resolution, len(rb.resolved))
	for k, v := range rb.resolved {
		resolved[k] = v
	}
	return nutrition.Input{
		Recipe:           recipe.Parse(rb.Text()),
		Resolved:         resolved,
		ServingSizeGrams: servingSizeGrams,
	}
}
