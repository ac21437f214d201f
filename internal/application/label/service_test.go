package label_test

import (
	"context"
	"sync"
	"testing"
	"time"

	labelapp "github.com/alchemorsel/nutrilabel/internal/application/label"
	"github.com/alchemorsel/nutrilabel/internal/domain/label"
	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/ports/inbound"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutrilabel/pkg/errors"
	"github.com/alchemorsel/nutrilabel/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

type fakeMetrics struct {
	mu       sync.Mutex
	stages   map[string]int
	outcomes []string
	warnings map[string]int
	skipped  int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{stages: map[string]int{}, warnings: map[string]int{}}
}

func (m *fakeMetrics) Stage(stage string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[stage]++
}

func (m *fakeMetrics) LabelGenerated(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) DataQualityWarning(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings[kind]++
}

func (m *fakeMetrics) SkippedIngredients(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped += n
}

func resolution(values map[nutrition.Nutrient]float64) nutrition.Resolution {
	return nutrition.Resolution{Profile: nutrition.NewProfile(values), Source: "test"}
}

var (
	oats = resolution(map[nutrition.Nutrient]float64{
		nutrition.NutrientCalories:          379,
		nutrition.NutrientTotalFat:          6.5,
		nutrition.NutrientSaturatedFat:      1.1,
		nutrition.NutrientTotalCarbohydrate: 67.7,
		nutrition.NutrientDietaryFiber:      10.1,
		nutrition.NutrientProtein:           13.2,
		nutrition.NutrientSodium:            6,
	})
	milk = resolution(map[nutrition.Nutrient]float64{
		nutrition.NutrientCalories:          61,
		nutrition.NutrientTotalFat:          3.3,
		nutrition.NutrientSaturatedFat:      1.9,
		nutrition.NutrientTotalCarbohydrate: 4.8,
		nutrition.NutrientTotalSugars:       5.1,
		nutrition.NutrientProtein:           3.2,
		nutrition.NutrientSodium:            43,
	})
)

type LabelServiceTestSuite struct {
	suite.Suite
	service  *labelapp.Service
	labels   *testutils.MockLabelRepository
	lookup   *testutils.MockNutrientLookup
	metrics  *fakeMetrics
	recorder *tracetest.SpanRecorder
	ctx      context.Context
}

func (suite *LabelServiceTestSuite) SetupTest() {
	suite.labels = testutils.NewMockLabelRepository()
	suite.lookup = testutils.NewMockNutrientLookup()
	suite.metrics = newFakeMetrics()
	suite.recorder = tracetest.NewSpanRecorder()
	suite.ctx = context.Background()

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(suite.recorder))

	suite.service = labelapp.NewService(
		suite.labels,
		suite.lookup,
		suite.metrics,
		tp.Tracer("test"),
		labelapp.Config{Concurrency: 4, DefaultServingSizeGrams: 240},
		zaptest.NewLogger(suite.T()),
	)
}

func (suite *LabelServiceTestSuite) spanNames() []string {
	var names []string
	for _, s := range suite.recorder.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func (suite *LabelServiceTestSuite) TestGenerate() {
	suite.Run("ValidRecipe_ShouldStoreLabel", func() {
		// Arrange
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Resolves("rolled oats", oats)
		suite.lookup.Resolves("milk", milk)

		// Act
		dto, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text:             "Oat Porridge\n80 g rolled oats\n250 ml milk",
			ServingSizeGrams: 165,
		})

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "Oat Porridge", dto.Title)
		assert.InDelta(suite.T(), 330, dto.Dish.TotalWeightGrams, 1e-9)
		assert.InDelta(suite.T(), 2, dto.Dish.ServingsPerContainer, 1e-9)
		assert.Equal(suite.T(), "165 g", dto.Facts.ServingSize)
		testutils.NewProfileAssertions(suite.T()).SatisfiesInvariants(dto.Dish.NutritionPer100g)

		stored, ok := suite.labels.Stored(dto.ID)
		require.True(suite.T(), ok)
		assert.Equal(suite.T(), "Oat Porridge", stored.Title())

		assert.Equal(suite.T(), []string{"ok"}, suite.metrics.outcomes)
		assert.Equal(suite.T(), 1, suite.metrics.stages["parse"])
		assert.Equal(suite.T(), 1, suite.metrics.stages["resolve"])
		assert.Equal(suite.T(), 1, suite.metrics.stages["finalize"])
		assert.Subset(suite.T(), suite.spanNames(), []string{
			"LabelService.Generate", "LabelService.Parse", "LabelService.Resolve", "LabelService.Finalize",
		})
	})

	suite.Run("ZeroServingSize_ShouldUseDefault", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Resolves("rolled oats", oats)

		dto, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text: "Oats\n480 g rolled oats",
		})

		require.NoError(suite.T(), err)
		assert.InDelta(suite.T(), 240, dto.Dish.ServingSizeGrams, 1e-9)
		assert.InDelta(suite.T(), 2, dto.Dish.ServingsPerContainer, 1e-9)
	})

	suite.Run("YieldFactor_ShouldConcentrateNutrients", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Resolves("rolled oats", oats)

		dto, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text:             "Baked Oats\n100 g rolled oats",
			ServingSizeGrams: 50,
			YieldFactor:      0.5,
		})

		require.NoError(suite.T(), err)
		assert.InDelta(suite.T(), 50, dto.Dish.TotalWeightGrams, 1e-9)
		assert.InDelta(suite.T(), 758, dto.Dish.NutritionPer100g.Value(nutrition.NutrientCalories), 1e-9)
	})

	suite.Run("UnknownIngredients_ShouldBeReportedTogether", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Resolves("rolled oats", oats)
		suite.lookup.Fails("unicorn dust", outbound.ErrIngredientNotFound)
		suite.lookup.Fails("dragon scale", outbound.ErrIngredientNotFound)

		_, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text:             "Magic Oats\n80 g rolled oats\n1 tsp unicorn dust\n2 g dragon scale",
			ServingSizeGrams: 80,
		})

		require.Error(suite.T(), err)
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeIngredientNotFound))
		var appErr *apperrors.AppError
		require.ErrorAs(suite.T(), err, &appErr)
		assert.Equal(suite.T(), []string{"dragon scale", "unicorn dust"}, appErr.Metadata["ingredients"])
		assert.Equal(suite.T(), []string{"ingredient_not_found"}, suite.metrics.outcomes)
		suite.labels.AssertNotCalled(suite.T(), "Save", mock.Anything, mock.Anything)
	})

	suite.Run("SkippedIngredients_ShouldBeLeftOut", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Resolves("rolled oats", oats)

		dto, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text:             "Magic Oats\n80 g rolled oats\n1 tsp Unicorn Dust",
			ServingSizeGrams: 80,
			Skip:             []string{"unicorn  dust"},
		})

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), []string{"Unicorn Dust"}, dto.Dish.Skipped)
		assert.InDelta(suite.T(), 80, dto.Dish.TotalWeightGrams, 1e-9)
		assert.Equal(suite.T(), 1, suite.metrics.skipped)
		suite.lookup.AssertNotCalled(suite.T(), "Lookup", mock.Anything, "Unicorn Dust")
	})

	suite.Run("ParseErrors_ShouldFailBeforeLookup", func() {
		suite.SetupTest()

		_, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text:             "Cake\n1 cup flour (2 g a (3 g b))",
			ServingSizeGrams: 50,
		})

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeParseFailed))
		assert.Equal(suite.T(), []string{"parse_failed"}, suite.metrics.outcomes)
		suite.lookup.AssertNotCalled(suite.T(), "Lookup", mock.Anything, mock.Anything)

		spans := suite.recorder.Ended()
		require.NotEmpty(suite.T(), spans)
		assert.Equal(suite.T(), codes.Error, spans[len(spans)-1].Status().Code)
	})

	suite.Run("InvalidCommand_ShouldFailValidation", func() {
		suite.SetupTest()

		_, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text:             "",
			ServingSizeGrams: -1,
		})

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))
		assert.Equal(suite.T(), []string{"invalid"}, suite.metrics.outcomes)
	})

	suite.Run("RateLimitedLookup_ShouldSurface", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Fails("rolled oats", outbound.ErrLookupRateLimited)

		_, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text:             "Oats\n80 g rolled oats",
			ServingSizeGrams: 80,
		})

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeTooManyRequests))
		assert.ErrorIs(suite.T(), err, outbound.ErrLookupRateLimited)
		assert.Equal(suite.T(), []string{"lookup_failed"}, suite.metrics.outcomes)
	})

	suite.Run("CountWithoutPortion_ShouldFailConversion", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Resolves("eggs", resolution(map[nutrition.Nutrient]float64{nutrition.NutrientCalories: 143}))

		_, err := suite.service.Generate(suite.ctx, inbound.GenerateLabelCommand{
			Text:             "Omelette\n3 eggs",
			ServingSizeGrams: 100,
		})

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeConversionFailed))
		var appErr *apperrors.AppError
		require.ErrorAs(suite.T(), err, &appErr)
		assert.Equal(suite.T(), "eggs", appErr.Metadata["ingredient"])
	})
}

func (suite *LabelServiceTestSuite) TestResolve() {
	suite.Run("SavedLabel_ShouldBeUsedAsIngredient", func() {
		// Arrange
		suite.SetupTest()
		granola, err := nutrition.Aggregate(testutils.NewRecipeBuilder().
			WithTitle("Granola").
			WithGrams("rolled oats", 400, oats.Profile).
			Build(50))
		require.NoError(suite.T(), err)
		saved := testutils.NewSavedLabel("Granola", granola)

		suite.labels.On("FindByTitle", mock.Anything, "granola").Return(saved, nil)
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Resolves("milk", milk)

		draft, err := suite.service.Parse(suite.ctx, "Breakfast Bowl\n1 serving granola\n100 g milk")
		require.NoError(suite.T(), err)

		// Act
		resolved, err := suite.service.Resolve(suite.ctx, draft, nil)

		// Assert
		require.NoError(suite.T(), err)
		assert.Contains(suite.T(), resolved.Saved, "granola")
		assert.Contains(suite.T(), resolved.Resolved, "milk")
		suite.lookup.AssertNotCalled(suite.T(), "Lookup", mock.Anything, "granola")
		assert.Empty(suite.T(), draft.Resolved, "caller's draft is not modified")

		dto, err := suite.service.Finalize(suite.ctx, resolved, inbound.FinalizeCommand{ServingSizeGrams: 150})
		require.NoError(suite.T(), err)
		assert.InDelta(suite.T(), 150, dto.Dish.TotalWeightGrams, 1e-9)
		assert.Equal(suite.T(), nutrition.SourceSavedDish, dto.Dish.Contributions[0].Source)
	})

	suite.Run("AlreadyResolved_ShouldNotBeLookedUpAgain", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()

		draft, err := suite.service.Parse(suite.ctx, "Oats\n80 g rolled oats")
		require.NoError(suite.T(), err)
		draft.Resolved["rolled oats"] = oats

		resolved, err := suite.service.Resolve(suite.ctx, draft, nil)

		require.NoError(suite.T(), err)
		assert.Len(suite.T(), resolved.Resolved, 1)
		suite.lookup.AssertNotCalled(suite.T(), "Lookup", mock.Anything, mock.Anything)
	})

	suite.Run("SubRecipeIngredients_ShouldBeResolved", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()
		suite.lookup.Resolves("rolled oats", oats)
		suite.lookup.Resolves("milk", milk)

		draft, err := suite.service.Parse(suite.ctx, "Muesli Cup\n150 g overnight oats (50 g rolled oats, 100 ml milk)")
		require.NoError(suite.T(), err)

		resolved, err := suite.service.Resolve(suite.ctx, draft, nil)

		require.NoError(suite.T(), err)
		assert.Contains(suite.T(), resolved.Resolved, "rolled oats")
		assert.Contains(suite.T(), resolved.Resolved, "milk")
	})

	suite.Run("NilDraft_ShouldBeRejected", func() {
		suite.SetupTest()

		_, err := suite.service.Resolve(suite.ctx, nil, nil)

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeBadRequest))
	})
}

func (suite *LabelServiceTestSuite) TestQueries() {
	suite.Run("GetLabel_UnknownID_ShouldBeNotFound", func() {
		suite.SetupTest()
		id := uuid.New()
		suite.labels.On("FindByID", mock.Anything, id).Return((*label.Label)(nil), outbound.ErrLabelNotFound)

		_, err := suite.service.GetLabel(suite.ctx, id)

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeLabelNotFound))
	})

	suite.Run("Rescale_ShouldNotModifyStoredLabel", func() {
		suite.SetupTest()
		dish, err := nutrition.Aggregate(testutils.NewRecipeBuilder().
			WithTitle("Oats").
			WithGrams("rolled oats", 200, oats.Profile).
			Build(100))
		require.NoError(suite.T(), err)
		stored := testutils.NewSavedLabel("Oats", dish)
		suite.labels.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)

		dto, err := suite.service.Rescale(suite.ctx, inbound.RescaleCommand{LabelID: stored.ID, ServingSizeGrams: 40})

		require.NoError(suite.T(), err)
		assert.InDelta(suite.T(), 5, dto.Dish.ServingsPerContainer, 1e-9)
		assert.InDelta(suite.T(), 100, stored.Dish.ServingSizeGrams, 1e-9)
		suite.labels.AssertNotCalled(suite.T(), "Save", mock.Anything, mock.Anything)
	})

	suite.Run("Rescale_InvalidServing_ShouldFailValidation", func() {
		suite.SetupTest()

		_, err := suite.service.Rescale(suite.ctx, inbound.RescaleCommand{LabelID: uuid.New(), ServingSizeGrams: 0})

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))
		fields, ok := apperrors.Wrap(err, "").Metadata["validation_errors"].(apperrors.ValidationErrors)
		require.True(suite.T(), ok)
		require.Len(suite.T(), fields, 1)
		assert.Equal(suite.T(), "ServingSizeGrams", fields[0].Field)
		assert.Equal(suite.T(), "gt", fields[0].Tag)
	})

	suite.Run("ListLabels_ShouldApplyDefaultLimit", func() {
		suite.SetupTest()
		suite.labels.SetupStandardMockBehavior()

		list, err := suite.service.ListLabels(suite.ctx, inbound.PaginationParams{})

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), 20, list.Limit)
		assert.Empty(suite.T(), list.Labels)
		suite.labels.AssertCalled(suite.T(), "List", mock.Anything, 0, 20)
	})
}

func TestLabelServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LabelServiceTestSuite))
}
