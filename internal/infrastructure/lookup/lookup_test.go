package lookup_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/lookup"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/retry"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	"github.com/alchemorsel/nutrilabel/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	retries  int
	cache    map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{cache: make(map[string]int)}
}

func (m *recordingMetrics) Lookup(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) LookupRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func (m *recordingMetrics) CacheOperation(operation, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[operation+":"+status]++
}

func oats() nutrition.Resolution {
	return nutrition.Resolution{
		Profile: nutrition.NewProfile(map[nutrition.Nutrient]float64{
			nutrition.NutrientCalories: 379,
			nutrition.NutrientTransFat: 0,
		}),
		Portions:    []nutrition.Portion{nutrition.NewPortion("cup", 1, 81)},
		Source:      "fdc:173904",
		Description: "Oats",
	}
}

func fastPolicy(retries int) retry.Policy {
	return retry.Policy{
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      2,
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("TransientThenSuccess", func(t *testing.T) {
		inner := testutils.NewMockNutrientLookup()
		inner.Fails("oats", outbound.ErrLookupUnavailable).Once()
		inner.Fails("oats", outbound.ErrLookupRateLimited).Once()
		inner.Resolves("oats", oats()).Once()
		metrics := newRecordingMetrics()

		l := lookup.WithRetry(inner, fastPolicy(3), zaptest.NewLogger(t), metrics)
		res, err := l.Lookup(ctx, "oats")

		require.NoError(t, err)
		assert.Equal(t, "Oats", res.Description)
		assert.Equal(t, 2, metrics.retries)
		inner.AssertNumberOfCalls(t, "Lookup", 3)
	})

	t.Run("NotFoundIsTerminal", func(t *testing.T) {
		inner := testutils.NewMockNutrientLookup()
		inner.Fails("unicorn", outbound.ErrIngredientNotFound)

		l := lookup.WithRetry(inner, fastPolicy(3), zaptest.NewLogger(t), nil)
		_, err := l.Lookup(ctx, "unicorn")

		assert.ErrorIs(t, err, outbound.ErrIngredientNotFound)
		inner.AssertNumberOfCalls(t, "Lookup", 1)
	})

	t.Run("GivesUpAfterCeiling", func(t *testing.T) {
		inner := testutils.NewMockNutrientLookup()
		inner.Fails("oats", outbound.ErrLookupUnavailable)

		l := lookup.WithRetry(inner, fastPolicy(2), zaptest.NewLogger(t), nil)
		_, err := l.Lookup(ctx, "oats")

		assert.ErrorIs(t, err, outbound.ErrLookupUnavailable)
		inner.AssertNumberOfCalls(t, "Lookup", 3)
	})

	t.Run("NoRetryAfterCancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		inner := testutils.NewMockNutrientLookup()
		inner.Fails("oats", outbound.ErrLookupUnavailable).Run(func(mock.Arguments) { cancel() })

		l := lookup.WithRetry(inner, fastPolicy(5), zaptest.NewLogger(t), nil)
		_, err := l.Lookup(cctx, "oats")

		assert.ErrorIs(t, err, context.Canceled)
		inner.AssertNumberOfCalls(t, "Lookup", 1)
	})
}

func TestWithCache(t *testing.T) {
	ctx := context.Background()

	t.Run("SecondLookupIsServedFromCache", func(t *testing.T) {
		inner := testutils.NewMockNutrientLookup()
		inner.Resolves("Rolled  Oats", oats()).Once()
		cache := memory.NewCacheRepository(0)
		metrics := newRecordingMetrics()

		l := lookup.WithCache(inner, cache, time.Hour, zaptest.NewLogger(t), metrics)
		first, err := l.Lookup(ctx, "Rolled  Oats")
		require.NoError(t, err)
		second, err := l.Lookup(ctx, "rolled oats")
		require.NoError(t, err)

		inner.AssertNumberOfCalls(t, "Lookup", 1)
		assert.True(t, first.Profile.Equal(second.Profile, 1e-12))
		assert.True(t, second.Profile.Has(nutrition.NutrientTransFat), "explicit zero survives the cache")
		assert.Equal(t, first.Portions, second.Portions)
		assert.Equal(t, 1, metrics.cache["get:hit"])
		assert.Equal(t, 1, metrics.cache["get:miss"])
		assert.Equal(t, 1, metrics.cache["set:ok"])

		exists, err := cache.Exists(ctx, lookup.CacheKey("ROLLED OATS"))
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("NotFoundIsNeverCached", func(t *testing.T) {
		inner := testutils.NewMockNutrientLookup()
		inner.Fails("unicorn", outbound.ErrIngredientNotFound)
		cache := memory.NewCacheRepository(0)

		l := lookup.WithCache(inner, cache, time.Hour, zaptest.NewLogger(t), nil)
		_, err1 := l.Lookup(ctx, "unicorn")
		_, err2 := l.Lookup(ctx, "unicorn")

		assert.ErrorIs(t, err1, outbound.ErrIngredientNotFound)
		assert.ErrorIs(t, err2, outbound.ErrIngredientNotFound)
		inner.AssertNumberOfCalls(t, "Lookup", 2)
		assert.Zero(t, cache.Len())
	})

	t.Run("CacheFailureFallsThrough", func(t *testing.T) {
		inner := testutils.NewMockNutrientLookup()
		inner.Resolves("oats", oats())
		cache := testutils.NewMockCacheRepository()
		cache.On("Get", mock.Anything, "lookup:oats").Return(nil, errors.New("connection refused"))
		cache.On("Set", mock.Anything, "lookup:oats", mock.Anything, time.Hour).Return(errors.New("connection refused"))

		l := lookup.WithCache(inner, cache, time.Hour, zaptest.NewLogger(t), nil)
		res, err := l.Lookup(ctx, "oats")

		require.NoError(t, err)
		assert.Equal(t, "Oats", res.Description)
	})

	t.Run("CorruptEntryIsReplaced", func(t *testing.T) {
		inner := testutils.NewMockNutrientLookup()
		inner.Resolves("oats", oats()).Once()
		cache := memory.NewCacheRepository(0)
		require.NoError(t, cache.Set(ctx, "lookup:oats", []byte("{not json"), time.Hour))

		l := lookup.WithCache(inner, cache, time.Hour, zaptest.NewLogger(t), nil)
		res, err := l.Lookup(ctx, "oats")

		require.NoError(t, err)
		assert.Equal(t, "Oats", res.Description)
		data, err := cache.Get(ctx, "lookup:oats")
		require.NoError(t, err)
		assert.Contains(t, string(data), "fdc:173904")
	})
}

func TestWithMetrics(t *testing.T) {
	inner := testutils.NewMockNutrientLookup()
	inner.Resolves("oats", oats())
	inner.Fails("unicorn", outbound.ErrIngredientNotFound)
	metrics := newRecordingMetrics()

	l := lookup.WithMetrics(inner, metrics)
	_, _ = l.Lookup(context.Background(), "oats")
	_, _ = l.Lookup(context.Background(), "unicorn")

	assert.Equal(t, []string{"found", "not_found"}, metrics.outcomes)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "rate_limited", lookup.Outcome(outbound.ErrLookupRateLimited))
	assert.Equal(t, "unavailable", lookup.Outcome(outbound.ErrLookupUnavailable))
	assert.Equal(t, "cancelled", lookup.Outcome(context.DeadlineExceeded))
	assert.Equal(t, "error", lookup.Outcome(errors.New("boom")))

	assert.True(t, lookup.IsTransient(outbound.ErrLookupRateLimited))
	assert.False(t, lookup.IsTransient(outbound.ErrIngredientNotFound))
}
