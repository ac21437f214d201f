// Package lookup decorates outbound.NutrientLookup implementations with
// retries, caching and metrics.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/retry"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	"go.uber.org/zap"
)

// Metrics receives lookup measurements. *monitoring.MetricsCollector
// implements it.
type Metrics interface {
	Lookup(outcome string, duration time.Duration)
	LookupRetry()
	CacheOperation(operation, status string)
}

type nopMetrics struct{}

func (nopMetrics) Lookup(string, time.Duration)  {}
func (nopMetrics) LookupRetry()                  {}
func (nopMetrics) CacheOperation(string, string) {}

func orNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

// IsTransient reports whether a lookup error is worth retrying
func IsTransient(err error) bool {
	return errors.Is(err, outbound.ErrLookupRateLimited) || errors.Is(err, outbound.ErrLookupUnavailable)
}

// Outcome classifies a lookup result for metrics and logs
func Outcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, outbound.ErrIngredientNotFound):
		return "not_found"
	case errors.Is(err, outbound.ErrLookupRateLimited):
		return "rate_limited"
	case errors.Is(err, outbound.ErrLookupUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

// RetryingLookup retries transient failures of the wrapped lookup
type RetryingLookup struct {
	inner   outbound.NutrientLookup
	policy  retry.Policy
	logger  *zap.Logger
	metrics Metrics
}

// WithRetry wraps inner so transient failures are retried under policy. A
// policy without a Retryable predicate retries IsTransient errors.
func WithRetry(inner outbound.NutrientLookup, policy retry.Policy, logger *zap.Logger, metrics Metrics) *RetryingLookup {
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	return &RetryingLookup{
		inner:   inner,
		policy:  policy,
		logger:  logger.Named("lookup-retry"),
		metrics: orNop(metrics),
	}
}

// Lookup implements outbound.NutrientLookup
func (l *RetryingLookup) Lookup(ctx context.Context, ingredient string) (nutrition.Resolution, error) {
	return retry.DoValue(ctx, l.policy, func(ctx context.Context) (nutrition.Resolution, error) {
		return l.inner.Lookup(ctx, ingredient)
	}, func(attempt int, err error, wait time.Duration) {
		l.metrics.LookupRetry()
		l.logger.Warn("Retrying nutrient lookup",
			zap.String("ingredient", ingredient),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
}

// InstrumentedLookup records the outcome and duration of every lookup
type InstrumentedLookup struct {
	inner   outbound.NutrientLookup
	metrics Metrics
}

// WithMetrics wraps inner with lookup metrics
func WithMetrics(inner outbound.NutrientLookup, metrics Metrics) *InstrumentedLookup {
	return &InstrumentedLookup{inner: inner, metrics: orNop(metrics)}
}

// Lookup implements outbound.NutrientLookup
func (l *InstrumentedLookup) Lookup(ctx context.Context, ingredient string) (nutrition.Resolution, error) {
	start := time.Now()
	res, err := l.inner.Lookup(ctx, ingredient)
	l.metrics.Lookup(Outcome(err), time.Since(start))
	return res, err
}

// CachedLookup serves repeated lookups from a CacheRepository
type CachedLookup struct {
	inner   outbound.NutrientLookup
	cache   outbound.CacheRepository
	ttl     time.Duration
	logger  *zap.Logger
	metrics Metrics
}

// WithCache wraps inner with a cache of successful resolutions. Failures,
// including not found, are never cached. Cache errors are logged and the
// lookup falls through to inner.
func WithCache(inner outbound.NutrientLookup, cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger, metrics Metrics) *CachedLookup {
	return &CachedLookup{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.Named("lookup-cache"),
		metrics: orNop(metrics),
	}
}

// CacheKey is the cache key of an ingredient's resolution
func CacheKey(ingredient string) string {
	return "lookup:" + recipe.Key(ingredient)
}

// Lookup implements outbound.NutrientLookup
func (l *CachedLookup) Lookup(ctx context.Context, ingredient string) (nutrition.Resolution, error) {
	key := CacheKey(ingredient)

	if res, ok := l.get(ctx, key); ok {
		return res, nil
	}

	res, err := l.inner.Lookup(ctx, ingredient)
	if err != nil {
		return nutrition.Resolution{}, err
	}

	l.set(ctx, key, res)
	return res, nil
}

func (l *CachedLookup) get(ctx context.Context, key string) (nutrition.Resolution, bool) {
	data, err := l.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, outbound.ErrCacheMiss) {
			l.metrics.CacheOperation("get", "miss")
		} else {
			l.metrics.CacheOperation("get", "error")
			l.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nutrition.Resolution{}, false
	}

	var res nutrition.Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		l.metrics.CacheOperation("get", "error")
		l.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		if err := l.cache.Delete(ctx, key); err != nil {
			l.logger.Debug("Cache delete failed", zap.String("key", key), zap.Error(err))
		}
		return nutrition.Resolution{}, false
	}

	l.metrics.CacheOperation("get", "hit")
	return res, true
}

func (l *CachedLookup) set(ctx context.Context, key string, res nutrition.Resolution) {
	data, err := json.Marshal(res)
	if err != nil {
		l.logger.Warn("Failed to encode resolution", zap.String("key", key), zap.Error(err))
		return
	}
	if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
		l.metrics.CacheOperation("set", "error")
		l.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	l.metrics.CacheOperation("set", "ok")
}
