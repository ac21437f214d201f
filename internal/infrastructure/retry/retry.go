// Package retry applies a retry policy to calls that can fail transiently.
//
// A Policy says how many times to retry, how long to wait before each retry
// and which errors are worth retrying. Do runs an operation under a policy
// using exponential backoff with jitter, and stops early when the context is
// done or the error is not retryable.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/infrastructure/config"
	"github.com/cenkalti/backoff/v4"
)

// Policy describes how an operation is retried
type Policy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64

	// Jitter randomizes each wait by +/- Jitter x the nominal delay
	Jitter float64

	// Retryable reports whether an error is transient. A nil Retryable
	// retries every error.
	Retryable func(error) bool
}

// NewPolicy builds a policy from configuration
func NewPolicy(cfg config.RetryConfig, retryable func(error) bool) Policy {
	return Policy{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      cfg.Multiplier,
		Jitter:          cfg.Jitter,
		Retryable:       retryable,
	}
}

// Backoff returns the nominal wait before retry attempt (1-based), before
// jitter is applied
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := float64(p.InitialInterval) * math.Pow(p.multiplier(), float64(attempt-1))
	if p.MaxInterval > 0 && d > float64(p.MaxInterval) {
		return p.MaxInterval
	}
	return time.Duration(d)
}

// IsRetryable reports whether err should be retried
func (p Policy) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) multiplier() float64 {
	if p.Multiplier < 1 {
		return 1
	}
	return p.Multiplier
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.Multiplier = p.multiplier()
	exp.RandomizationFactor = p.Jitter
	exp.MaxElapsedTime = 0
	exp.Reset()

	var b backoff.BackOff = exp
	if p.MaxRetries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxRetries))
	}
	return backoff.WithContext(b, ctx)
}

// Notify is called before each retry with the error that caused it and the
// wait that follows
type Notify func(attempt int, err error, wait time.Duration)

// Do runs op until it succeeds, fails with an error the policy does not
// retry, runs out of retries or ctx is done. The last error of op is
// returned; a done context returns the context error.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, notify Notify) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempt := 0
	wrapped := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !p.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			attempt++
			notify(attempt, err, wait)
		}
	}

	return backoff.RetryNotify(wrapped, p.backOff(ctx), onRetry)
}

// DoValue is Do for operations that return a value
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), notify Notify) (T, error) {
	var out T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, notify)
	return out, err
}
