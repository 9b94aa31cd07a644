package reconcile

import (
	"context"
	"time"

	"roster-verifier/core/registry"

	"github.com/cenkalti/backoff/v4"
)

// retryPolicy builds the backoff used for registry fetches: exponential with jitter,
// bounded by MaxAttempts in total, and stopped by ctx.
func retryPolicy(ctx context.Context, cfg Config) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	if b.InitialInterval <= 0 {
		b.InitialInterval = 500 * time.Millisecond
	}
	b.MaxInterval = cfg.MaxBackoff
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.MaxElapsedTime = 0

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// retryFetch runs fn until it succeeds, fails permanently or the policy is exhausted.
// Only retryable registry errors are retried. The last error is returned as is.
func retryFetch(ctx context.Context, cfg Config, fn func(attempt int) error, onRetry func(err error, wait time.Duration)) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if !registry.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, retryPolicy(ctx, cfg), onRetry)
}
