package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"roster-verifier/core/registry"

	"github.com/stretchr/testify/assert"
)

func TestRetryFetch(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	unavailable := registry.NewError(registry.CategoryTransient, "search", "status 502", nil)

	tests := []struct {
		name     string
		errs     []error
		attempts int
	}{
		{"Success", []error{nil}, 1},
		{"Transient Then Success", []error{unavailable, nil}, 2},
		{"Exhausted", []error{unavailable, unavailable, unavailable, nil}, 3},
		{"Auth Is Permanent", []error{registry.NewError(registry.CategoryAuth, "login", "rejected", nil)}, 1},
		{"Plain Errors Are Permanent", []error{errors.New("boom")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var retries int
			var got int
			err := retryFetch(context.Background(), cfg, func(attempt int) error {
				got = attempt
				return tt.errs[attempt-1]
			}, func(error, time.Duration) { retries++ })

			assert.Equal(t, tt.attempts, got)
			assert.Equal(t, tt.attempts-1, retries)
			last := tt.errs[tt.attempts-1]
			if last == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, last)
			}
		})
	}
}

func TestRetryFetch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	calls := 0
	err := retryFetch(ctx, cfg, func(int) error {
		calls++
		cancel()
		return registry.NewError(registry.CategoryTransient, "search", "timeout", nil)
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
