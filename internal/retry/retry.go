// Package retry re-issues safe remote calls with exponential backoff.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
)

// Policy holds retry configuration. Attempts counts the first call, so a
// value of 1 or less disables retrying.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    bool
}

// DefaultPolicy returns the client defaults.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Jitter:    true,
	}
}

// Enabled reports whether the policy ever retries.
func (p Policy) Enabled() bool {
	return p.Attempts > 1
}

// Backoff is the wait before retry number attempt (zero based).
func (p Policy) Backoff(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	}
	return delay
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are used up. onRetry, when non-nil, sees each retryable failure
// before the wait.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	attempts := max(p.Attempts, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil || !perrors.IsRetryable(lastErr) || attempt == attempts-1 {
			return lastErr
		}
		if onRetry != nil {
			onRetry(attempt+1, lastErr)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(p.Backoff(attempt)):
		}
	}
	return lastErr
}
