package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDo_Success(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return nil
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return perrors.New(perrors.KindUnauthorized, 401)
	}, nil)
	assert.ErrorIs(t, err, perrors.ErrUnauthorized)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryableError_EventualSuccess(t *testing.T) {
	calls := 0
	var retried []int
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return perrors.New(perrors.KindNetworkUnavailable, 0)
		}
		return nil
	}, func(attempt int, err error) { retried = append(retried, attempt) })
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_AttemptsExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(2), func(ctx context.Context) error {
		calls++
		return perrors.New(perrors.KindServerError, 502)
	}, nil)
	assert.ErrorIs(t, err, perrors.ErrServerError)
	assert.Equal(t, 2, calls)
}

func TestDo_DisabledPolicyCallsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{}, func(ctx context.Context) error {
		calls++
		return perrors.New(perrors.KindServerError, 500)
	}, nil)
	assert.Equal(t, 1, calls)
	assert.False(t, Policy{Attempts: 1}.Enabled())
	assert.True(t, DefaultPolicy().Enabled())
}

func TestDo_ContextCancelledReturnsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, BaseDelay: time.Hour}
	calls := 0
	err := Do(ctx, p, func(ctx context.Context) error {
		calls++
		cancel()
		return perrors.New(perrors.KindNetworkUnavailable, 0)
	}, nil)
	assert.Equal(t, perrors.KindNetworkUnavailable, perrors.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestBackoff_Capped(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 3*time.Second, p.Backoff(5))
}
