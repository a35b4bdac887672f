package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func noJitter(time.Duration) time.Duration { return 0 }

func TestPolicy_Backoff(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 1*time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 16*time.Second, p.Backoff(4))
	assert.Equal(t, 30*time.Second, p.Backoff(5))
	assert.Equal(t, 30*time.Second, p.Backoff(62))
}

func TestPolicy_BackoffIsNonDecreasing(t *testing.T) {
	p := DefaultPolicy()

	for n := 1; n <= 12; n++ {
		assert.GreaterOrEqualf(t, p.Backoff(n), p.Backoff(n-1), "attempt %d", n)
	}
}

func TestRetrier_DelayJitterStaysBelowMaxJitter(t *testing.T) {
	p := DefaultPolicy()
	r := New(p, discardLogger())

	for attempt := 0; attempt < 12; attempt++ {
		for i := 0; i < 50; i++ {
			d := r.Delay(attempt)
			assert.GreaterOrEqual(t, d, p.Backoff(attempt))
			assert.Less(t, d, p.Backoff(attempt)+p.MaxJitter)
		}
	}
}

func TestRetrier_DelayAddsInjectedJitter(t *testing.T) {
	p := DefaultPolicy()
	var bound time.Duration
	r := New(p, discardLogger(), WithJitter(func(limit time.Duration) time.Duration {
		bound = limit
		return 250 * time.Millisecond
	}))

	assert.Equal(t, 2250*time.Millisecond, r.Delay(1))
	assert.Equal(t, time.Second, bound)
}

func TestPolicy_RetryLimit(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 5, p.RetryLimit(Decision{Class: ClassRateLimited}))
	assert.Equal(t, 2, p.RetryLimit(Decision{Class: ClassOther}))
	assert.Equal(t, 0, p.RetryLimit(Decision{Class: ClassTerminal}))
}

func TestDo_SucceedsAfterRateLimit(t *testing.T) {
	sleeps := &recordedSleeps{}
	r := New(DefaultPolicy(), discardLogger(), WithSleep(sleeps.sleep), WithJitter(noJitter))

	calls := 0
	got, err := Do(context.Background(), r, "fetch", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("429 Too Many Requests")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
}

func TestDo_RateLimitedExhaustsAfterMaxRetries(t *testing.T) {
	sleeps := &recordedSleeps{}
	r := New(DefaultPolicy(), discardLogger(), WithSleep(sleeps.sleep), WithJitter(noJitter))

	calls := 0
	_, err := Do(context.Background(), r, "fetch", func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("rate limit exceeded")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries_exhausted stage=fetch retries=5")
	assert.Equal(t, 6, calls)
	assert.Len(t, sleeps.delays, 5)
	assert.Equal(t, 16*time.Second, sleeps.delays[4])
}

func TestDo_OtherErrorExhaustsAfterTwoRetries(t *testing.T) {
	sleeps := &recordedSleeps{}
	r := New(DefaultPolicy(), discardLogger(), WithSleep(sleeps.sleep), WithJitter(noJitter))

	cause := errors.New("connection reset by peer")
	calls := 0
	_, err := Do(context.Background(), r, "reference", func(context.Context) (string, error) {
		calls++
		return "", cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
}

func TestDo_RetryLimitsAreTrackedPerClass(t *testing.T) {
	sleeps := &recordedSleeps{}
	r := New(DefaultPolicy(), discardLogger(), WithSleep(sleeps.sleep), WithJitter(noJitter))

	calls := 0
	_, err := Do(context.Background(), r, "fetch", func(context.Context) (int, error) {
		calls++
		if calls <= 3 {
			return 0, errors.New("429 Too Many Requests")
		}
		return 0, errors.New("connection reset by peer")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries_exhausted stage=fetch retries=2 class=other")
	assert.Equal(t, 6, calls)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, sleeps.delays)
}

func TestDo_TerminalErrorIsNotRetried(t *testing.T) {
	sleeps := &recordedSleeps{}
	r := New(DefaultPolicy(), discardLogger(), WithSleep(sleeps.sleep))

	calls := 0
	_, err := Do(context.Background(), r, "fetch", func(context.Context) (int, error) {
		calls++
		return 0, Terminal(errors.New("invalid param"))
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal_failure stage=fetch")
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeps.delays)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(DefaultPolicy(), discardLogger(), WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := Do(ctx, r, "fetch", func(context.Context) (int, error) {
		return 0, errors.New("throttled")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetrier_SleepHonorsContext(t *testing.T) {
	r := New(DefaultPolicy(), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, r.Sleep(ctx, 0))
}
