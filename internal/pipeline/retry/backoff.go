package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/moses7054/indexer-v2/internal/metrics"
)

const (
	DefaultMaxRetries      = 5
	DefaultOtherMaxRetries = 2
	DefaultBaseDelay       = 1000 * time.Millisecond
	DefaultMaxDelay        = 30000 * time.Millisecond
	DefaultMaxJitter       = 1000 * time.Millisecond
)

// Policy bounds how often and how slowly a failed call is retried.
type Policy struct {
	MaxRetries      int // retries allowed for rate-limited failures
	OtherMaxRetries int // retries allowed for any other retryable failure
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	MaxJitter       time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      DefaultMaxRetries,
		OtherMaxRetries: DefaultOtherMaxRetries,
		BaseDelay:       DefaultBaseDelay,
		MaxDelay:        DefaultMaxDelay,
		MaxJitter:       DefaultMaxJitter,
	}
}

// Backoff returns the non-jittered delay for a 0-indexed attempt:
// min(BaseDelay * 2^attempt, MaxDelay).
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	max := p.MaxDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 || max < base {
		max = base
	}

	delay := base
	for i := 0; i < attempt; i++ {
		if delay >= max/2 {
			return max
		}
		delay *= 2
	}
	if delay > max {
		return max
	}
	return delay
}

// RetryLimit returns how many retries a failure of the given class may consume.
func (p Policy) RetryLimit(d Decision) int {
	switch d.Class {
	case ClassRateLimited:
		return max(p.MaxRetries, 0)
	case ClassOther:
		return max(p.OtherMaxRetries, 0)
	default:
		return 0
	}
}

// State is the per-call retry bookkeeping. Attempt counts every retry
// already scheduled and drives the backoff exponent. Retries counts them per
// failure class; each class is held to its own limit.
type State struct {
	Attempt   int
	Retries   map[Class]int
	NextDelay time.Duration
}

type SleepFunc func(ctx context.Context, d time.Duration) error

// JitterFunc returns a uniformly random duration in [0, max).
type JitterFunc func(max time.Duration) time.Duration

// Retrier runs calls under a Policy. It is stateless between calls.
type Retrier struct {
	policy   Policy
	logger   *slog.Logger
	sleepFn  SleepFunc
	jitterFn JitterFunc
}

type Option func(*Retrier)

func WithSleep(fn SleepFunc) Option {
	return func(r *Retrier) {
		r.sleepFn = fn
	}
}

func WithJitter(fn JitterFunc) Option {
	return func(r *Retrier) {
		r.jitterFn = fn
	}
}

func New(policy Policy, logger *slog.Logger, opts ...Option) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Retrier{
		policy:   policy,
		logger:   logger.With("component", "retry"),
		jitterFn: uniformJitter,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Retrier) Policy() Policy {
	return r.policy
}

// Delay returns the full backoff for a 0-indexed attempt, jitter included.
func (r *Retrier) Delay(attempt int) time.Duration {
	delay := r.policy.Backoff(attempt)
	if r.policy.MaxJitter > 0 {
		delay += r.jitterFn(r.policy.MaxJitter)
	}
	return delay
}

// Sleep blocks for d or until ctx is done.
func (r *Retrier) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if r.sleepFn != nil {
		return r.sleepFn(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do calls fn until it succeeds, the failure is terminal, or the retry
// ceiling for the failure's class is reached.
func Do[T any](ctx context.Context, r *Retrier, stage string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	state := State{Retries: make(map[Class]int, 2)}

	for {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		decision := Classify(err)
		if !decision.IsRetryable() {
			return zero, fmt.Errorf("terminal_failure stage=%s attempt=%d reason=%s: %w", stage, state.Attempt, decision.Reason, err)
		}

		limit := r.policy.RetryLimit(decision)
		used := state.Retries[decision.Class]
		if used >= limit {
			metrics.RetryExhaustedTotal.WithLabelValues(stage, string(decision.Class)).Inc()
			return zero, fmt.Errorf("retries_exhausted stage=%s retries=%d class=%s reason=%s: %w", stage, used, decision.Class, decision.Reason, err)
		}

		state.NextDelay = r.Delay(state.Attempt)
		r.logger.Warn("call failed; backing off",
			"stage", stage,
			"classification", decision.Class,
			"classification_reason", decision.Reason,
			"attempt", used+1,
			"max_retries", limit,
			"delay", state.NextDelay,
			"error", err,
		)
		metrics.RetryAttemptsTotal.WithLabelValues(stage, string(decision.Class)).Inc()
		metrics.RetryBackoffSeconds.WithLabelValues(stage).Observe(state.NextDelay.Seconds())

		if sleepErr := r.Sleep(ctx, state.NextDelay); sleepErr != nil {
			return zero, sleepErr
		}
		state.Attempt++
		state.Retries[decision.Class]++
	}
}

func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
