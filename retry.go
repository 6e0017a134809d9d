package pandugo

import (
	"context"
	"sync"
	"time"

	"github.com/pandugo/pandugo/internal/backoff"
)

// Retry defaults per the upstream client contract.
const (
	defaultMaxAttempts       = 3
	defaultBaseDelay         = 1000 * time.Millisecond
	defaultMaxDelay          = 10000 * time.Millisecond
	defaultBackoffMultiplier = 2.0
	defaultJitter            = 0.1
)

// Retryer re-attempts transient failures with exponential backoff and jitter.
type Retryer struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	multiplier  float64
	jitter      float64
	strategy    backoff.Strategy
	budget      *RetryBudget

	// onRetry is invoked before each backoff sleep with the attempt that
	// just failed and the computed delay.
	onRetry func(attempt int, delay time.Duration)
}

// NewRetryer creates a retryer with the default exponential-jitter strategy.
func NewRetryer(maxAttempts int, baseDelay, maxDelay time.Duration, multiplier, jitter float64) *Retryer {
	return &Retryer{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		multiplier:  multiplier,
		jitter:      jitter,
		strategy:    backoff.ExponentialJitter{},
	}
}

// Do runs op up to maxAttempts times. Between attempts it sleeps for the
// backoff delay unless retryable reports the last error as permanent, in
// which case that error is returned immediately. The sleep honors ctx.
func (r *Retryer) Do(ctx context.Context, op func(ctx context.Context) error, retryable func(error) bool) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == r.maxAttempts || !retryable(lastErr) {
			return lastErr
		}
		if r.budget != nil && !r.budget.Allow() {
			return &ClientError{
				Type:      ErrorTypeRetryBudget,
				Message:   "retry budget exhausted",
				Cause:     lastErr,
				Timestamp: time.Now(),
			}
		}

		delay := r.strategy.Calculate(attempt, r.baseDelay, r.maxDelay, r.multiplier, r.jitter)
		if r.onRetry != nil {
			r.onRetry(attempt, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// RetryBudget caps the total number of retries allowed within a sliding
// window, across all operations sharing the budget.
type RetryBudget struct {
	mu          sync.Mutex
	maxRetries  int
	window      time.Duration
	current     int
	windowStart time.Time
}

// NewRetryBudget creates a retry budget of maxRetries per window.
func NewRetryBudget(maxRetries int, window time.Duration) *RetryBudget {
	return &RetryBudget{
		maxRetries:  maxRetries,
		window:      window,
		windowStart: time.Now(),
	}
}

// Allow reports whether another retry fits in the current window.
func (rb *RetryBudget) Allow() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	now := time.Now()
	if now.Sub(rb.windowStart) >= rb.window {
		rb.windowStart = now
		rb.current = 0
	}
	if rb.current >= rb.maxRetries {
		return false
	}
	rb.current++
	return true
}
