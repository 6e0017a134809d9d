package pandugo

import (
	"context"
	"math"
	"sync"
	"time"
)

// Default rate limit: 10 req/s sustained (600/min) with burst capacity 20.
const (
	defaultRequestsPerSecond = 10.0
	defaultBurstLimit        = 20
)

// RateLimiter is a token bucket bounding the outbound request rate. Tokens
// refill continuously at requestsPerSecond and are capped at burstLimit.
// Safe for concurrent use.
type RateLimiter struct {
	mu                sync.Mutex
	tokens            float64
	lastRefill        time.Time
	requestsPerSecond float64
	burstLimit        float64

	now func() time.Time
}

// NewRateLimiter creates a rate limiter starting with a full bucket.
func NewRateLimiter(requestsPerSecond float64, burstLimit int) *RateLimiter {
	rl := &RateLimiter{
		tokens:            float64(burstLimit),
		requestsPerSecond: requestsPerSecond,
		burstLimit:        float64(burstLimit),
		now:               time.Now,
	}
	rl.lastRefill = rl.now()
	return rl
}

// refill adds elapsed_seconds × requestsPerSecond tokens, capped at the burst
// limit. Callers must hold mu.
func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed > 0 {
		rl.tokens = math.Min(rl.tokens+elapsed*rl.requestsPerSecond, rl.burstLimit)
		rl.lastRefill = now
	}
}

// tryConsume takes one token if available. Callers must hold mu.
func (rl *RateLimiter) tryConsume() bool {
	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Acquire consumes one token, suspending the caller at most once for
// ceil(1000/requestsPerSecond) milliseconds when the bucket is empty. If a
// token is still unavailable after that single wait it returns ErrRateLimited;
// it never loops.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	rl.mu.Lock()
	if rl.tryConsume() {
		rl.mu.Unlock()
		return nil
	}
	wait := time.Duration(math.Ceil(1000/rl.requestsPerSecond)) * time.Millisecond
	rl.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.tryConsume() {
		return nil
	}
	return &ClientError{
		Type:      ErrorTypeRateLimit,
		Message:   "no token available after backoff wait",
		Timestamp: time.Now(),
	}
}

// Tokens returns the currently available token count after refill.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}
