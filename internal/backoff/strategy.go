// Package backoff provides the delay calculation strategies used between
// retry attempts.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before retrying after a failed attempt.
// attempt is 1-based: attempt 1 is the first failed attempt.
type Strategy interface {
	Calculate(attempt int, baseDelay, maxDelay time.Duration, multiplier, jitter float64) time.Duration
}

// ExponentialJitter implements exponential backoff with uniform jitter:
//
//	delay = min(baseDelay × multiplier^(attempt-1) + rand(0, jitter × exponential), maxDelay)
type ExponentialJitter struct{}

func (ExponentialJitter) Calculate(attempt int, baseDelay, maxDelay time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Cap the exponent to avoid float overflow on runaway attempt counts.
	if attempt > 30 {
		attempt = 30
	}

	exponential := float64(baseDelay) * pow(multiplier, attempt-1)
	if exponential < 0 || exponential > float64(maxDelay) {
		exponential = float64(maxDelay)
	}

	delay := exponential
	jitter = clampJitter(jitter)
	if jitter > 0 {
		delay += exponential * jitter * rand.Float64()
	}
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	return time.Duration(delay)
}

// DecorrelatedJitter implements AWS-style decorrelated jitter:
// random_between(base, min(cap, base × 3^attempt)). Smoother tail latencies
// than exponential jitter under synchronized retry storms.
type DecorrelatedJitter struct{}

func (DecorrelatedJitter) Calculate(attempt int, baseDelay, maxDelay time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 1 {
		return baseDelay
	}
	if attempt > 10 {
		attempt = 10
	}

	base := float64(baseDelay)
	upper := base * pow(3.0, attempt)
	if upper > float64(maxDelay) || upper < 0 {
		upper = float64(maxDelay)
	}
	if upper < base {
		upper = base
	}

	delay := base + rand.Float64()*(upper-base)
	result := time.Duration(delay)
	if result < 0 || result > maxDelay {
		result = maxDelay
	}
	return result
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
