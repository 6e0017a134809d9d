package pandugo

import (
	"sync"
	"time"
)

// CircuitState represents the state of the circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// CircuitBreaker isolates the caller from a failing upstream. A failure here
// is an entire operation's terminal failure after retries are exhausted, not
// an individual attempt, so transient errors the retry layer absorbs never
// count against the threshold.
type CircuitBreaker struct {
	mu          sync.Mutex
	config      CircuitBreakerConfig
	state       CircuitState
	failures    int
	lastFailure time.Time

	now func() time.Time
}

// NewCircuitBreaker creates a breaker in the closed state. Zero-value config
// fields get the defaults (threshold 5, recovery timeout 30s).
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed. When open and the recovery
// timeout has elapsed it transitions to half-open and admits that call as the
// single trial; further calls are rejected until the trial resolves.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.config.RecoveryTimeout {
			cb.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		// The Open -> HalfOpen transition already admitted the trial call.
		return false
	default:
		return false
	}
}

// RecordSuccess zeroes the failure count in every state and closes the
// breaker when the half-open trial succeeds.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.state = StateClosed
	}
}

// RecordFailure counts a terminal failure. It returns true when this failure
// tripped the breaker into the open state.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.state = StateOpen
			return true
		}
	case StateHalfOpen:
		cb.failures++
		cb.state = StateOpen
		return true
	case StateOpen:
		// Already open; only lastFailure moves.
	}
	return false
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
