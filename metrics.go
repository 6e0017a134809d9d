package pandugo

import (
	"sync"
	"time"
)

// metricsWindowSize bounds the rolling response-time window.
const metricsWindowSize = 100

// Metrics aggregates per-request outcomes for the client. Counters track
// whole operations, not individual retry attempts: an operation that succeeds
// after retries counts as one success. Safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	totalRequests       uint64
	successfulRequests  uint64
	failedRequests      uint64
	rateLimitHits       uint64
	circuitBreakerTrips uint64

	responseTimes []time.Duration
	lastError     string
}

// NewMetrics creates an empty metrics aggregate.
func NewMetrics() *Metrics {
	return &Metrics{
		responseTimes: make([]time.Duration, 0, metricsWindowSize),
	}
}

// RecordRequest records one completed operation: its total duration, whether
// it succeeded, and the terminal error if it did not. The duration joins a
// bounded rolling window that drops the oldest sample on overflow.
func (m *Metrics) RecordRequest(responseTime time.Duration, success bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	if success {
		m.successfulRequests++
	} else {
		m.failedRequests++
		if err != nil {
			m.lastError = err.Error()
		}
	}

	if len(m.responseTimes) == metricsWindowSize {
		m.responseTimes = append(m.responseTimes[1:], responseTime)
	} else {
		m.responseTimes = append(m.responseTimes, responseTime)
	}
}

// RecordRateLimitHit counts an acquisition that failed after the limiter's
// bounded wait.
func (m *Metrics) RecordRateLimitHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitHits++
}

// RecordCircuitBreakerTrip counts a transition into the open state.
func (m *Metrics) RecordCircuitBreakerTrip() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerTrips++
}

// SuccessRate returns successfulRequests / totalRequests, or 0 before any
// request completes.
func (m *Metrics) SuccessRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successRateLocked()
}

func (m *Metrics) successRateLocked() float64 {
	if m.totalRequests == 0 {
		return 0
	}
	return float64(m.successfulRequests) / float64(m.totalRequests)
}

// AverageResponseTime returns the arithmetic mean of the rolling window.
func (m *Metrics) AverageResponseTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.averageResponseTimeLocked()
}

func (m *Metrics) averageResponseTimeLocked() time.Duration {
	if len(m.responseTimes) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range m.responseTimes {
		sum += d
	}
	return sum / time.Duration(len(m.responseTimes))
}

// MetricsSnapshot is a point-in-time copy of the aggregate.
type MetricsSnapshot struct {
	TotalRequests       uint64
	SuccessfulRequests  uint64
	FailedRequests      uint64
	RateLimitHits       uint64
	CircuitBreakerTrips uint64
	AverageResponseTime time.Duration
	SuccessRate         float64
	LastError           string
}

// Snapshot returns a consistent copy of all counters and derived values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MetricsSnapshot{
		TotalRequests:       m.totalRequests,
		SuccessfulRequests:  m.successfulRequests,
		FailedRequests:      m.failedRequests,
		RateLimitHits:       m.rateLimitHits,
		CircuitBreakerTrips: m.circuitBreakerTrips,
		AverageResponseTime: m.averageResponseTimeLocked(),
		SuccessRate:         m.successRateLocked(),
		LastError:           m.lastError,
	}
}

// Reset zeroes every counter and empties the rolling window.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests = 0
	m.successfulRequests = 0
	m.failedRequests = 0
	m.rateLimitHits = 0
	m.circuitBreakerTrips = 0
	m.responseTimes = m.responseTimes[:0]
	m.lastError = ""
}
