package pandugo

import (
	"errors"
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest(100*time.Millisecond, true, nil)
	m.RecordRequest(200*time.Millisecond, true, nil)
	m.RecordRequest(300*time.Millisecond, false, errors.New("upstream exploded"))

	snap := m.Snapshot()
	if snap.TotalRequests != 3 {
		t.Errorf("expected 3 total requests, got %d", snap.TotalRequests)
	}
	if snap.SuccessfulRequests != 2 {
		t.Errorf("expected 2 successes, got %d", snap.SuccessfulRequests)
	}
	if snap.FailedRequests != 1 {
		t.Errorf("expected 1 failure, got %d", snap.FailedRequests)
	}
	if snap.LastError != "upstream exploded" {
		t.Errorf("expected last error recorded, got %q", snap.LastError)
	}
	if snap.AverageResponseTime != 200*time.Millisecond {
		t.Errorf("expected average 200ms, got %v", snap.AverageResponseTime)
	}
}

func TestMetricsSuccessRateZeroGuard(t *testing.T) {
	m := NewMetrics()
	if rate := m.SuccessRate(); rate != 0 {
		t.Errorf("success rate before any request should be 0, got %f", rate)
	}
	if avg := m.AverageResponseTime(); avg != 0 {
		t.Errorf("average before any request should be 0, got %v", avg)
	}
}

func TestMetricsSuccessRate(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 9; i++ {
		m.RecordRequest(time.Millisecond, true, nil)
	}
	m.RecordRequest(time.Millisecond, false, errors.New("boom"))

	if rate := m.SuccessRate(); rate != 0.9 {
		t.Errorf("expected success rate 0.9, got %f", rate)
	}
}

func TestMetricsRollingWindowDropsOldest(t *testing.T) {
	m := NewMetrics()

	// 50 slow samples, then 100 fast ones. Only the fast samples fit the
	// window, so the slow ones must not influence the average.
	for i := 0; i < 50; i++ {
		m.RecordRequest(time.Second, true, nil)
	}
	for i := 0; i < 100; i++ {
		m.RecordRequest(10*time.Millisecond, true, nil)
	}

	if avg := m.AverageResponseTime(); avg != 10*time.Millisecond {
		t.Errorf("expected window average 10ms, got %v", avg)
	}
}

func TestMetricsRateLimitAndTripCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordRateLimitHit()
	m.RecordRateLimitHit()
	m.RecordCircuitBreakerTrip()

	snap := m.Snapshot()
	if snap.RateLimitHits != 2 {
		t.Errorf("expected 2 rate limit hits, got %d", snap.RateLimitHits)
	}
	if snap.CircuitBreakerTrips != 1 {
		t.Errorf("expected 1 trip, got %d", snap.CircuitBreakerTrips)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest(time.Second, false, errors.New("boom"))
	m.RecordRateLimitHit()
	m.RecordCircuitBreakerTrip()

	m.Reset()

	snap := m.Snapshot()
	if snap != (MetricsSnapshot{}) {
		t.Errorf("expected zeroed snapshot after reset, got %+v", snap)
	}
}
