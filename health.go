package pandugo

import (
	"context"
	"fmt"
	"time"
)

// Health status values.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// Thresholds for deriving the overall status from recent request metrics.
const (
	unhealthySuccessRate  = 0.90
	degradedSuccessRate   = 0.95
	unhealthyResponseTime = 5000 * time.Millisecond
	degradedResponseTime  = 2000 * time.Millisecond
)

// HealthStatus is the derived view of the client's recent interaction with
// the upstream API.
type HealthStatus struct {
	Status              string        `json:"status"`
	CircuitBreakerState string        `json:"circuitBreakerState"`
	AvailableTokens     float64       `json:"availableTokens"`
	SuccessRate         float64       `json:"successRate"`
	AverageResponseTime time.Duration `json:"averageResponseTime"`
}

// GetHealthStatus derives the current health from the metrics window, the
// breaker state and the limiter. Unhealthy dominates: success rate below 90%,
// average latency above 5s, or an open breaker. Degraded: success rate below
// 95%, average latency above 2s, or a half-open breaker. Otherwise healthy.
// Before any request has completed the client reports healthy.
func (c *Client) GetHealthStatus() HealthStatus {
	snapshot := c.metrics.Snapshot()
	breakerState := c.breaker.State()

	status := HealthHealthy
	if snapshot.TotalRequests > 0 {
		switch {
		case snapshot.SuccessRate < unhealthySuccessRate,
			snapshot.AverageResponseTime > unhealthyResponseTime,
			breakerState == StateOpen:
			status = HealthUnhealthy
		case snapshot.SuccessRate < degradedSuccessRate,
			snapshot.AverageResponseTime > degradedResponseTime,
			breakerState == StateHalfOpen:
			status = HealthDegraded
		}
	} else if breakerState == StateOpen {
		status = HealthUnhealthy
	}

	return HealthStatus{
		Status:              status,
		CircuitBreakerState: breakerState.String(),
		AvailableTokens:     c.rateLimiter.Tokens(),
		SuccessRate:         snapshot.SuccessRate,
		AverageResponseTime: snapshot.AverageResponseTime,
	}
}

// HealthCheck issues one minimal live probe (a guide listing with limit 1)
// and returns nil only when the probe succeeds and the derived health status
// is healthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.GetGuides(ctx, ListParams{Limit: 1}); err != nil {
		return fmt.Errorf("health probe failed: %w", err)
	}
	if status := c.GetHealthStatus(); status.Status != HealthHealthy {
		return fmt.Errorf("client is %s (success rate %.2f, avg response time %v, breaker %s)",
			status.Status, status.SuccessRate, status.AverageResponseTime, status.CircuitBreakerState)
	}
	return nil
}
