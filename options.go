package pandugo

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pandugo/pandugo/internal/backoff"
)

// BackoffStrategy selects the delay calculation between retry attempts.
type BackoffStrategy int

const (
	// ExponentialJitterBackoff is the default: exponential growth with
	// uniform jitter, capped at the max delay.
	ExponentialJitterBackoff BackoffStrategy = iota
	// DecorrelatedJitterBackoff is AWS-style decorrelated jitter.
	DecorrelatedJitterBackoff
)

// WithBaseURL overrides the upstream host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit configures the token bucket: sustained requests per second
// and burst capacity.
func WithRateLimit(requestsPerSecond float64, burstLimit int) Option {
	return func(c *Client) {
		c.rateLimiter = NewRateLimiter(requestsPerSecond, burstLimit)
	}
}

// WithMaxAttempts sets how many times an operation is attempted in total.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		c.retryer.maxAttempts = n
	}
}

// WithBaseDelay sets the first retry delay.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryer.baseDelay = d
	}
}

// WithMaxDelay caps the retry delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryer.maxDelay = d
	}
}

// WithBackoffMultiplier sets the exponential growth factor.
func WithBackoffMultiplier(f float64) Option {
	return func(c *Client) {
		c.retryer.multiplier = f
	}
}

// WithJitter sets the jitter fraction (0.0 to 1.0) added to each delay.
func WithJitter(f float64) Option {
	return func(c *Client) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		c.retryer.jitter = f
	}
}

// WithBackoffStrategy selects the backoff algorithm.
func WithBackoffStrategy(s BackoffStrategy) Option {
	return func(c *Client) {
		switch s {
		case DecorrelatedJitterBackoff:
			c.retryer.strategy = backoff.DecorrelatedJitter{}
		default:
			c.retryer.strategy = backoff.ExponentialJitter{}
		}
	}
}

// WithRetryBudget caps total retries across all operations to maxRetries per
// window.
func WithRetryBudget(maxRetries int, window time.Duration) Option {
	return func(c *Client) {
		c.retryer.budget = NewRetryBudget(maxRetries, window)
	}
}

// WithCircuitBreaker sets the circuit breaker configuration.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breaker = NewCircuitBreaker(config)
	}
}

// WithCacheTTL sets the TTLs for resource lists and aggregation results.
func WithCacheTTL(resource, aggregation time.Duration) Option {
	return func(c *Client) {
		c.resourceTTL = resource
		c.aggregationTTL = aggregation
	}
}

// WithCustomCache sets a custom cache implementation.
func WithCustomCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithMiddleware appends middleware wrapping the HTTP transport.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithZapLogger sets a zap-backed logger.
func WithZapLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = NewZapLogger(l)
	}
}

// WithDebug enables debug logging of pipeline events.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithPrometheus enables Prometheus metrics on the default registerer.
func WithPrometheus() Option {
	return func(c *Client) {
		c.prom = NewPrometheusCollector()
	}
}

// WithPrometheusRegistry enables Prometheus metrics on a custom registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(c *Client) {
		c.prom = NewPrometheusCollectorWithRegistry(registry)
	}
}

// validateConfiguration checks the assembled configuration and returns a
// validation error listing every problem found.
func (c *Client) validateConfiguration() error {
	var problems []string

	if c.integrationKey == "" {
		problems = append(problems, "integration key is required")
	}
	if u, err := url.Parse(c.baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "baseURL must be an absolute URL")
	}
	if c.httpClient == nil {
		problems = append(problems, "HTTP client cannot be nil")
	}

	if c.retryer.maxAttempts < 1 {
		problems = append(problems, "maxAttempts must be at least 1")
	}
	if c.retryer.baseDelay <= 0 {
		problems = append(problems, "baseDelay must be positive")
	}
	if c.retryer.maxDelay < c.retryer.baseDelay {
		problems = append(problems, "maxDelay must be greater than or equal to baseDelay")
	}
	if c.retryer.multiplier <= 0 {
		problems = append(problems, "backoffMultiplier must be positive")
	}
	if c.retryer.jitter < 0 || c.retryer.jitter > 1 {
		problems = append(problems, "jitter must be between 0 and 1")
	}

	if c.rateLimiter != nil {
		if c.rateLimiter.requestsPerSecond <= 0 {
			problems = append(problems, "requestsPerSecond must be positive")
		}
		if c.rateLimiter.burstLimit < 1 {
			problems = append(problems, "burstLimit must be at least 1")
		}
	}

	if c.cache != nil {
		if c.resourceTTL <= 0 {
			problems = append(problems, "resource TTL must be positive when caching is enabled")
		}
		if c.aggregationTTL <= 0 {
			problems = append(problems, "aggregation TTL must be positive when caching is enabled")
		}
	}

	if c.breaker != nil {
		if c.breaker.config.FailureThreshold <= 0 {
			problems = append(problems, "circuit breaker FailureThreshold must be positive")
		}
		if c.breaker.config.RecoveryTimeout <= 0 {
			problems = append(problems, "circuit breaker RecoveryTimeout must be positive")
		}
	}

	for i, m := range c.middleware {
		if m == nil {
			problems = append(problems, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	if c.debug != nil && c.debug.Enabled && c.logger == nil {
		problems = append(problems, "logger must be set when debug is enabled")
	}

	if len(problems) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}
	return nil
}
