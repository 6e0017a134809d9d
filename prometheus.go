package pandugo

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exports the client's request lifecycle and reliability
// signals as Prometheus metrics. It is safe for concurrent use; every method
// is a no-op on a nil receiver so the client can call through unconditionally.
type PrometheusCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	circuitBreakerState *prometheus.GaugeVec
	rateLimiterTokens   *prometheus.GaugeVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec

	registerer prometheus.Registerer
}

// NewPrometheusCollector creates a collector on the default registerer.
func NewPrometheusCollector() *PrometheusCollector {
	return NewPrometheusCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewPrometheusCollectorWithRegistry(registry prometheus.Registerer) *PrometheusCollector {
	return &PrometheusCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pandugo_requests_total",
				Help: "Total number of API operations completed",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pandugo_request_duration_seconds",
				Help:    "Duration of API operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pandugo_requests_in_flight",
				Help: "Number of API operations currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pandugo_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		circuitBreakerState: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pandugo_circuit_breaker_state",
				Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		rateLimiterTokens: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pandugo_rate_limiter_tokens",
				Help: "Current number of available rate limiter tokens",
			},
			[]string{"name"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pandugo_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"method", "endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pandugo_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"method", "endpoint"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pandugo_cache_size",
				Help: "Current number of entries in cache",
			},
			[]string{"name"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pandugo_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type", "method", "endpoint"},
		),
		registerer: registry,
	}
}

// RecordRequest records operation count and duration.
func (pc *PrometheusCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if pc == nil {
		return
	}
	code := strconv.Itoa(statusCode)
	pc.requestsTotal.WithLabelValues(method, code, endpoint).Inc()
	pc.requestDuration.WithLabelValues(method, code, endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments the in-flight gauge.
func (pc *PrometheusCollector) RecordRequestStart(method, endpoint string) {
	if pc == nil {
		return
	}
	pc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (pc *PrometheusCollector) RecordRequestEnd(method, endpoint string) {
	if pc == nil {
		return
	}
	pc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRetry counts a retry attempt.
func (pc *PrometheusCollector) RecordRetry(method, endpoint string, attempt int) {
	if pc == nil {
		return
	}
	pc.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordCircuitBreakerState sets the breaker state gauge.
func (pc *PrometheusCollector) RecordCircuitBreakerState(name string, state CircuitState) {
	if pc == nil {
		return
	}
	var value float64
	switch state {
	case StateClosed:
		value = 0
	case StateOpen:
		value = 1
	case StateHalfOpen:
		value = 2
	}
	pc.circuitBreakerState.WithLabelValues(name).Set(value)
}

// RecordRateLimiterTokens sets the available token gauge.
func (pc *PrometheusCollector) RecordRateLimiterTokens(name string, tokens float64) {
	if pc == nil {
		return
	}
	pc.rateLimiterTokens.WithLabelValues(name).Set(tokens)
}

// RecordCacheHit increments the cache hit counter.
func (pc *PrometheusCollector) RecordCacheHit(method, endpoint string) {
	if pc == nil {
		return
	}
	pc.cacheHits.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (pc *PrometheusCollector) RecordCacheMiss(method, endpoint string) {
	if pc == nil {
		return
	}
	pc.cacheMisses.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheSize sets the cache size gauge.
func (pc *PrometheusCollector) RecordCacheSize(name string, size int) {
	if pc == nil {
		return
	}
	pc.cacheSize.WithLabelValues(name).Set(float64(size))
}

// RecordError increments the error counter by type.
func (pc *PrometheusCollector) RecordError(errorType, method, endpoint string) {
	if pc == nil {
		return
	}
	pc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}
