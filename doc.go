// Package pandugo is a resilient client for the Pendo analytics API. It wraps
// the small set of read endpoints the dashboard mirror consumes (guides,
// features, pages, reports, aggregations) with composable reliability layers:
//
//   - Token-bucket rate limiting with a single bounded wait
//   - Circuit breaker (closed / open / half-open) around whole operations
//   - Retries with exponential backoff + jitter for transient failures
//   - In-memory TTL response caching keyed by endpoint and parameters
//   - Request metrics with a rolling latency window and derived health status
//   - Optional Prometheus export and structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Safe concurrent use of a single *Client instance
//   - Explicit construction, no package-level singleton
//
// Typical usage:
//
//	client, err := pandugo.New("integration-key",
//	    pandugo.WithRateLimit(10, 20),
//	    pandugo.WithCacheTTL(5*time.Minute, 2*time.Minute),
//	    pandugo.WithZapLogger(logger),
//	)
//	if err != nil {
//	    // invalid configuration
//	}
//	guides, err := client.GetGuides(ctx, pandugo.ListParams{Limit: 50})
//
// Only terminal failures surface to the caller: retries, breaker decisions and
// the limiter's bounded wait are handled inside the client, and what escapes
// is a *ResourceError carrying the inner cause.
package pandugo
