package pandugo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the upstream analytics API host.
const DefaultBaseURL = "https://app.pendo.io"

const (
	defaultTimeout = 30 * time.Second

	integrationKeyHeader = "X-Pendo-Integration-Key"
)

// Upstream resource paths.
const (
	endpointGuides        = "/api/v1/guide"
	endpointFeatures      = "/api/v1/feature"
	endpointPages         = "/api/v1/page"
	endpointReports       = "/api/v1/report"
	endpointAggregation   = "/api/v1/aggregation"
	endpointGuideSchema   = "/api/v1/metadata/schema/guide"
	endpointVisitorSchema = "/api/v1/metadata/schema/visitor"
)

// Client is a resilient client for the upstream analytics API. It layers rate
// limiting, caching, circuit breaking, retries and metrics around plain HTTP
// calls and exposes typed resource methods on top. Construct one per process
// with New and share it; it is safe for concurrent use.
type Client struct {
	baseURL        string
	integrationKey string
	userAgent      string
	httpClient     *http.Client
	middleware     []Middleware

	rateLimiter *RateLimiter
	breaker     *CircuitBreaker
	retryer     *Retryer
	cache       Cache
	metrics     *Metrics
	prom        *PrometheusCollector

	resourceTTL    time.Duration
	aggregationTTL time.Duration

	debug  *DebugConfig
	logger Logger
}

// New constructs a Client for the given integration key using the provided
// functional options. Configuration is validated before the client is
// returned.
func New(integrationKey string, options ...Option) (*Client, error) {
	c := &Client{
		baseURL:        DefaultBaseURL,
		integrationKey: integrationKey,
		userAgent:      "pandugo/" + Version,
		httpClient:     &http.Client{Timeout: defaultTimeout},
		rateLimiter:    NewRateLimiter(defaultRequestsPerSecond, defaultBurstLimit),
		breaker:        NewCircuitBreaker(CircuitBreakerConfig{}),
		retryer:        NewRetryer(defaultMaxAttempts, defaultBaseDelay, defaultMaxDelay, defaultBackoffMultiplier, defaultJitter),
		cache:          NewInMemoryCache(),
		metrics:        NewMetrics(),
		resourceTTL:    defaultResourceTTL,
		aggregationTTL: defaultAggregationTTL,
		debug:          DefaultDebugConfig(),
	}

	for _, option := range options {
		option(c)
	}

	if err := c.validateConfiguration(); err != nil {
		return nil, err
	}
	return c, nil
}

// do runs one operation through the full pipeline: acquire a rate-limit token,
// check the cache, gate on the circuit breaker, then retry the HTTP call.
// A cache hit still consumes a token: the limiter runs first, matching the
// upstream accounting where every client call counts against the rate budget.
// The breaker observes the operation's terminal outcome, not each attempt.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body []byte, ttl time.Duration) ([]byte, error) {
	start := time.Now()

	var requestID string
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("starting request", "requestID", requestID, "method", method, "endpoint", endpoint)
	}

	c.prom.RecordRequestStart(method, endpoint)
	defer c.prom.RecordRequestEnd(method, endpoint)

	if err := c.rateLimiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrRateLimited) {
			c.metrics.RecordRateLimitHit()
			c.prom.RecordError(ErrorTypeRateLimit, method, endpoint)
			if c.debugEnabled() && c.debug.LogRateLimit {
				c.logger.Warn("rate limit exceeded", "requestID", requestID, "endpoint", endpoint)
			}
		}
		c.metrics.RecordRequest(time.Since(start), false, err)
		return nil, err
	}
	c.prom.RecordRateLimiterTokens("default", c.rateLimiter.Tokens())

	cacheKey := c.cacheKey(method, endpoint, query, body)
	cacheable := c.cache != nil && ttl > 0

	if cacheable {
		if entry, found := c.cache.Get(cacheKey); found {
			c.prom.RecordCacheHit(method, endpoint)
			c.prom.RecordRequest(method, endpoint, http.StatusOK, time.Since(start))
			if c.debugEnabled() && c.debug.LogCache {
				c.logger.Debug("cache hit", "requestID", requestID, "cacheKey", cacheKey)
			}
			return entry.Data, nil
		}
		c.prom.RecordCacheMiss(method, endpoint)
	}

	if !c.breaker.Allow() {
		err := &ClientError{
			Type:      ErrorTypeCircuitOpen,
			Message:   "circuit breaker is open",
			Endpoint:  endpoint,
			Timestamp: time.Now(),
		}
		c.prom.RecordError(ErrorTypeCircuitOpen, method, endpoint)
		c.metrics.RecordRequest(time.Since(start), false, err)
		if c.debugEnabled() && c.debug.LogCircuit {
			c.logger.Warn("circuit breaker open", "requestID", requestID, "endpoint", endpoint)
		}
		return nil, err
	}

	var respBody []byte
	var respETag string

	retryer := *c.retryer
	retryer.onRetry = func(attempt int, delay time.Duration) {
		c.prom.RecordRetry(method, endpoint, attempt)
		if c.debugEnabled() && c.debug.LogRetries {
			c.logger.Info("scheduling retry", "requestID", requestID, "attempt", attempt, "backoff", delay, "endpoint", endpoint)
		}
	}

	err := retryer.Do(ctx, func(ctx context.Context) error {
		data, etag, reqErr := c.httpRequest(ctx, method, endpoint, query, body)
		if reqErr != nil {
			return reqErr
		}
		respBody, respETag = data, etag
		return nil
	}, IsRetryable)

	duration := time.Since(start)

	if err != nil {
		if tripped := c.breaker.RecordFailure(); tripped {
			c.metrics.RecordCircuitBreakerTrip()
			if c.debugEnabled() && c.debug.LogCircuit {
				c.logger.Warn("circuit breaker tripped open", "requestID", requestID, "endpoint", endpoint)
			}
		}
		c.prom.RecordCircuitBreakerState("default", c.breaker.State())
		c.prom.RecordError(errorTypeOf(err), method, endpoint)
		c.prom.RecordRequest(method, endpoint, statusCodeOf(err), duration)
		c.metrics.RecordRequest(duration, false, err)
		return nil, err
	}

	c.breaker.RecordSuccess()
	c.prom.RecordCircuitBreakerState("default", c.breaker.State())
	c.prom.RecordRequest(method, endpoint, http.StatusOK, duration)
	c.metrics.RecordRequest(duration, true, nil)

	if cacheable {
		c.cache.Set(cacheKey, &Entry{Data: respBody, ETag: respETag}, ttl)
		c.prom.RecordCacheSize("default", c.cache.Stats().Entries)
		if c.debugEnabled() && c.debug.LogCache {
			c.logger.Debug("response cached", "requestID", requestID, "cacheKey", cacheKey, "ttl", ttl)
		}
	}

	return respBody, nil
}

// httpRequest performs one attempt and classifies the outcome.
func (c *Client) httpRequest(ctx context.Context, method, endpoint string, query url.Values, body []byte) ([]byte, string, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set(integrationKeyHeader, c.integrationKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.executeMiddleware(req)
	if err != nil {
		return nil, "", classifyTransportError(err, endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", classifyTransportError(err, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", newAPIError(resp.StatusCode, endpoint, data)
	}
	return data, resp.Header.Get("ETag"), nil
}

// executeMiddleware runs the middleware chain around the base transport.
// Middleware applies in reverse order so the first registered wraps outermost.
func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.httpClient.Do(req)
	}

	current := RoundTripper(RoundTripperFunc(c.httpClient.Do))
	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}
	return current.RoundTrip(req)
}

// cacheKey builds the cache key from method, endpoint and the canonical query
// string; POST bodies contribute a content hash.
func (c *Client) cacheKey(method, endpoint string, query url.Values, body []byte) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(':')
	b.WriteString(endpoint)
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	if len(body) > 0 {
		h := fnv.New64a()
		h.Write(body)
		fmt.Fprintf(&b, ":%016x", h.Sum64())
	}
	return b.String()
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

// classifyTransportError maps transport failures onto the error taxonomy.
// Timeouts (including context deadlines) are retryable, equivalent to a 504.
func classifyTransportError(err error, endpoint string) *ClientError {
	errType := ErrorTypeNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		errType = ErrorTypeTimeout
	}
	return &ClientError{
		Type:      errType,
		Message:   "request failed",
		Cause:     err,
		Endpoint:  endpoint,
		Timestamp: time.Now(),
	}
}

func errorTypeOf(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return ErrorTypeNetwork
}

func statusCodeOf(err error) int {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode
	}
	return 0
}

// GetGuides lists guides.
func (c *Client) GetGuides(ctx context.Context, params ListParams) ([]Guide, error) {
	body, err := c.do(ctx, http.MethodGet, endpointGuides, params.values(), nil, c.resourceTTL)
	if err != nil {
		return nil, &ResourceError{Resource: "guides", Cause: err}
	}
	var guides []Guide
	if err := json.Unmarshal(body, &guides); err != nil {
		return nil, &ResourceError{Resource: "guides", Cause: err}
	}
	return guides, nil
}

// GetGuideByID returns the guide with the given id, or nil when no guide
// matches. The upstream API has no single-guide endpoint, so this lists and
// scans; the list response is cached, so repeated lookups within the TTL cost
// one upstream call.
func (c *Client) GetGuideByID(ctx context.Context, id string) (*Guide, error) {
	guides, err := c.GetGuides(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	for i := range guides {
		if guides[i].ID == id {
			return &guides[i], nil
		}
	}
	return nil, nil
}

// GetFeatures lists features.
func (c *Client) GetFeatures(ctx context.Context, params ListParams) ([]Feature, error) {
	body, err := c.do(ctx, http.MethodGet, endpointFeatures, params.values(), nil, c.resourceTTL)
	if err != nil {
		return nil, &ResourceError{Resource: "features", Cause: err}
	}
	var features []Feature
	if err := json.Unmarshal(body, &features); err != nil {
		return nil, &ResourceError{Resource: "features", Cause: err}
	}
	return features, nil
}

// GetFeatureByID returns the feature with the given id, or nil when absent.
func (c *Client) GetFeatureByID(ctx context.Context, id string) (*Feature, error) {
	features, err := c.GetFeatures(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	for i := range features {
		if features[i].ID == id {
			return &features[i], nil
		}
	}
	return nil, nil
}

// GetPages lists pages.
func (c *Client) GetPages(ctx context.Context, params ListParams) ([]Page, error) {
	body, err := c.do(ctx, http.MethodGet, endpointPages, params.values(), nil, c.resourceTTL)
	if err != nil {
		return nil, &ResourceError{Resource: "pages", Cause: err}
	}
	var pages []Page
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, &ResourceError{Resource: "pages", Cause: err}
	}
	return pages, nil
}

// GetPageByID returns the page with the given id, or nil when absent.
func (c *Client) GetPageByID(ctx context.Context, id string) (*Page, error) {
	pages, err := c.GetPages(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].ID == id {
			return &pages[i], nil
		}
	}
	return nil, nil
}

// GetReports lists reports.
func (c *Client) GetReports(ctx context.Context, params ListParams) ([]Report, error) {
	body, err := c.do(ctx, http.MethodGet, endpointReports, params.values(), nil, c.resourceTTL)
	if err != nil {
		return nil, &ResourceError{Resource: "reports", Cause: err}
	}
	var reports []Report
	if err := json.Unmarshal(body, &reports); err != nil {
		return nil, &ResourceError{Resource: "reports", Cause: err}
	}
	return reports, nil
}

// GetReportByID returns the report with the given id, or nil when absent.
func (c *Client) GetReportByID(ctx context.Context, id string) (*Report, error) {
	reports, err := c.GetReports(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	for i := range reports {
		if reports[i].ID == id {
			return &reports[i], nil
		}
	}
	return nil, nil
}

// GetAggregationData POSTs an aggregation pipeline and returns the result
// rows. The endpoint answers with either a bare JSON array or an object
// wrapping a results array; both shapes are handled.
func (c *Client) GetAggregationData(ctx context.Context, req AggregationRequest) ([]AggregationRow, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &ResourceError{Resource: "aggregation", Cause: err}
	}
	body, err := c.do(ctx, http.MethodPost, endpointAggregation, nil, payload, c.aggregationTTL)
	if err != nil {
		return nil, &ResourceError{Resource: "aggregation", Cause: err}
	}

	var rows []AggregationRow
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}
	var envelope aggregationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ResourceError{Resource: "aggregation", Cause: err}
	}
	return envelope.Results, nil
}

// ClearCache drops all cached responses.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
		c.prom.RecordCacheSize("default", 0)
	}
}

// GetCacheStats reports current cache usage.
func (c *Client) GetCacheStats() CacheStats {
	if c.cache == nil {
		return CacheStats{}
	}
	return c.cache.Stats()
}

// GetMetrics returns a snapshot of the request metrics.
func (c *Client) GetMetrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// ResetMetrics zeroes the request metrics.
func (c *Client) ResetMetrics() {
	c.metrics.Reset()
}
