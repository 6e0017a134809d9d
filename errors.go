package pandugo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Error type identifiers carried by ClientError.Type.
const (
	ErrorTypeRateLimit   = "RateLimit"
	ErrorTypeCircuitOpen = "CircuitOpen"
	ErrorTypeAPI         = "API"
	ErrorTypeNetwork     = "Network"
	ErrorTypeTimeout     = "Timeout"
	ErrorTypeRetryBudget = "RetryBudget"
	ErrorTypeValidation  = "Validation"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrRateLimited is returned when no token is available after the
	// limiter's single bounded wait.
	ErrRateLimited = errors.New("pandugo: rate limited")

	// ErrCircuitOpen is returned when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("pandugo: circuit open")

	// ErrRetryBudgetExceeded is returned when the optional retry budget is
	// exhausted.
	ErrRetryBudgetExceeded = errors.New("pandugo: retry budget exceeded")
)

// ClientError is the structured error produced by the client pipeline.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	StatusCode int
	Code       string // machine error code, parsed from the upstream body when present
	Body       string // upstream response body text, truncated
	Endpoint   string
	Attempt    int
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrRateLimited:
		return e.Type == ErrorTypeRateLimit
	case ErrCircuitOpen:
		return e.Type == ErrorTypeCircuitOpen
	case ErrRetryBudgetExceeded:
		return e.Type == ErrorTypeRetryBudget
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// ResourceError wraps a terminal pipeline failure for a specific resource
// method. By the time it is raised, retries have already been exhausted; the
// wrapper itself is never retryable.
type ResourceError struct {
	Resource string // "guides", "features", "pages", "reports", "aggregation", "schema"
	Cause    error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Resource, e.Cause)
}

func (e *ResourceError) Unwrap() error {
	return e.Cause
}

// retryableStatuses are the HTTP statuses treated as transient.
var retryableStatuses = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// IsRetryable reports whether an error represents a transient failure worth
// retrying. Rate-limit, network and timeout errors are retryable; upstream
// API errors are retryable only for 408, 429 and the retryable 5xx statuses.
// Circuit-open and validation errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit:
			return true
		case ErrorTypeAPI:
			return retryableStatuses[clientErr.StatusCode]
		default:
			return false
		}
	}
	return false
}

// upstreamError is the error envelope some upstream responses carry.
type upstreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

const maxErrorBody = 512

// newAPIError builds a ClientError from a non-2xx upstream response body.
func newAPIError(statusCode int, endpoint string, body []byte) *ClientError {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}

	code := fmt.Sprintf("http_%d", statusCode)
	message := fmt.Sprintf("upstream returned %d", statusCode)

	var envelope upstreamError
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Code != "" {
			code = envelope.Code
		}
		switch {
		case envelope.Message != "":
			message = envelope.Message
		case envelope.Error != "":
			message = envelope.Error
		}
	}

	return &ClientError{
		Type:       ErrorTypeAPI,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
		Body:       text,
		Endpoint:   endpoint,
		Timestamp:  time.Now(),
	}
}
