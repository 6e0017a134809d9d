package pandugo

import (
	"errors"
	"strings"
	"testing"
)

func TestClientErrorMessage(t *testing.T) {
	err := &ClientError{
		Type:       ErrorTypeAPI,
		Message:    "upstream returned 503",
		StatusCode: 503,
	}
	got := err.Error()
	if !strings.Contains(got, "API") || !strings.Contains(got, "503") {
		t.Errorf("unexpected error string: %q", got)
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ClientError{Type: ErrorTypeNetwork, Message: "request failed", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestClientErrorIsSentinels(t *testing.T) {
	tests := []struct {
		errType  string
		sentinel error
	}{
		{ErrorTypeRateLimit, ErrRateLimited},
		{ErrorTypeCircuitOpen, ErrCircuitOpen},
		{ErrorTypeRetryBudget, ErrRetryBudgetExceeded},
	}
	for _, tt := range tests {
		err := &ClientError{Type: tt.errType, Message: "x"}
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("%s error should match its sentinel", tt.errType)
		}
	}

	apiErr := &ClientError{Type: ErrorTypeAPI, Message: "x"}
	if errors.Is(apiErr, ErrRateLimited) {
		t.Error("API error must not match the rate-limit sentinel")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", &ClientError{Type: ErrorTypeNetwork}, true},
		{"timeout", &ClientError{Type: ErrorTypeTimeout}, true},
		{"rate limit", &ClientError{Type: ErrorTypeRateLimit}, true},
		{"circuit open", &ClientError{Type: ErrorTypeCircuitOpen}, false},
		{"validation", &ClientError{Type: ErrorTypeValidation}, false},
		{"api 408", &ClientError{Type: ErrorTypeAPI, StatusCode: 408}, true},
		{"api 429", &ClientError{Type: ErrorTypeAPI, StatusCode: 429}, true},
		{"api 500", &ClientError{Type: ErrorTypeAPI, StatusCode: 500}, true},
		{"api 503", &ClientError{Type: ErrorTypeAPI, StatusCode: 503}, true},
		{"api 400", &ClientError{Type: ErrorTypeAPI, StatusCode: 400}, false},
		{"api 401", &ClientError{Type: ErrorTypeAPI, StatusCode: 401}, false},
		{"api 404", &ClientError{Type: ErrorTypeAPI, StatusCode: 404}, false},
		{"plain error", errors.New("unclassified"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("%s: IsRetryable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewAPIErrorParsesEnvelope(t *testing.T) {
	err := newAPIError(429, "/api/v1/guide", []byte(`{"code":"rate_limited","message":"slow down"}`))
	if err.Code != "rate_limited" {
		t.Errorf("expected upstream code, got %q", err.Code)
	}
	if err.Message != "slow down" {
		t.Errorf("expected upstream message, got %q", err.Message)
	}
	if err.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", err.StatusCode)
	}
}

func TestNewAPIErrorFallbacks(t *testing.T) {
	err := newAPIError(500, "/api/v1/guide", []byte(`<html>Internal Server Error</html>`))
	if err.Code != "http_500" {
		t.Errorf("expected fallback code, got %q", err.Code)
	}
	if !strings.Contains(err.Body, "Internal Server Error") {
		t.Errorf("expected body preserved, got %q", err.Body)
	}

	// The error field is used when message is absent.
	err = newAPIError(400, "/api/v1/guide", []byte(`{"error":"bad pipeline"}`))
	if err.Message != "bad pipeline" {
		t.Errorf("expected error field as message, got %q", err.Message)
	}
}

func TestNewAPIErrorTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 2000)
	err := newAPIError(500, "/api/v1/guide", []byte(long))
	if len(err.Body) != maxErrorBody {
		t.Errorf("expected body truncated to %d, got %d", maxErrorBody, len(err.Body))
	}
}

func TestResourceErrorWrapping(t *testing.T) {
	inner := &ClientError{Type: ErrorTypeAPI, StatusCode: 503, Message: "upstream returned 503"}
	err := &ResourceError{Resource: "guides", Cause: inner}

	if !strings.HasPrefix(err.Error(), "guides fetch failed:") {
		t.Errorf("unexpected message: %q", err.Error())
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.StatusCode != 503 {
		t.Error("expected inner ClientError via errors.As")
	}
}
