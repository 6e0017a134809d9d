package pandugo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func alwaysRetryable(error) bool { return true }

func TestRetryerExhaustsAttempts(t *testing.T) {
	r := NewRetryer(3, time.Millisecond, 10*time.Millisecond, 2.0, 0)

	attempts := 0
	failure := errors.New("permanent transient")
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return failure
	}, alwaysRetryable)

	if attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, failure) {
		t.Errorf("expected the last error to surface, got %v", err)
	}
}

func TestRetryerStopsOnNonRetryable(t *testing.T) {
	r := NewRetryer(3, time.Millisecond, 10*time.Millisecond, 2.0, 0)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("bad request")
	}, func(error) bool { return false })

	if attempts != 1 {
		t.Errorf("non-retryable error should stop after 1 attempt, got %d", attempts)
	}
	if err == nil {
		t.Error("expected error")
	}
}

func TestRetryerSucceedsAfterTransientFailures(t *testing.T) {
	r := NewRetryer(3, time.Millisecond, 10*time.Millisecond, 2.0, 0)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, alwaysRetryable)

	if err != nil {
		t.Errorf("expected success on third attempt, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryerReportsDelays(t *testing.T) {
	r := NewRetryer(3, time.Millisecond, 10*time.Millisecond, 2.0, 0)

	var delays []time.Duration
	r.onRetry = func(attempt int, delay time.Duration) {
		delays = append(delays, delay)
	}

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return errors.New("transient")
	}, alwaysRetryable)

	// With jitter 0: attempt 1 -> base, attempt 2 -> base×2.
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d retry delays, got %d", len(want), len(delays))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i+1, want[i], delays[i])
		}
	}
}

func TestRetryerHonorsContext(t *testing.T) {
	r := NewRetryer(3, 500*time.Millisecond, time.Second, 2.0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Do(ctx, func(ctx context.Context) error {
		return errors.New("transient")
	}, alwaysRetryable)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("retry sleep ignored context, took %v", elapsed)
	}
}

func TestRetryBudgetCapsRetries(t *testing.T) {
	r := NewRetryer(5, time.Millisecond, 10*time.Millisecond, 2.0, 0)
	r.budget = NewRetryBudget(2, time.Minute)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("transient")
	}, alwaysRetryable)

	// 1 initial attempt + 2 budgeted retries.
	if attempts != 3 {
		t.Errorf("expected 3 attempts under a budget of 2 retries, got %d", attempts)
	}
	if !errors.Is(err, ErrRetryBudgetExceeded) {
		t.Errorf("expected budget error, got %v", err)
	}
}

func TestRetryBudgetWindowResets(t *testing.T) {
	rb := NewRetryBudget(1, 10*time.Millisecond)

	if !rb.Allow() {
		t.Fatal("first retry should fit the budget")
	}
	if rb.Allow() {
		t.Fatal("second retry should exceed the budget")
	}

	time.Sleep(15 * time.Millisecond)
	if !rb.Allow() {
		t.Error("budget should reset after the window elapses")
	}
}
