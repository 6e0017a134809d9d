package pandugo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(10, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		start := time.Now()
		if err := rl.Acquire(ctx); err != nil {
			t.Fatalf("acquisition %d failed: %v", i+1, err)
		}
		if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
			t.Errorf("acquisition %d within burst waited %v", i+1, elapsed)
		}
	}
}

func TestRateLimiterMonotonicity(t *testing.T) {
	// Acquisitions spaced at least 1/requestsPerSecond apart never wait.
	rl := NewRateLimiter(50, 1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		start := time.Now()
		if err := rl.Acquire(ctx); err != nil {
			t.Fatalf("acquisition %d failed: %v", i+1, err)
		}
		if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
			t.Errorf("spaced acquisition %d waited %v", i+1, elapsed)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestRateLimiterBurstCap(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(10, 20)
	rl.now = func() time.Time { return now }

	// Tokens never exceed the burst limit, no matter how long the idle gap.
	now = now.Add(time.Hour)
	if tokens := rl.Tokens(); tokens != 20 {
		t.Errorf("expected tokens capped at 20, got %f", tokens)
	}
}

func TestRateLimiterWaitsOnceThenRefills(t *testing.T) {
	rl := NewRateLimiter(100, 1)
	ctx := context.Background()

	if err := rl.Acquire(ctx); err != nil {
		t.Fatalf("first acquisition failed: %v", err)
	}

	// Bucket is empty; the single 10ms wait refills one token.
	start := time.Now()
	if err := rl.Acquire(ctx); err != nil {
		t.Fatalf("second acquisition failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 8*time.Millisecond {
		t.Errorf("expected a backoff wait, acquisition returned after %v", elapsed)
	}
}

func TestRateLimiterFailsAfterSingleWait(t *testing.T) {
	frozen := time.Now()
	rl := NewRateLimiter(100, 1)
	rl.now = func() time.Time { return frozen }
	rl.tokens = 0

	// With a frozen clock the wait refills nothing, so the single backoff
	// wait ends in a rate-limited error instead of looping.
	err := rl.Acquire(context.Background())
	if err == nil {
		t.Fatal("expected rate limited error")
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiterAcquireHonorsContext(t *testing.T) {
	frozen := time.Now()
	rl := NewRateLimiter(0.5, 1)
	rl.now = func() time.Time { return frozen }
	rl.tokens = 0

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Acquire(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("acquire did not honor context cancellation, took %v", elapsed)
	}
}

func TestRateLimiterTokensNeverNegative(t *testing.T) {
	rl := NewRateLimiter(10, 2)
	ctx := context.Background()

	_ = rl.Acquire(ctx)
	_ = rl.Acquire(ctx)
	if tokens := rl.Tokens(); tokens < 0 {
		t.Errorf("tokens went negative: %f", tokens)
	}
}
