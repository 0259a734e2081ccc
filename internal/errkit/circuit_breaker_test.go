package errkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 2, Timeout: 100 * time.Millisecond})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return errors.New("failure")
		})
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.State())
	}

	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		t.Fatal("fn should not run while circuit is open")
		return nil
	})
	if !IsDegraded(err) {
		t.Fatalf("expected degraded error, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 2, Timeout: 30 * time.Millisecond})
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("fail") })
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %v", cb.State())
	}
	time.Sleep(40 * time.Millisecond)
	for i := 0; i < 2; i++ {
		if err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
			t.Fatalf("execute in half-open failed: %v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after recovery, got %v", cb.State())
	}
}

func TestCircuitBreakerManagerReusesByName(t *testing.T) {
	m := NewCircuitBreakerManager(DefaultCircuitBreakerConfig())
	a := m.Get("openai::gpt-5")
	b := m.Get("openai::gpt-5")
	if a != b {
		t.Fatal("expected same breaker instance for the same name")
	}
	c := m.Get("anthropic::claude")
	if a == c {
		t.Fatal("expected distinct breakers for distinct names")
	}
}

func TestIsTransientAndPermanent(t *testing.T) {
	cases := []struct {
		err       error
		transient bool
		permanent bool
	}{
		{errors.New("HTTP 429: rate limit exceeded"), true, false},
		{errors.New("HTTP 503: service unavailable"), true, false},
		{errors.New("HTTP 401: unauthorized"), false, true},
		{errors.New("HTTP 404: not found"), false, true},
		{NewTransientError(errors.New("x"), "explicit"), true, false},
		{NewPermanentError(errors.New("x"), "explicit"), false, true},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.transient {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.transient)
		}
		if got := IsPermanent(tc.err); got != tc.permanent {
			t.Errorf("IsPermanent(%v) = %v, want %v", tc.err, got, tc.permanent)
		}
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return NewPermanentError(errors.New("nope"), "bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly one attempt for a permanent error, got %d", attempts)
	}
}

func TestRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, Multiplier: 1}, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return NewTransientError(errors.New("try again"), "transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}
