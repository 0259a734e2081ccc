package errkit

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig tunes exponential backoff retries.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}

// DefaultRetryConfig mirrors the teacher's production defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// Retry runs fn up to cfg.MaxAttempts times, stopping early on a permanent
// error or when ctx is done. Non-permanent errors are retried with backoff.
func Retry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if IsPermanent(lastErr) || attempt == cfg.MaxAttempts-1 {
			return lastErr
		}
		wait := delay
		if cfg.Jitter > 0 {
			jitter := 1 + (rand.Float64()*2-1)*cfg.Jitter
			wait = time.Duration(float64(wait) * jitter)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}

// TransientError is an explicitly retryable error.
type TransientError struct {
	Err    error
	Reason string
}

func (e *TransientError) Error() string { return e.Reason + ": " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as explicitly transient.
func NewTransientError(err error, reason string) error {
	return &TransientError{Err: err, Reason: reason}
}

// PermanentError is an explicitly non-retryable error.
type PermanentError struct {
	Err    error
	Reason string
}

func (e *PermanentError) Error() string { return e.Reason + ": " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err as explicitly non-retryable.
func NewPermanentError(err error, reason string) error {
	return &PermanentError{Err: err, Reason: reason}
}

var permanentSubstrings = []string{
	"401", "unauthorized",
	"403", "forbidden",
	"404", "not found",
	"400", "bad request",
	"permission denied",
}

var transientSubstrings = []string{
	"429", "rate limit",
	"500", "internal server error",
	"502", "bad gateway",
	"503", "service unavailable",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"timeout",
}

// IsTransient reports whether err looks retryable, by explicit tagging first
// and a substring heuristic over the error text otherwise (grounded on the
// teacher's internal/shared/errors classification).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var t *TransientError
	if errors.As(err, &t) {
		return true
	}
	var p *PermanentError
	if errors.As(err, &p) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsPermanent reports whether err looks non-retryable.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var p *PermanentError
	if errors.As(err, &p) {
		return true
	}
	var t *TransientError
	if errors.As(err, &t) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range permanentSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
