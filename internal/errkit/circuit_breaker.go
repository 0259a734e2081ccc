// Package errkit implements the gateway's retry, circuit-breaking, and
// taxonomic error kinds, generalized from the teacher's
// internal/shared/errors circuit breaker idiom.
package errkit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitState is one of closed, open, half-open.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes a CircuitBreaker.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	OnStateChange    func(from, to CircuitState, name string)
}

// DefaultCircuitBreakerConfig mirrors the teacher's defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// CircuitBreakerMetrics is a point-in-time snapshot.
type CircuitBreakerMetrics struct {
	Name         string
	State        CircuitState
	FailureCount int
	SuccessCount int
}

// CircuitBreaker is a classic closed/open/half-open breaker keyed by name
// (provider+model in this gateway's usage).
type CircuitBreaker struct {
	name   string
	cfg    CircuitBreakerConfig
	mu     sync.Mutex
	state  CircuitState
	fails  int
	succs  int
	openAt time.Time
}

// NewCircuitBreaker constructs a breaker in the closed state.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{name: name, cfg: cfg, state: StateClosed}
}

// State returns the current state, transitioning open->half-open if the
// timeout has elapsed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeHalfOpenLocked()
	return cb.state
}

func (cb *CircuitBreaker) maybeHalfOpenLocked() {
	if cb.state == StateOpen && time.Since(cb.openAt) >= cb.cfg.Timeout {
		cb.transitionLocked(StateHalfOpen)
		cb.succs = 0
	}
}

func (cb *CircuitBreaker) transitionLocked(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		name := cb.name
		go cb.cfg.OnStateChange(from, to, name)
	}
}

// Allow reports whether a call may proceed, returning a DegradedError if the
// circuit is open.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeHalfOpenLocked()
	if cb.state == StateOpen {
		return &DegradedError{Name: cb.name, Reason: "circuit breaker open"}
	}
	return nil
}

// Mark records the outcome of a call made after Allow succeeded.
func (cb *CircuitBreaker) Mark(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.fails++
		cb.succs = 0
		if cb.state == StateHalfOpen || cb.fails >= cb.cfg.FailureThreshold {
			cb.openAt = time.Now()
			cb.transitionLocked(StateOpen)
		}
		return
	}
	switch cb.state {
	case StateHalfOpen:
		cb.succs++
		if cb.succs >= cb.cfg.SuccessThreshold {
			cb.fails = 0
			cb.succs = 0
			cb.transitionLocked(StateClosed)
		}
	case StateClosed:
		cb.fails = 0
	}
}

// Execute runs fn if the circuit allows it, recording the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.Mark(err)
	return err
}

// ExecuteFunc is the generic value-returning counterpart to Execute.
func ExecuteFunc[T any](cb *CircuitBreaker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := cb.Allow(); err != nil {
		return zero, err
	}
	result, err := fn(ctx)
	cb.Mark(err)
	if err != nil {
		return zero, err
	}
	return result, nil
}

// Metrics returns a snapshot for observability.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerMetrics{Name: cb.name, State: cb.state, FailureCount: cb.fails, SuccessCount: cb.succs}
}

// Reset forces the breaker back to closed with zeroed counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.fails = 0
	cb.succs = 0
	cb.transitionLocked(StateClosed)
}

// DegradedError indicates a call was rejected by an open circuit.
type DegradedError struct {
	Name   string
	Reason string
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

// IsDegraded reports whether err is a DegradedError.
func IsDegraded(err error) bool {
	_, ok := err.(*DegradedError)
	return ok
}

// CircuitBreakerManager keys breakers by name, creating them lazily.
type CircuitBreakerManager struct {
	cfg      CircuitBreakerConfig
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewCircuitBreakerManager constructs a manager sharing cfg across breakers.
func NewCircuitBreakerManager(cfg CircuitBreakerConfig) *CircuitBreakerManager {
	return &CircuitBreakerManager{cfg: cfg, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for name, creating it on first use.
func (m *CircuitBreakerManager) Get(name string) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cb, ok := m.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(name, m.cfg)
	m.breakers[name] = cb
	return cb
}

// GetMetrics returns a snapshot of every breaker the manager has created.
func (m *CircuitBreakerManager) GetMetrics() []CircuitBreakerMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CircuitBreakerMetrics, 0, len(m.breakers))
	for _, cb := range m.breakers {
		out = append(out, cb.Metrics())
	}
	return out
}

// ResetAll resets every breaker the manager has created.
func (m *CircuitBreakerManager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cb := range m.breakers {
		cb.Reset()
	}
}

// Remove discards a breaker; the next Get recreates it fresh.
func (m *CircuitBreakerManager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.breakers, name)
}
