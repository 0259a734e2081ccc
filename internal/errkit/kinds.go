package errkit

import "fmt"

// The five taxonomic error kinds carried by the gateway core.
// Each satisfies error and is distinguishable with errors.As.

// ConfigDiagnosticError wraps a config validation failure; the validator
// itself collects diagnostics rather than failing fast (see internal/config),
// but callers that must surface "config is invalid" as a single error use
// this wrapper.
type ConfigDiagnosticError struct {
	Count int
}

func (e *ConfigDiagnosticError) Error() string {
	return fmt.Sprintf("config validation reported %d diagnostic(s)", e.Count)
}

// PoolExhaustedError is returned by the browser pool when admission fails
// under a hard cap or memory ceiling.
type PoolExhaustedError struct {
	Reason string
}

func (e *PoolExhaustedError) Error() string { return "pool exhausted: " + e.Reason }

// LaunchFailedError aborts a single browser or sandbox launch request.
type LaunchFailedError struct {
	Msg string
	Err error
}

func (e *LaunchFailedError) Error() string {
	if e.Err != nil {
		return "launch failed: " + e.Msg + ": " + e.Err.Error()
	}
	return "launch failed: " + e.Msg
}

func (e *LaunchFailedError) Unwrap() error { return e.Err }

// TransportError is returned by a provider handle's HTTP call. RetryAfterMs
// is non-zero when the upstream tagged the failure with a Retry-After value
// (HTTP 429).
type TransportError struct {
	Err          error
	RetryAfterMs int
}

func (e *TransportError) Error() string { return "transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the runner should treat this as retryable.
func (e *TransportError) Retryable() bool {
	return e.RetryAfterMs > 0 || IsTransient(e.Err)
}

// ChannelDispatchError is swallowed by the channel sink and surfaced back to
// the originating chat as a "⚠️ ..." message rather than propagated further.
type ChannelDispatchError struct {
	Err error
}

func (e *ChannelDispatchError) Error() string { return "channel dispatch error: " + e.Err.Error() }
func (e *ChannelDispatchError) Unwrap() error { return e.Err }
