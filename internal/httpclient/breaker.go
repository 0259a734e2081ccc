package httpclient

import (
	"fmt"
	"net/http"

	"github.com/moltislabs/moltis/internal/errkit"
)

// BreakerRoundTripper wraps next with a circuit breaker keyed by the request
// host, so a failing upstream stops being dialed rather than retried per
// call. Adapted from the teacher's circuitBreakerRoundTripper.
type BreakerRoundTripper struct {
	next     http.RoundTripper
	breakers *errkit.CircuitBreakerManager
}

func (b *BreakerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cb := b.breakers.Get(req.URL.Host)
	if err := cb.Allow(); err != nil {
		return nil, err
	}
	resp, err := b.next.RoundTrip(req)
	if err != nil {
		cb.Mark(err)
		return nil, err
	}
	if resp.StatusCode >= 500 {
		cb.Mark(&httpStatusError{code: resp.StatusCode})
	} else {
		cb.Mark(nil)
	}
	return resp, nil
}

type httpStatusError struct{ code int }

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, http.StatusText(e.code))
}
