// Package httpclient exposes the single process-wide *http.Client shared by
// every provider call and the web-fetch tool, wrapped in a circuit-breaker
// transport and a size-limited body reader, grounded on the
// teacher's internal/httpclient/breaker.go and limit.go.
package httpclient

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/moltislabs/moltis/internal/errkit"
)

var sharedOnce = sync.OnceValue(func() *http.Client {
	return &http.Client{
		Timeout: 120 * time.Second,
		Transport: &BreakerRoundTripper{
			next: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   16,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
			breakers: errkit.NewCircuitBreakerManager(errkit.DefaultCircuitBreakerConfig()),
		},
	}
})

// Shared returns the process-wide HTTP client, built once.
func Shared() *http.Client {
	return sharedOnce()
}
