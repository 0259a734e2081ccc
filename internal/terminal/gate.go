package terminal

import (
	"net"
	"net/http"
	"os"
	"strings"
)

// AuthDecision is the outcome of the credential store's check_auth call.
type AuthDecision int

const (
	AuthDenied AuthDecision = iota
	AuthAllowed
)

// AuthChecker is the external credential-store collaborator consulted
// before every upgrade.
type AuthChecker interface {
	CheckAuth(headers http.Header, isLocal bool) AuthDecision
}

var proxyHeaders = []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP", "Forwarded"}

// isLoopbackHost reports whether host (as found in a Host/Origin header,
// without its port) is a loopback equivalent.
func isLoopbackHost(host string) bool {
	h := strings.ToLower(host)
	switch h {
	case "localhost", "127.0.0.1", "::1", "[::1]":
		return true
	}
	if strings.HasSuffix(h, ".localhost") {
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

func splitHostPort(hostHeader string) (host, port string) {
	h, p, err := net.SplitHostPort(hostHeader)
	if err != nil {
		return hostHeader, ""
	}
	return h, p
}

// checkOrigin enforces the upgrade gate's first step: if an Origin header is present, its
// host and port must match the Host header (after loopback normalization).
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originHost, originPort := originHostPort(origin)
	hostHost, hostPort := splitHostPort(r.Host)

	if isLoopbackHost(originHost) && isLoopbackHost(hostHost) {
		return originPort == hostPort
	}
	return originHost == hostHost && originPort == hostPort
}

func originHostPort(origin string) (host, port string) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	host, port, err := net.SplitHostPort(trimmed)
	if err != nil {
		return trimmed, ""
	}
	return host, port
}

// isLocalConnection implements the upgrade gate's second step: no behind-proxy override, no
// proxy headers, a loopback Host (if any), and a loopback TCP peer.
func isLocalConnection(r *http.Request) bool {
	if os.Getenv("MOLTIS_BEHIND_PROXY") != "" {
		return false
	}
	for _, h := range proxyHeaders {
		if r.Header.Get(h) != "" {
			return false
		}
	}
	if r.Host != "" {
		hostHost, _ := splitHostPort(r.Host)
		if !isLoopbackHost(hostHost) {
			return false
		}
	}
	peerHost, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peerHost = r.RemoteAddr
	}
	return isLoopbackHost(peerHost)
}

// Authorize runs the full upgrade gate, returning an HTTP status code: 0
// means proceed with the upgrade, otherwise the caller must reject with
// that status.
func Authorize(r *http.Request, auth AuthChecker) int {
	if !checkOrigin(r) {
		return http.StatusForbidden
	}
	local := isLocalConnection(r)
	if auth.CheckAuth(r.Header, local) != AuthAllowed {
		return http.StatusUnauthorized
	}
	return 0
}
