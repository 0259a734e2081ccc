package terminal

import (
	"net/http"
	"testing"
)

func TestIsLoopbackHost(t *testing.T) {
	cases := map[string]bool{
		"localhost":       true,
		"127.0.0.1":       true,
		"::1":             true,
		"app.localhost":   true,
		"example.com":     false,
		"10.0.0.5":        false,
	}
	for host, want := range cases {
		if got := isLoopbackHost(host); got != want {
			t.Errorf("isLoopbackHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestCheckOriginMatchingHost(t *testing.T) {
	r := &http.Request{Header: http.Header{"Origin": []string{"http://localhost:8080"}}, Host: "localhost:8080"}
	if !checkOrigin(r) {
		t.Fatal("expected matching loopback origin/host to pass")
	}
}

func TestCheckOriginMismatchRejected(t *testing.T) {
	r := &http.Request{Header: http.Header{"Origin": []string{"http://evil.example.com"}}, Host: "localhost:8080"}
	if checkOrigin(r) {
		t.Fatal("expected mismatched origin to fail")
	}
}

func TestCheckOriginAbsentPasses(t *testing.T) {
	r := &http.Request{Header: http.Header{}, Host: "localhost:8080"}
	if !checkOrigin(r) {
		t.Fatal("expected absent Origin header to pass through")
	}
}

func TestIsLocalConnectionRejectsProxyHeaders(t *testing.T) {
	r := &http.Request{
		Header:     http.Header{"X-Forwarded-For": []string{"1.2.3.4"}},
		Host:       "localhost",
		RemoteAddr: "127.0.0.1:12345",
	}
	if isLocalConnection(r) {
		t.Fatal("expected a proxy header to make the connection non-local")
	}
}

func TestIsLocalConnectionAcceptsLoopbackPeer(t *testing.T) {
	r := &http.Request{
		Header:     http.Header{},
		Host:       "localhost",
		RemoteAddr: "127.0.0.1:12345",
	}
	if !isLocalConnection(r) {
		t.Fatal("expected loopback host+peer to be local")
	}
}

type fakeAuth struct{ decision AuthDecision }

func (f fakeAuth) CheckAuth(headers http.Header, isLocal bool) AuthDecision { return f.decision }

func TestAuthorizeRejectsOriginMismatch(t *testing.T) {
	r := &http.Request{Header: http.Header{"Origin": []string{"http://evil.example.com"}}, Host: "localhost:8080"}
	if status := Authorize(r, fakeAuth{decision: AuthAllowed}); status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestAuthorizeRejectsDeniedAuth(t *testing.T) {
	r := &http.Request{Header: http.Header{}, Host: "localhost:8080", RemoteAddr: "127.0.0.1:1"}
	if status := Authorize(r, fakeAuth{decision: AuthDenied}); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestAuthorizePassesWhenAllowed(t *testing.T) {
	r := &http.Request{Header: http.Header{}, Host: "localhost:8080", RemoteAddr: "127.0.0.1:1"}
	if status := Authorize(r, fakeAuth{decision: AuthAllowed}); status != 0 {
		t.Fatalf("expected 0 (proceed), got %d", status)
	}
}
