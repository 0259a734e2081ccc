// Package browser implements a pooled, per-session headless browser driver
// with host and sandboxed launch paths and idle/memory-pressure eviction.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/moltislabs/moltis/internal/httpclient"
)

type devToolsVersion struct {
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// resolveCDPURL normalizes a CDP endpoint hint into a concrete WebSocket
// URL: a ws(s):// URL passes through unchanged; an http(s) URL, bare
// host:port, or bare port number is treated as a DevTools HTTP endpoint and
// resolved via GET /json/version.
func resolveCDPURL(ctx context.Context, hint string) (string, error) {
	if strings.HasPrefix(hint, "ws://") || strings.HasPrefix(hint, "wss://") {
		return hint, nil
	}

	base := hint
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		if _, err := strconv.Atoi(base); err == nil {
			base = "http://127.0.0.1:" + base
		} else {
			base = "http://" + base
		}
	}

	versionURL, err := url.JoinPath(base, "json", "version")
	if err != nil {
		return "", fmt.Errorf("build devtools version url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpclient.Shared().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch devtools version: %w", err)
	}
	defer resp.Body.Close()

	body, err := httpclient.ReadAllWithLimit(resp.Body, httpclient.DefaultMaxResponseBytes)
	if err != nil {
		return "", err
	}

	var v devToolsVersion
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("parse devtools version response: %w", err)
	}
	if v.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("devtools endpoint %s returned no webSocketDebuggerUrl", base)
	}
	return v.WebSocketDebuggerURL, nil
}
