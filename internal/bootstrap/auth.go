package bootstrap

import (
	"net/http"
	"strings"

	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/terminal"
)

// tokenAuthChecker is the terminal upgrade gate's AuthChecker, backed by the
// [auth] config block: a local connection is always allowed, a remote one
// must present the configured bearer token. With auth disabled, every
// connection (local or not) is allowed — the operator has opted out.
type tokenAuthChecker struct {
	cfg config.AuthConfig
}

func newTokenAuthChecker(cfg config.AuthConfig) *tokenAuthChecker {
	return &tokenAuthChecker{cfg: cfg}
}

func (a *tokenAuthChecker) CheckAuth(headers http.Header, isLocal bool) terminal.AuthDecision {
	if !a.cfg.Enabled || isLocal {
		return terminal.AuthAllowed
	}
	if a.cfg.Token == "" {
		return terminal.AuthDenied
	}
	got := strings.TrimPrefix(headers.Get("Authorization"), "Bearer ")
	if got != "" && got == a.cfg.Token {
		return terminal.AuthAllowed
	}
	return terminal.AuthDenied
}
