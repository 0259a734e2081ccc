package browser

import (
	"context"
	"fmt"

	"github.com/moltislabs/moltis/internal/sandbox"
)

// SandboxLaunchConfig carries the knobs for starting a browser inside a
// sandbox backend rather than the host process.
type SandboxLaunchConfig struct {
	Router     *sandbox.Router
	Image      string // BrowserContainer image; empty uses the router's default
	CDPPort    int
}

// launchSandboxed ensures a BrowserContainer is running for sessionKey and
// connects to its exposed CDP-like WebSocket endpoint. The container itself
// is just another sandbox identified by sessionKey, reusing the same
// EnsureReady/Exec/Cleanup contract as any other sandboxed workload; the
// browser process inside it is started by the container's entrypoint, so
// the only extra step here is discovering its published CDP port.
func launchSandboxed(ctx context.Context, sessionKey string, cfg SandboxLaunchConfig) (*Driver, func(), error) {
	if cfg.Router == nil {
		return nil, nil, fmt.Errorf("sandboxed browser launch requires a sandbox router")
	}

	if err := cfg.Router.EnsureReady(ctx, sessionKey, cfg.Image); err != nil {
		return nil, nil, fmt.Errorf("ensure browser container ready: %w", err)
	}

	port := cfg.CDPPort
	if port == 0 {
		port = 9222
	}
	cdpHint := fmt.Sprintf("127.0.0.1:%d", port)
	wsURL, err := resolveCDPURL(ctx, cdpHint)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve sandboxed browser cdp endpoint: %w", err)
	}

	driver, err := Dial(ctx, wsURL)
	if err != nil {
		return nil, nil, err
	}

	teardown := func() {
		_ = cfg.Router.CleanupSession(context.Background(), sessionKey)
	}
	return driver, teardown, nil
}
