package bootstrap

import (
	"context"
	"net/http"

	"github.com/moltislabs/moltis/internal/browser"
	"github.com/moltislabs/moltis/internal/channel"
	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/httpapi"
	"github.com/moltislabs/moltis/internal/keystore"
	"github.com/moltislabs/moltis/internal/provider"
	"github.com/moltislabs/moltis/internal/sandbox"
	"github.com/moltislabs/moltis/internal/terminal"
)

// Gateway bundles every wired subsystem — the shared state Wire assembles
// (the channel sink itself only holds a deferred
// Once[*provider.Container] for the registry), and what cmd/moltisd's
// serve command hands to httpapi.NewRouter.
type Gateway struct {
	Config        config.MoltisConfig
	Registry      *provider.Container
	SandboxRouter *sandbox.Router
	BrowserPool   *browser.Pool
	ChannelSink   *channel.Sink
	ChannelStore  *channel.Store
	KeyStore      *keystore.Store
	TerminalCfg   terminal.Config
	Degraded      *Degraded

	shutdownTelemetry func(context.Context) error
}

// Handler builds the gateway's external HTTP surface.
func (g *Gateway) Handler() http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Sink:          g.ChannelSink,
		Registry:      g.Registry,
		SandboxRouter: g.SandboxRouter,
		BrowserPool:   g.BrowserPool,
		TerminalCfg:   g.TerminalCfg,
	})
}

// Shutdown releases every backgroundable resource: flushes pending spans,
// tears down every live browser instance, and closes the channel store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.BrowserPool.Shutdown()
	var err error
	if closeErr := g.ChannelStore.Close(); closeErr != nil {
		err = closeErr
	}
	if g.shutdownTelemetry != nil {
		if shutdownErr := g.shutdownTelemetry(ctx); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}
	return err
}
