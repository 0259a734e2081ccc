package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/moltislabs/moltis/internal/browser"
	"github.com/moltislabs/moltis/internal/channel"
	"github.com/moltislabs/moltis/internal/channel/backends"
	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/keystore"
	"github.com/moltislabs/moltis/internal/logging"
	"github.com/moltislabs/moltis/internal/provider"
	"github.com/moltislabs/moltis/internal/sandbox"
	"github.com/moltislabs/moltis/internal/syncutil"
	"github.com/moltislabs/moltis/internal/telemetry"
	"github.com/moltislabs/moltis/internal/terminal"
)

var log = logging.NewComponentLogger("Bootstrap")

// Wire runs the staged bootstrap sequence over cfg: the channel sink is
// constructed first, before the provider registry exists, holding a
// syncutil.Once it only resolves once a message actually needs a model —
// the rebuild that fills it runs several stages later. Then comes
// telemetry, the provider registry's six-step rebuild, the sandbox router,
// the browser pool, the channel sink's configured backends started in the
// background, and the terminal upgrade gate. chat is the external
// agent-runtime collaborator the channel sink dispatches every inbound
// message to; keyStorePath is where provider credentials set via
// `moltisd keys` live.
func Wire(ctx context.Context, cfg config.MoltisConfig, chat channel.ChatService, keyStorePath string) (*Gateway, error) {
	degraded := NewDegraded()
	gw := &Gateway{Config: cfg, Degraded: degraded}

	registryRef := syncutil.NewOnce[*provider.Container]()
	var sandboxRouter *sandbox.Router
	var browserPool *browser.Pool
	var channelStore *channel.Store
	var keyStore *keystore.Store

	stages := []Stage{
		{
			Name:     "channel-sink",
			Required: true,
			Init: func() error {
				var err error
				channelStore, err = channel.Open(cfg.Memory.Path)
				if err != nil {
					return fmt.Errorf("open channel store: %w", err)
				}
				gw.ChannelSink = channel.NewSink(channelStore, chat, registryRef, nil)
				gw.ChannelStore = channelStore
				return nil
			},
		},
		{
			Name:     "telemetry",
			Required: false,
			Init: func() error {
				shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
				if err != nil {
					return err
				}
				gw.shutdownTelemetry = shutdown
				return nil
			},
		},
		{
			Name:     "keystore",
			Required: true,
			Init: func() error {
				var err error
				keyStore, err = keystore.Open(keyStorePath)
				return err
			},
		},
		{
			Name:     "provider-registry",
			Required: true,
			Init: func() error {
				gw.Registry = provider.NewContainer(NewStandaloneRegistry(ctx, cfg.Providers))
				registryRef.Set(gw.Registry)
				return nil
			},
		},
		{
			Name:     "sandbox-router",
			Required: true,
			Init: func() error {
				sandboxCfg := cfg.Tools.Exec.Sandbox
				sandboxRouter = sandbox.NewRouter(selectSandboxBackend(sandboxCfg), sandboxCfg.Mode, sandboxCfg.Image)
				gw.SandboxRouter = sandboxRouter
				gw.ChannelSink.SetSandboxRouter(sandboxRouter)
				return nil
			},
		},
		{
			Name:     "browser-pool",
			Required: false,
			Init: func() error {
				browserCfg := cfg.Tools.Browser
				browserPool = browser.NewPool(browser.PoolConfig{
					MaxInstances:       browserCfg.MaxInstances,
					MemoryLimitPercent: browserCfg.MemoryLimitPercent,
					IdleTimeout:        time.Duration(browserCfg.IdleTimeoutSeconds) * time.Second,
					ViewportWidth:      browserCfg.ViewportWidth,
					ViewportHeight:     browserCfg.ViewportHeight,
					Host: browser.HostLaunchConfig{
						BinaryPath:     browserCfg.BinaryPath,
						DiscoveryHints: []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable"},
						UserAgent:      browserCfg.UserAgent,
						RequestTimeout: time.Duration(browserCfg.RequestTimeoutMs) * time.Millisecond,
					},
					Sandbox: browser.SandboxLaunchConfig{Router: sandboxRouter},
				})
				gw.BrowserPool = browserPool
				return nil
			},
		},
		{
			Name:     "channel-backends",
			Required: false,
			Init: func() error {
				return startChannelBackends(ctx, cfg.Channels, gw.ChannelSink)
			},
		},
		{
			Name:     "terminal-gate",
			Required: true,
			Init: func() error {
				gw.TerminalCfg = terminal.Config{
					Auth:         newTokenAuthChecker(cfg.Auth),
					UseTmux:      true,
					Cols:         80,
					Rows:         24,
					PromptSymbol: "$",
				}
				return nil
			},
		},
	}

	if err := RunStages(stages, degraded, log); err != nil {
		return nil, err
	}
	gw.KeyStore = keyStore
	if !degraded.IsEmpty() {
		log.Warn("bootstrap completed in degraded mode: %v", degraded.Map())
	}
	return gw, nil
}

// startChannelBackends registers and starts one backend per enabled
// [channels.*] entry. Telegram/Discord run their own long-polling/gateway
// loop in the background; each inbound message is handed to sink.Dispatch.
func startChannelBackends(ctx context.Context, channels map[string]config.ChannelConfig, sink *channel.Sink) error {
	for name, entry := range channels {
		if !entry.Enabled {
			continue
		}
		backend, err := buildChannelBackend(entry)
		if err != nil {
			log.Warn("channel %s: %v, skipping", name, err)
			continue
		}
		sink.RegisterBackend(backend, entry.Model)

		runner := backend
		channelName := name
		go func() {
			if err := runner.Run(ctx, func(ctx context.Context, msg backends.InboundMessage) {
				if err := sink.Dispatch(ctx, msg); err != nil {
					log.Error("channel %s dispatch failed: %v", channelName, err)
				}
			}); err != nil && ctx.Err() == nil {
				log.Error("channel %s backend exited: %v", channelName, err)
			}
		}()
	}
	return nil
}

type runnableBackend interface {
	backends.Backend
	Run(ctx context.Context, handler backends.InboundHandler) error
}

func buildChannelBackend(entry config.ChannelConfig) (runnableBackend, error) {
	switch entry.Type {
	case "telegram":
		return backends.NewTelegram(entry.Token)
	case "discord":
		return backends.NewDiscord(entry.Token)
	default:
		return nil, fmt.Errorf("unknown channel type %q", entry.Type)
	}
}
