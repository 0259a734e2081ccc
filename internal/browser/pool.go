package browser

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/moltislabs/moltis/internal/errkit"
	"github.com/moltislabs/moltis/internal/logging"
	"github.com/moltislabs/moltis/internal/telemetry"
)

var poolLog = logging.NewComponentLogger("BrowserPool")

// PoolConfig is the resolved subset of BrowserToolConfig the pool consults
// on every admission decision.
type PoolConfig struct {
	MaxInstances       int
	MemoryLimitPercent int
	IdleTimeout        time.Duration
	ViewportWidth      int
	ViewportHeight     int

	Host    HostLaunchConfig
	Sandbox SandboxLaunchConfig
}

// Pool admits at most one Instance per session id, subject to a hard
// instance cap and a host memory ceiling, and reclaims idle instances when
// CleanupIdle runs (admission calls it when a limit is reached; there is no
// background sweeper).
type Pool struct {
	cfg PoolConfig

	mu        sync.Mutex
	instances map[string]*Instance
}

func NewPool(cfg PoolConfig) *Pool {
	return &Pool{cfg: cfg, instances: make(map[string]*Instance)}
}

func generateSessionID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "browser-" + hex.EncodeToString(buf), nil
}

// GetOrCreate returns sessionID unchanged if it already names a live
// instance (sandboxedFlag is not re-evaluated in that case). Otherwise it
// admits a new instance, generating an id if sessionID is empty.
func (p *Pool) GetOrCreate(ctx context.Context, sessionID string, sandboxedFlag bool) (string, error) {
	if sessionID != "" {
		p.mu.Lock()
		_, exists := p.instances[sessionID]
		p.mu.Unlock()
		if exists {
			return sessionID, nil
		}
	} else {
		generated, err := generateSessionID()
		if err != nil {
			return "", fmt.Errorf("generate session id: %w", err)
		}
		sessionID = generated
	}

	if err := p.admit(ctx); err != nil {
		return "", err
	}

	instance, err := p.launch(ctx, sessionID, sandboxedFlag)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.instances[sessionID] = instance
	p.mu.Unlock()
	return sessionID, nil
}

// admit enforces the hard instance cap, then the memory ceiling, each with
// one idle sweep and a re-check before failing.
func (p *Pool) admit(ctx context.Context) error {
	if p.cfg.MaxInstances > 0 {
		p.mu.Lock()
		atCap := len(p.instances) >= p.cfg.MaxInstances
		p.mu.Unlock()
		if atCap {
			p.CleanupIdle(ctx)
			p.mu.Lock()
			atCap = len(p.instances) >= p.cfg.MaxInstances
			p.mu.Unlock()
			if atCap {
				poolLog.Warn("pool exhausted at hard cap of %d instances", p.cfg.MaxInstances)
				return &errkit.PoolExhaustedError{Reason: fmt.Sprintf("at hard cap of %d instances", p.cfg.MaxInstances)}
			}
		}
	}

	if p.cfg.MemoryLimitPercent > 0 {
		used := hostMemoryUsedPercent()
		if used >= float64(p.cfg.MemoryLimitPercent) {
			p.CleanupIdle(ctx)
			used = hostMemoryUsedPercent()
			if used >= float64(p.cfg.MemoryLimitPercent) {
				return &errkit.PoolExhaustedError{Reason: fmt.Sprintf("host memory at %.1f%%, ceiling %d%%", used, p.cfg.MemoryLimitPercent)}
			}
		}
	}

	return nil
}

func (p *Pool) launch(ctx context.Context, sessionID string, sandboxedFlag bool) (inst *Instance, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanBrowserLaunch,
		attribute.String(telemetry.AttrSessionKey, sessionID),
		attribute.Bool("moltis.browser.sandboxed", sandboxedFlag),
	)
	defer func() { telemetry.End(span, err) }()

	if sandboxedFlag {
		driver, teardown, launchErr := launchSandboxed(ctx, sessionID, p.cfg.Sandbox)
		if launchErr != nil {
			err = launchErr
			return nil, err
		}
		return newInstance(sessionID, driver, teardown), nil
	}

	driver, teardown, launchErr := launchHost(ctx, p.cfg.Host)
	if launchErr != nil {
		err = launchErr
		return nil, err
	}
	return newInstance(sessionID, driver, teardown), nil
}

// GetPage returns sessionID's cached main page, creating it on first use.
func (p *Pool) GetPage(ctx context.Context, sessionID string) (*Page, error) {
	p.mu.Lock()
	instance, ok := p.instances[sessionID]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no browser instance for session %s", sessionID)
	}
	return instance.page(ctx, p.cfg.ViewportWidth, p.cfg.ViewportHeight)
}

// InstanceSnapshot is a read-only view of one pooled instance for
// observability endpoints.
type InstanceSnapshot struct {
	SessionID string
	IdleSince time.Time
}

// Snapshot lists every currently pooled instance.
func (p *Pool) Snapshot() []InstanceSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]InstanceSnapshot, 0, len(p.instances))
	for _, inst := range p.instances {
		out = append(out, InstanceSnapshot{SessionID: inst.SessionID, IdleSince: inst.idleSince()})
	}
	return out
}

// CloseSession removes sessionID from the pool and tears down its instance.
func (p *Pool) CloseSession(sessionID string) {
	p.mu.Lock()
	instance, ok := p.instances[sessionID]
	if ok {
		delete(p.instances, sessionID)
	}
	p.mu.Unlock()
	if ok {
		instance.close()
	}
}

// CleanupIdle closes every instance that has been idle longer than the
// configured timeout. It uses try-lock rather than a blocking lock so a
// sweep never stalls behind an instance currently in use (e.g. mid GetPage)
// — that instance is just skipped and reconsidered on the next sweep. The
// fan-out across candidate instances runs concurrently via errgroup.
func (p *Pool) CleanupIdle(ctx context.Context) {
	if p.cfg.IdleTimeout <= 0 {
		return
	}

	p.mu.Lock()
	candidates := make([]*Instance, 0, len(p.instances))
	for _, inst := range p.instances {
		candidates = append(candidates, inst)
	}
	p.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, inst := range candidates {
		inst := inst
		g.Go(func() error {
			if !inst.tryReap(p.cfg.IdleTimeout) {
				return nil
			}
			p.mu.Lock()
			if current, ok := p.instances[inst.SessionID]; ok && current == inst {
				delete(p.instances, inst.SessionID)
			}
			p.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// Shutdown closes every live instance.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.instances))
	for id := range p.instances {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.CloseSession(id)
	}
}
