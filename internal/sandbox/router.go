package sandbox

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/moltislabs/moltis/internal/logging"
	"github.com/moltislabs/moltis/internal/telemetry"
)

var log = logging.NewComponentLogger("SandboxRouter")

// Router owns a single backend plus the per-session override state that
// lets a chat session opt in or out of sandboxing independently of the
// global config mode, and override its image independently of the global
// default.
type Router struct {
	backend Backend

	mode         string // off | non-main | all
	defaultImage string
	globalImage  string // runtime override, empty if unset

	mu         sync.Mutex
	sandboxed  map[string]bool
	imageByKey map[string]string

	events chan Event
}

// NewRouter builds a router around backend, using mode as the fallback
// sandboxed/not-sandboxed decision and defaultImage as the config-level
// image when no override applies.
func NewRouter(backend Backend, mode, defaultImage string) *Router {
	return &Router{
		backend:      backend,
		mode:         mode,
		defaultImage: defaultImage,
		sandboxed:    make(map[string]bool),
		imageByKey:   make(map[string]string),
		events:       make(chan Event, 32),
	}
}

// Events exposes the router's broadcast channel. Publishing never blocks:
// a full channel drops the event rather than stalling the caller.
func (r *Router) Events() <-chan Event { return r.events }

func (r *Router) publish(ev Event) {
	select {
	case r.events <- ev:
	default:
		log.Warn("dropping sandbox event for %s: %s, subscriber too slow", ev.SessionKey, ev.Kind.String())
	}
}

// SetSessionOverride pins sessionKey's sandboxed decision, taking priority
// over the configured mode until cleared by CleanupSession.
func (r *Router) SetSessionOverride(sessionKey string, sandboxed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sandboxed[sessionKey] = sandboxed
}

// SetSessionImage pins sessionKey's resolved image, taking priority over
// both the runtime global override and the config default.
func (r *Router) SetSessionImage(sessionKey, image string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imageByKey[sessionKey] = image
}

// SetGlobalImageOverride sets (or clears, with "") a runtime-wide image
// override that sits between per-session overrides and the config default.
func (r *Router) SetGlobalImageOverride(image string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globalImage = image
}

// IsSandboxed reports whether sessionKey should run inside a sandbox: a
// per-session override wins outright; otherwise the configured mode
// decides.
func (r *Router) IsSandboxed(sessionKey string) bool {
	r.mu.Lock()
	override, ok := r.sandboxed[sessionKey]
	r.mu.Unlock()
	if ok {
		return override
	}
	return ModeFor(r.mode, sessionKey)
}

// SandboxIDFor derives the backend-facing identifier for a session key.
func (r *Router) SandboxIDFor(sessionKey string) string {
	return SanitizeSessionKey(sessionKey)
}

// ResolveImage picks the image to launch for sessionKey, honoring the
// priority order: an explicit skill image, then a per-session override,
// then the runtime global override, then the config default.
func (r *Router) ResolveImage(sessionKey string, skillImage string) string {
	if skillImage != "" {
		return skillImage
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if img, ok := r.imageByKey[sessionKey]; ok && img != "" {
		return img
	}
	if r.globalImage != "" {
		return r.globalImage
	}
	if r.defaultImage != "" {
		return r.defaultImage
	}
	return DefaultImage
}

// EnsureReady provisions sessionKey's sandbox, publishing Provisioning
// before the backend call and Provisioned/ProvisionFailed after.
func (r *Router) EnsureReady(ctx context.Context, sessionKey string, skillImage string) error {
	id := r.SandboxIDFor(sessionKey)
	image := r.ResolveImage(sessionKey, skillImage)

	r.publish(Event{SessionKey: sessionKey, Kind: Provisioning})
	if err := r.backend.EnsureReady(ctx, id, image); err != nil {
		r.publish(Event{SessionKey: sessionKey, Kind: ProvisionFailed, Err: err})
		return err
	}
	r.publish(Event{SessionKey: sessionKey, Kind: Provisioned})
	return nil
}

// Exec runs command inside sessionKey's sandbox.
func (r *Router) Exec(ctx context.Context, sessionKey, command string, opts ExecOptions) (ExecResult, error) {
	taskID := ulid.Make().String()
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSandboxExec,
		attribute.String(telemetry.AttrSessionKey, sessionKey),
		attribute.String(telemetry.AttrSandbox, r.backend.BackendName()),
		attribute.String(telemetry.AttrTaskID, taskID),
	)
	result, err := r.backend.Exec(ctx, r.SandboxIDFor(sessionKey), command, opts)
	result.TaskID = taskID
	telemetry.End(span, err)
	return result, err
}

// BuildImage delegates to the backend, returning (nil, nil) for backends
// without an image-building notion.
func (r *Router) BuildImage(ctx context.Context, base string, packages []string) (*BuiltImage, error) {
	return r.backend.BuildImage(ctx, base, packages)
}

// CleanupSession tears down sessionKey's sandbox and drops its overrides.
func (r *Router) CleanupSession(ctx context.Context, sessionKey string) error {
	id := r.SandboxIDFor(sessionKey)
	err := r.backend.Cleanup(ctx, id)

	r.mu.Lock()
	delete(r.sandboxed, sessionKey)
	delete(r.imageByKey, sessionKey)
	r.mu.Unlock()

	return err
}

// BackendName reports the underlying backend's identity, for diagnostics.
func (r *Router) BackendName() string { return r.backend.BackendName() }

// ListCachedImages lists locally built moltis-sandbox:* tags, for the
// /sandbox command. Backends that don't implement ImageLister report none.
func (r *Router) ListCachedImages(ctx context.Context) ([]string, error) {
	lister, ok := r.backend.(ImageLister)
	if !ok {
		return nil, nil
	}
	return lister.ListCachedImages(ctx)
}
