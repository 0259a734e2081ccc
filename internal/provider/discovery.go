package provider

import "context"

// DynamicModelDiscovery is the polymorphism an OAuth-based subscription
// provider (Codex, Copilot) implements. Refresh contract:
// only if LiveModels succeeds does the registry remove the source's stale
// entries and insert the new ones; on failure the old entries remain
// intact (see RefreshFromDiscovery).
type DynamicModelDiscovery interface {
	Name() string
	IsEnabledAndAuthenticated(ctx context.Context) bool
	ConfiguredModels() []string
	ShouldFetchModels() bool
	// AvailableModels returns the cached model list without a network call.
	AvailableModels() []ModelInfo
	// LiveModels queries the provider's API; failure must not mutate any
	// cached state the caller can observe afterward.
	LiveModels(ctx context.Context) ([]ModelInfo, error)
	BuildProvider(modelID string) (Handle, error)
	DisplayName() string
}

// RefreshFromDiscovery implements the discovery refresh contract: on
// success, every model info previously registered under source's provider
// name is removed and replaced; on failure, nothing changes. Each removal
// and each insertion takes the registry lock separately, so the swap is not
// one atomic step: a concurrent reader of r can see the stale entries gone
// before all new ones are in.
func RefreshFromDiscovery(ctx context.Context, r *Registry, source DynamicModelDiscovery) error {
	if !source.IsEnabledAndAuthenticated(ctx) {
		return nil
	}
	live, err := source.LiveModels(ctx)
	if err != nil {
		log.Warn("dynamic discovery for %s failed, keeping stale entries: %v", source.Name(), err)
		return err
	}

	r.mu.Lock()
	var stale []string
	for _, info := range r.models {
		if info.Provider == source.Name() {
			stale = append(stale, info.ID)
		}
	}
	r.mu.Unlock()
	for _, id := range stale {
		r.Unregister(id)
	}

	for _, info := range live {
		handle, err := source.BuildProvider(info.ID)
		if err != nil {
			log.Warn("building handle for %s: %v", info.ID, err)
			continue
		}
		r.Register(info, handle)
	}
	return nil
}
