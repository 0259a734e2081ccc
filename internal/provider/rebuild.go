package provider

import (
	"context"

	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/telemetry"
)

// Builder constructs a Handle for one config-driven provider entry. Concrete
// builders live in internal/provider/providers; Rebuild takes them as plain
// function values so this package stays free of any vendor SDK import.
type Builder func(name string, entry config.ProviderEntry) (Handle, ModelInfo, error)

// CompatibleProviderSpec describes one OpenAI-compatible table entry: its
// config key, credential env vars, default URL, static catalog, and
// whether the vendor's /models endpoint is usable.
type CompatibleProviderSpec struct {
	ConfigKey              string
	APIKeyEnvVar           string
	BaseURLEnvVar          string
	DefaultURL             string
	StaticModels           []string
	SupportsModelDiscovery bool
	Build                  Builder
}

// RebuildInputs bundles everything the six-step pipeline needs, keeping
// Rebuild itself free of concrete vendor SDK imports (those live in
// internal/provider/providers and are injected here by cmd/moltisd's wiring).
type RebuildInputs struct {
	Config              config.ProvidersConfig
	FirstParty           []Builder                // step 1: Anthropic, then OpenAI-style
	Compatible           []CompatibleProviderSpec  // step 2
	SecondaryBackends    []Builder                 // step 4: tool-call-free, always last before OAuth/local
	DiscoverySources     []DynamicModelDiscovery   // step 5
	LocalProviders       []Builder                 // step 6
	LocalProvidersEnabled bool
}

// Rebuild runs the strict six-step pipeline: first-party
// HTTPS providers, the OpenAI-compatible table, user-defined custom-*
// blocks, optional secondary backends, OAuth subscription providers, then
// local GGUF/MLX providers. At each step, if the provider's namespaced id is
// already present, registration is skipped (Registry.Register no-ops on
// conflict) so tool-capable handles registered earlier always shadow
// tool-free fallbacks registered later. Registry build never fails:
// individual provider blocks that error are logged and skipped.
func Rebuild(ctx context.Context, in RebuildInputs) *Registry {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanProviderRebuild)
	defer telemetry.End(span, nil)

	r := New()

	// Step 1: first-party HTTPS providers.
	for _, build := range in.FirstParty {
		registerFromBuilder(r, build, "", config.ProviderEntry{})
	}

	// Step 2: OpenAI-compatible table.
	for _, spec := range in.Compatible {
		entry, ok := in.Config.Providers[spec.ConfigKey]
		if !ok || !entry.Enabled {
			continue
		}
		registerFromBuilder(r, spec.Build, spec.ConfigKey, entry)
	}

	// Step 3: user-defined custom-* providers, requiring both api_key and base_url.
	for name, entry := range in.Config.Providers {
		if !isCustomProviderName(name) || !entry.Enabled {
			continue
		}
		if entry.APIKey == "" || entry.BaseURL == "" {
			log.Warn("skipping custom provider %s: requires both api_key and base_url", name)
			continue
		}
		registerFromBuilder(r, customOpenAICompatibleBuilder, name, entry)
	}

	// Step 4: optional secondary backends — always last among static steps
	// so they never outrank a tool-capable registration.
	for _, build := range in.SecondaryBackends {
		registerFromBuilder(r, build, "", config.ProviderEntry{})
	}

	// Step 5: OAuth-based subscription providers.
	for _, source := range in.DiscoverySources {
		if err := RefreshFromDiscovery(ctx, r, source); err != nil {
			log.Warn("discovery source %s failed during rebuild: %v", source.Name(), err)
		}
	}

	// Step 6: local GGUF/MLX providers, if enabled.
	if in.LocalProvidersEnabled {
		for _, build := range in.LocalProviders {
			registerFromBuilder(r, build, "", config.ProviderEntry{})
		}
	}

	return r
}

func registerFromBuilder(r *Registry, build Builder, name string, entry config.ProviderEntry) {
	if build == nil {
		return
	}
	handle, info, err := build(name, entry)
	if err != nil {
		log.Warn("provider %s failed to register, skipping: %v", name, err)
		return
	}
	if _, exists := r.providers[NamespacedModelID(info.Provider, info.ID)]; exists {
		return
	}
	r.Register(info, handle)
}

func isCustomProviderName(name string) bool {
	return len(name) > 7 && name[:7] == "custom-"
}

// customOpenAICompatibleBuilder is overridden by internal/provider/providers
// at wiring time (cmd/moltisd's bootstrap sets the real implementation);
// left nil-safe here so this package has zero vendor SDK imports.
var customOpenAICompatibleBuilder Builder

// SetCustomProviderBuilder lets internal/bootstrap inject the real
// OpenAI-compatible builder for user-defined custom-* providers.
func SetCustomProviderBuilder(b Builder) { customOpenAICompatibleBuilder = b }
