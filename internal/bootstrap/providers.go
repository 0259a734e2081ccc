package bootstrap

import (
	"context"

	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/provider"
	"github.com/moltislabs/moltis/internal/provider/providers"
)

// firstPartyBuilders returns the step-1 Anthropic builder, closing over
// cfg since FirstParty builders are invoked with a blank name/entry.
func firstPartyBuilders(cfg config.ProvidersConfig) []provider.Builder {
	entry, ok := cfg.Providers["anthropic"]
	if !ok || !entry.Enabled || len(entry.Models) == 0 {
		return nil
	}
	model := entry.Models[0]
	return []provider.Builder{
		func(string, config.ProviderEntry) (provider.Handle, provider.ModelInfo, error) {
			handle := providers.NewAnthropic(model, entry.APIKey, entry.BaseURL)
			return handle, provider.ModelInfo{ID: model, Provider: "anthropic", DisplayName: entry.Alias}, nil
		},
	}
}

// secondaryBuilders returns the step-4 tool-call-free backends — currently
// just Bedrock, which this gateway only ever registers as a fallback since
// internal/provider/providers.Bedrock reports SupportsTools() == false.
func secondaryBuilders(cfg config.ProvidersConfig) []provider.Builder {
	entry, ok := cfg.Providers["bedrock"]
	if !ok || !entry.Enabled || len(entry.Models) == 0 {
		return nil
	}
	model := entry.Models[0]
	region := entry.BaseURL // repurposed: region string, not a URL, for this entry
	return []provider.Builder{
		func(string, config.ProviderEntry) (provider.Handle, provider.ModelInfo, error) {
			handle, err := providers.NewBedrock(context.Background(), model, region)
			if err != nil {
				return nil, provider.ModelInfo{}, err
			}
			return handle, provider.ModelInfo{ID: model, Provider: "bedrock", DisplayName: entry.Alias}, nil
		},
	}
}

// localProviders returns the step-6 local GGUF/MLX builders — llama.cpp's
// local OpenAI-compatible server — gated by cfg.Providers["llamacpp"].Enabled.
func localProviders(cfg config.ProvidersConfig) ([]provider.Builder, bool) {
	entry, ok := cfg.Providers["llamacpp"]
	if !ok || !entry.Enabled || len(entry.Models) == 0 {
		return nil, false
	}
	model := entry.Models[0]
	baseURL := entry.BaseURL
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080/v1"
	}
	return []provider.Builder{
		func(string, config.ProviderEntry) (provider.Handle, provider.ModelInfo, error) {
			handle := providers.NewLlamaCPP(model, baseURL)
			return handle, provider.ModelInfo{ID: model, Provider: "llamacpp", DisplayName: entry.Alias}, nil
		},
	}, true
}

// NewStandaloneRegistry runs the same six-step rebuild Wire does, for CLI
// commands (`moltisd providers list`) that only need a read of the catalog.
func NewStandaloneRegistry(ctx context.Context, cfg config.ProvidersConfig) *provider.Registry {
	provider.SetCustomProviderBuilder(providers.CustomBuilder)
	localBuilders, localEnabled := localProviders(cfg)
	return provider.Rebuild(ctx, provider.RebuildInputs{
		Config:                cfg,
		FirstParty:            firstPartyBuilders(cfg),
		Compatible:            providers.CompatibleCatalog,
		SecondaryBackends:     secondaryBuilders(cfg),
		LocalProviders:        localBuilders,
		LocalProvidersEnabled: localEnabled,
	})
}
