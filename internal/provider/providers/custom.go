package providers

import (
	"fmt"

	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/provider"
)

// CustomBuilder builds an OpenAI-compatible handle for a user-defined
// "providers.custom-*" config block, requiring both
// api_key and base_url — Rebuild has already filtered those out before
// calling this.
func CustomBuilder(name string, entry config.ProviderEntry) (provider.Handle, provider.ModelInfo, error) {
	if len(entry.Models) == 0 {
		return nil, provider.ModelInfo{}, fmt.Errorf("custom provider %s: no models configured", name)
	}
	model := entry.Models[0]
	handle := NewOpenAICompatible(name, model, entry.APIKey, entry.BaseURL)
	info := provider.ModelInfo{ID: model, Provider: name, DisplayName: entry.Alias}
	return handle, info, nil
}

// CompatibleCatalog is the OpenAI-compatible vendor table (step
// 2): every entry exposes an OpenAI-compatible /chat/completions surface
// pointed at a custom base URL.
var CompatibleCatalog = []provider.CompatibleProviderSpec{
	{
		ConfigKey:              "gemini",
		APIKeyEnvVar:           "GEMINI_API_KEY",
		BaseURLEnvVar:          "GEMINI_BASE_URL",
		DefaultURL:             "https://generativelanguage.googleapis.com/v1beta",
		StaticModels:           []string{"gemini-2.0-flash", "gemini-1.5-pro"},
		SupportsModelDiscovery: false,
	},
	{
		ConfigKey:              "groq",
		APIKeyEnvVar:           "GROQ_API_KEY",
		BaseURLEnvVar:          "GROQ_BASE_URL",
		DefaultURL:             "https://api.groq.com/openai/v1",
		StaticModels:           []string{"llama-3.3-70b-versatile"},
		SupportsModelDiscovery: true,
	},
	{
		ConfigKey:              "xai",
		APIKeyEnvVar:           "XAI_API_KEY",
		BaseURLEnvVar:          "XAI_BASE_URL",
		DefaultURL:             "https://api.x.ai/v1",
		StaticModels:           []string{"grok-2-latest"},
		SupportsModelDiscovery: false,
	},
	{
		ConfigKey:              "mistral",
		APIKeyEnvVar:           "MISTRAL_API_KEY",
		BaseURLEnvVar:          "MISTRAL_BASE_URL",
		DefaultURL:             "https://api.mistral.ai/v1",
		StaticModels:           []string{"mistral-large-latest", "codestral-latest"},
		SupportsModelDiscovery: true,
	},
	{
		ConfigKey:              "openrouter",
		APIKeyEnvVar:           "OPENROUTER_API_KEY",
		BaseURLEnvVar:          "OPENROUTER_BASE_URL",
		DefaultURL:             "https://openrouter.ai/api/v1",
		StaticModels:           []string{"anthropic/claude-3.5-sonnet", "openai/gpt-4o"},
		SupportsModelDiscovery: true,
	},
	{
		ConfigKey:              "cerebras",
		APIKeyEnvVar:           "CEREBRAS_API_KEY",
		BaseURLEnvVar:          "CEREBRAS_BASE_URL",
		DefaultURL:             "https://api.cerebras.ai/v1",
		StaticModels:           []string{"llama3.1-70b"},
		SupportsModelDiscovery: false,
	},
	{
		ConfigKey:              "deepseek",
		APIKeyEnvVar:           "DEEPSEEK_API_KEY",
		BaseURLEnvVar:          "DEEPSEEK_BASE_URL",
		DefaultURL:             "https://api.deepseek.com/v1",
		StaticModels:           []string{"deepseek-chat", "deepseek-reasoner"},
		SupportsModelDiscovery: false,
	},
	{
		ConfigKey:              "moonshot",
		APIKeyEnvVar:           "MOONSHOT_API_KEY",
		BaseURLEnvVar:          "MOONSHOT_BASE_URL",
		DefaultURL:             "https://api.moonshot.cn/v1",
		StaticModels:           []string{"kimi-k2"},
		SupportsModelDiscovery: false,
	},
	{
		ConfigKey:              "glm",
		APIKeyEnvVar:           "GLM_API_KEY",
		BaseURLEnvVar:          "GLM_BASE_URL",
		DefaultURL:             "https://open.bigmodel.cn/api/paas/v4",
		StaticModels:           []string{"glm-4.6", "glm-4v"},
		SupportsModelDiscovery: false,
	},
	{
		ConfigKey:              "minimax",
		APIKeyEnvVar:           "MINIMAX_API_KEY",
		BaseURLEnvVar:          "MINIMAX_BASE_URL",
		DefaultURL:             "https://api.minimax.chat/v1",
		StaticModels:           []string{"abab6.5s-chat"},
		SupportsModelDiscovery: false,
	},
}

func init() {
	for i := range CompatibleCatalog {
		spec := &CompatibleCatalog[i]
		spec.Build = func(name string, entry config.ProviderEntry) (provider.Handle, provider.ModelInfo, error) {
			if len(entry.Models) == 0 {
				return nil, provider.ModelInfo{}, fmt.Errorf("%s: no models configured", name)
			}
			model := entry.Models[0]
			baseURL := entry.BaseURL
			if baseURL == "" {
				baseURL = spec.DefaultURL
			}
			handle := NewOpenAICompatible(name, model, entry.APIKey, baseURL)
			info := provider.ModelInfo{ID: model, Provider: name}
			return handle, info, nil
		}
	}
}
