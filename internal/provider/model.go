// Package provider implements the namespaced model registry: lookup,
// fallback ordering, registration, the rebuild pipeline, and capability
// tables, grounded on the teacher's internal/infra/llm
// Factory pattern.
package provider

import "strings"

// ModelInfo is the registry's public-facing catalog entry.
type ModelInfo struct {
	ID          string // namespaced: "provider::raw"
	Provider    string
	DisplayName string
	CreatedAt   *int64 // unix seconds, nil if unknown
}

// NamespacedModelID returns "provider::raw", leaving an already-namespaced
// id untouched.
func NamespacedModelID(provider, model string) string {
	if strings.Contains(model, "::") {
		return model
	}
	return provider + "::" + model
}

// RawModelID returns the suffix after the last "::", or the whole string if
// unnamespaced.
func RawModelID(id string) string {
	if idx := strings.LastIndex(id, "::"); idx >= 0 {
		return id[idx+2:]
	}
	return id
}

// CapabilityModelID strips RawModelID's leading "vendor/" path segment so
// capability tables can key off a bare model name regardless of routing
// prefix (e.g. "openrouter::anthropic/claude-3" -> "claude-3").
func CapabilityModelID(id string) string {
	raw := RawModelID(id)
	if idx := strings.Index(raw, "/"); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}

// subscriptionProviders are preferred in lookup ties.
var subscriptionProviders = map[string]bool{
	"openai-codex":   true,
	"github-copilot": true,
}

// SubscriptionPreferenceRank is 0 for subscription providers, 1 otherwise.
func SubscriptionPreferenceRank(providerName string) int {
	if subscriptionProviders[providerName] {
		return 0
	}
	return 1
}

// IsSubscriptionProvider reports whether providerName is subscription-backed.
func IsSubscriptionProvider(providerName string) bool {
	return subscriptionProviders[providerName]
}
