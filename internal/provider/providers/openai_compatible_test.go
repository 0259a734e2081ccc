package providers

import "testing"

func TestNewOpenAICompatibleReportsNamespacedID(t *testing.T) {
	h := NewOpenAICompatible("mistral", "mistral-large-latest", "sk-test", "https://api.mistral.ai/v1")
	if h.ID() != "mistral::mistral-large-latest" {
		t.Errorf("expected namespaced id, got %s", h.ID())
	}
	if h.Provider() != "mistral" {
		t.Errorf("expected provider mistral, got %s", h.Provider())
	}
}

func TestCompatibleCatalogBuildersAreWired(t *testing.T) {
	for _, spec := range CompatibleCatalog {
		if spec.Build == nil {
			t.Errorf("%s: expected a wired Build function", spec.ConfigKey)
		}
	}
}
