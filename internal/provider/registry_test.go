package provider

import (
	"context"
	"testing"
)

type fakeHandle struct {
	id       string
	provider string
	tools    bool
}

func (f *fakeHandle) ID() string       { return f.id }
func (f *fakeHandle) Provider() string { return f.provider }
func (f *fakeHandle) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	return CompletionResult{}, nil
}
func (f *fakeHandle) Stream(ctx context.Context, req CompletionRequest) (<-chan CompletionChunk, error) {
	return nil, nil
}
func (f *fakeHandle) SupportsTools() bool  { return f.tools }
func (f *fakeHandle) SupportsVision() bool { return false }
func (f *fakeHandle) ContextWindow() int   { return 128_000 }

func TestNamespacingRoundTrip(t *testing.T) {
	r := New()
	r.Register(ModelInfo{ID: "claude-sonnet-4", Provider: "anthropic"}, &fakeHandle{provider: "anthropic"})

	for _, id := range []string{"claude-sonnet-4", "anthropic::claude-sonnet-4"} {
		h, ok := r.Get(id)
		if !ok {
			t.Fatalf("expected %s to resolve", id)
		}
		if h.ID() != "anthropic::claude-sonnet-4" {
			t.Errorf("expected wrapped handle id anthropic::claude-sonnet-4, got %s", h.ID())
		}
	}
	models := r.Models()
	if len(models) != 1 || models[0].ID != "anthropic::claude-sonnet-4" {
		t.Fatalf("expected exactly one catalog entry with namespaced id, got %+v", models)
	}
}

func TestFallbackOrderingWorkedExample(t *testing.T) {
	r := New()
	r.Register(ModelInfo{ID: "gpt-5.2", Provider: "openai"}, &fakeHandle{provider: "openai"})
	r.Register(ModelInfo{ID: "gpt-5-mini", Provider: "openai"}, &fakeHandle{provider: "openai"})
	r.Register(ModelInfo{ID: "gpt-5.3-codex", Provider: "openai-codex"}, &fakeHandle{provider: "openai-codex"})
	r.Register(ModelInfo{ID: "claude-sonnet", Provider: "anthropic"}, &fakeHandle{provider: "anthropic"})

	got := r.FallbackProvidersFor("openai::gpt-5.2", "openai")
	want := []string{
		"openai-codex::gpt-5.3-codex",
		"openai::gpt-5-mini",
		"anthropic::claude-sonnet",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d fallback entries, got %d: %+v", len(want), len(got), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestRawModelIDNamespacingLaw(t *testing.T) {
	cases := []struct{ provider, model string }{
		{"anthropic", "claude-sonnet-4"},
		{"openai", "openai::gpt-5"},
		{"openrouter", "anthropic/claude-3"},
	}
	for _, tc := range cases {
		namespaced := NamespacedModelID(tc.provider, tc.model)
		if RawModelID(namespaced) != RawModelID(tc.model) {
			t.Errorf("RawModelID(NamespacedModelID(%q,%q))=%q want %q",
				tc.provider, tc.model, RawModelID(namespaced), RawModelID(tc.model))
		}
	}
}

func TestRegisterThenUnregisterIsNoop(t *testing.T) {
	r := New()
	r.Register(ModelInfo{ID: "m1", Provider: "p"}, &fakeHandle{provider: "p"})
	r.Unregister("p::m1")
	if _, ok := r.Get("p::m1"); ok {
		t.Error("expected entry gone after unregister")
	}
	if len(r.Models()) != 0 {
		t.Error("expected empty catalog after unregister")
	}
}

func TestMergePreferredAndDiscoveredIdempotent(t *testing.T) {
	preferred := []string{"openai::gpt-5", "gpt-5-mini"}
	discovered := []ModelInfo{
		{ID: "gpt-5", DisplayName: "GPT-5"},
		{ID: "gpt-4o", DisplayName: "GPT-4o"},
	}
	first := MergePreferredAndDiscovered(preferred, discovered)
	second := MergePreferredAndDiscovered(preferred, discovered)
	if len(first) != len(second) {
		t.Fatalf("expected idempotent length, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("position %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].DisplayName != "GPT-5" {
		t.Errorf("expected preferred gpt-5 to carry discovered display name, got %+v", first[0])
	}
}

func TestContextWindowCapabilityTable(t *testing.T) {
	cases := map[string]int{
		"codestral-latest":   256_000,
		"claude-sonnet-4":    200_000,
		"gpt-5.2":            204_800,
		"gemini-2.5-pro":     1_000_000,
		"some-unknown-model": 200_000,
	}
	for model, want := range cases {
		if got := ContextWindow(model); got != want {
			t.Errorf("ContextWindow(%q) = %d, want %d", model, got, want)
		}
	}
}
