package providers

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/moltislabs/moltis/internal/provider"
)

// SubscriptionSource implements provider.DynamicModelDiscovery for an
// OAuth-backed subscription provider (Codex, Copilot). Only the silent
// oauth2.TokenSource refresh half of the flow is implemented; the
// interactive consent/browser-redirect UX is explicitly out of scope.
type SubscriptionSource struct {
	name        string
	displayName string
	tokenSource oauth2.TokenSource
	staticModels []string

	mu       sync.Mutex
	cached   []provider.ModelInfo
}

// NewSubscriptionSource builds a source named name (e.g. "openai-codex",
// "github-copilot"), refreshing credentials via tokenSource.
func NewSubscriptionSource(name, displayName string, tokenSource oauth2.TokenSource, staticModels []string) *SubscriptionSource {
	return &SubscriptionSource{
		name:         name,
		displayName:  displayName,
		tokenSource:  tokenSource,
		staticModels: staticModels,
	}
}

func (s *SubscriptionSource) Name() string        { return s.name }
func (s *SubscriptionSource) DisplayName() string  { return s.displayName }
func (s *SubscriptionSource) ConfiguredModels() []string { return s.staticModels }
func (s *SubscriptionSource) ShouldFetchModels() bool    { return false }

// IsEnabledAndAuthenticated reports whether a valid token can currently be
// produced, without forcing a network refresh unless the cached token is
// expired.
func (s *SubscriptionSource) IsEnabledAndAuthenticated(ctx context.Context) bool {
	if s.tokenSource == nil {
		return false
	}
	tok, err := s.tokenSource.Token()
	return err == nil && tok.Valid()
}

func (s *SubscriptionSource) AvailableModels() []provider.ModelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]provider.ModelInfo, len(s.cached))
	copy(out, s.cached)
	return out
}

// LiveModels refreshes the token and returns the static catalog bound to
// this subscription; the refresh call is what validates the credential is
// actually live (rather than merely unexpired by clock skew).
func (s *SubscriptionSource) LiveModels(ctx context.Context) ([]provider.ModelInfo, error) {
	if _, err := s.tokenSource.Token(); err != nil {
		return nil, fmt.Errorf("%s: refresh token: %w", s.name, err)
	}
	models := make([]provider.ModelInfo, 0, len(s.staticModels))
	for _, m := range s.staticModels {
		models = append(models, provider.ModelInfo{ID: provider.NamespacedModelID(s.name, m), Provider: s.name, DisplayName: m})
	}
	s.mu.Lock()
	s.cached = models
	s.mu.Unlock()
	return models, nil
}

func (s *SubscriptionSource) BuildProvider(modelID string) (provider.Handle, error) {
	raw := provider.RawModelID(modelID)
	tok, err := s.tokenSource.Token()
	if err != nil {
		return nil, err
	}
	return NewOpenAICompatible(s.name, raw, tok.AccessToken, ""), nil
}
