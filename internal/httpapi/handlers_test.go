package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/moltislabs/moltis/internal/browser"
	"github.com/moltislabs/moltis/internal/channel"
	"github.com/moltislabs/moltis/internal/provider"
	"github.com/moltislabs/moltis/internal/syncutil"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type fakeHandle struct{ id, prov string }

func (f *fakeHandle) ID() string       { return f.id }
func (f *fakeHandle) Provider() string { return f.prov }
func (f *fakeHandle) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	return provider.CompletionResult{}, nil
}
func (f *fakeHandle) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.CompletionChunk, error) {
	return nil, nil
}
func (f *fakeHandle) SupportsTools() bool  { return true }
func (f *fakeHandle) SupportsVision() bool { return false }
func (f *fakeHandle) ContextWindow() int   { return 8192 }

type fakeChatService struct{}

func (fakeChatService) Send(ctx context.Context, params channel.ChatParams) (channel.ChatResult, error) {
	return channel.ChatResult{Text: "ok"}, nil
}
func (fakeChatService) Clear(ctx context.Context, sessionKey string) error { return nil }
func (fakeChatService) Compact(ctx context.Context, sessionKey string) (string, error) {
	return "", nil
}
func (fakeChatService) ContextSummary(ctx context.Context, sessionKey string) (string, error) {
	return "", nil
}

func newTestSink(t *testing.T) *channel.Sink {
	t.Helper()
	store, err := channel.Open(filepath.Join(t.TempDir(), "channel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := provider.New()
	reg.Register(provider.ModelInfo{ID: "openai::gpt-5", Provider: "openai", DisplayName: "GPT-5"}, &fakeHandle{id: "openai::gpt-5", prov: "openai"})
	container := provider.NewContainer(reg)

	return channel.NewSink(store, fakeChatService{}, syncutil.Resolved(container), nil)
}

func TestValidateReturnsDiagnosticsForBadConfig(t *testing.T) {
	h := &configHandlers{}
	r := newTestEngine()
	r.POST("/api/config/validate", h.Validate)

	req := httptest.NewRequest(http.MethodPost, "/api/config/validate", bytes.NewBufferString(`[server]
bnd = "127.0.0.1"
`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "diagnostics")
}

func TestListModelsReturnsRegisteredCatalog(t *testing.T) {
	reg := provider.New()
	reg.Register(provider.ModelInfo{ID: "openai::gpt-5", Provider: "openai", DisplayName: "GPT-5"}, &fakeHandle{id: "openai::gpt-5", prov: "openai"})
	container := provider.NewContainer(reg)

	h := &providerHandlers{registry: container}
	r := newTestEngine()
	r.GET("/api/providers", h.List)

	req := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "gpt-5")
}

func TestListInstancesReturnsEmptyPool(t *testing.T) {
	pool := browser.NewPool(browser.PoolConfig{})
	h := &browserHandlers{pool: pool}
	r := newTestEngine()
	r.GET("/api/browser/instances", h.ListInstances)

	req := httptest.NewRequest(http.MethodGet, "/api/browser/instances", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"instances":[]`)
}

func TestWebhookRejectsMissingRequiredFields(t *testing.T) {
	h := &channelHandlers{sink: newTestSink(t)}
	r := newTestEngine()
	r.POST("/api/channels/:type/webhook", h.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/api/channels/generic/webhook", bytes.NewBufferString(`{"text":"hi"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestWebhookDispatchesValidPayload(t *testing.T) {
	h := &channelHandlers{sink: newTestSink(t)}
	r := newTestEngine()
	r.POST("/api/channels/:type/webhook", h.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/api/channels/generic/webhook", bytes.NewBufferString(`{"account_id":"acct1","chat_id":"chat1","text":"hello"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
}
