package channel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/moltislabs/moltis/internal/channel/backends"
	"github.com/moltislabs/moltis/internal/provider"
	"github.com/moltislabs/moltis/internal/syncutil"
)

type fakeHandle struct{ id, provider string }

func (h *fakeHandle) ID() string       { return h.id }
func (h *fakeHandle) Provider() string { return h.provider }
func (h *fakeHandle) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	return provider.CompletionResult{}, nil
}
func (h *fakeHandle) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.CompletionChunk, error) {
	return nil, nil
}
func (h *fakeHandle) SupportsTools() bool  { return false }
func (h *fakeHandle) SupportsVision() bool { return false }
func (h *fakeHandle) ContextWindow() int   { return 8000 }

type fakeChatService struct {
	lastParams ChatParams
	reply      string
	err        error
}

func (f *fakeChatService) Send(ctx context.Context, params ChatParams) (ChatResult, error) {
	f.lastParams = params
	if f.err != nil {
		return ChatResult{}, f.err
	}
	return ChatResult{Text: f.reply}, nil
}
func (f *fakeChatService) Clear(ctx context.Context, sessionKey string) error { return nil }
func (f *fakeChatService) Compact(ctx context.Context, sessionKey string) (string, error) {
	return "compacted", nil
}
func (f *fakeChatService) ContextSummary(ctx context.Context, sessionKey string) (string, error) {
	return "context summary", nil
}

type fakeChannelBackend struct {
	channelType string
	sent        []string
	typingCalls int
}

func (f *fakeChannelBackend) ChannelType() string { return f.channelType }
func (f *fakeChannelBackend) AccountID() string   { return "acct" }
func (f *fakeChannelBackend) SendText(ctx context.Context, chatID, text string) error {
	f.sent = append(f.sent, text)
	return nil
}
func (f *fakeChannelBackend) SendTyping(ctx context.Context, accountID, chatID string) error {
	f.typingCalls++
	return nil
}
func (f *fakeChannelBackend) SendImages(ctx context.Context, chatID, text string, images []backends.ImagePart) error {
	return nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channel.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestRegistry() *provider.Container {
	reg := provider.New()
	reg.Register(provider.ModelInfo{ID: "openai::gpt-5", Provider: "openai", DisplayName: "GPT-5"}, &fakeHandle{id: "openai::gpt-5", provider: "openai"})
	return provider.NewContainer(reg)
}

func TestDispatchPersistsSessionAndSendsReply(t *testing.T) {
	store := newTestStore(t)
	chat := &fakeChatService{reply: "hello back"}
	sink := NewSink(store, chat, syncutil.Resolved(newTestRegistry()), nil)
	backend := &fakeChannelBackend{channelType: "telegram"}
	sink.RegisterBackend(backend, "")

	msg := backends.InboundMessage{ChannelType: "telegram", AccountID: "botA", ChatID: "42", Text: "hi"}
	if err := sink.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(backend.sent) != 1 || backend.sent[0] != "hello back" {
		t.Fatalf("unexpected sent messages: %v", backend.sent)
	}
	if chat.lastParams.Model != "openai::gpt-5" {
		t.Fatalf("expected first registered model to be picked, got %q", chat.lastParams.Model)
	}

	rows, err := store.ListSessionsForChat(context.Background(), "telegram", "42")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(rows) != 1 || rows[0].Label != 1 {
		t.Fatalf("expected one session labeled 1, got %+v", rows)
	}
}

func TestDispatchReportsChatServiceErrorToChat(t *testing.T) {
	store := newTestStore(t)
	chat := &fakeChatService{err: errTest{"boom"}}
	sink := NewSink(store, chat, syncutil.Resolved(newTestRegistry()), nil)
	backend := &fakeChannelBackend{channelType: "telegram"}
	sink.RegisterBackend(backend, "")

	msg := backends.InboundMessage{ChannelType: "telegram", AccountID: "botA", ChatID: "42", Text: "hi"}
	if err := sink.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch should swallow chat errors: %v", err)
	}
	if len(backend.sent) != 1 || backend.sent[0] != "⚠️ boom" {
		t.Fatalf("expected warning reply, got %v", backend.sent)
	}
}

func TestDispatchRoutesImageOnlyMessageAsImagePlaceholder(t *testing.T) {
	store := newTestStore(t)
	chat := &fakeChatService{reply: "ok"}
	sink := NewSink(store, chat, syncutil.Resolved(newTestRegistry()), nil)
	backend := &fakeChannelBackend{channelType: "telegram"}
	sink.RegisterBackend(backend, "")

	msg := backends.InboundMessage{ChannelType: "telegram", AccountID: "botA", ChatID: "42", HasImage: true, ImageBytes: []byte("x"), ImageMedia: "image/png"}
	if err := sink.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if chat.lastParams.Text != "[Image]" {
		t.Fatalf("expected [Image] placeholder, got %q", chat.lastParams.Text)
	}
	if len(chat.lastParams.Images) != 1 {
		t.Fatalf("expected one image part, got %d", len(chat.lastParams.Images))
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }
