package channel

import (
	"context"
	"strings"
	"testing"

	"github.com/moltislabs/moltis/internal/channel/backends"
	"github.com/moltislabs/moltis/internal/sandbox"
	"github.com/moltislabs/moltis/internal/syncutil"
)

type fakeSandboxBackend struct{}

func (fakeSandboxBackend) BackendName() string { return "fake" }
func (fakeSandboxBackend) EnsureReady(ctx context.Context, id, image string) error { return nil }
func (fakeSandboxBackend) Exec(ctx context.Context, id, command string, opts sandbox.ExecOptions) (sandbox.ExecResult, error) {
	return sandbox.ExecResult{}, nil
}
func (fakeSandboxBackend) Cleanup(ctx context.Context, id string) error { return nil }
func (fakeSandboxBackend) BuildImage(ctx context.Context, base string, packages []string) (*sandbox.BuiltImage, error) {
	return nil, nil
}

func TestIsCommand(t *testing.T) {
	if !IsCommand("/new") || !IsCommand("  /model 1") {
		t.Fatal("expected slash-prefixed text to be a command")
	}
	if IsCommand("hello") {
		t.Fatal("plain text must not be treated as a command")
	}
}

func TestCommandNewSwitchesSession(t *testing.T) {
	store := newTestStore(t)
	sink := NewSink(store, &fakeChatService{}, syncutil.Resolved(newTestRegistry()), nil)

	msg := backends.InboundMessage{ChannelType: "telegram", AccountID: "botA", ChatID: "42"}
	before, err := store.ResolveSessionKey(context.Background(), ForwardKey{ChannelType: "telegram", AccountID: "botA", ChatID: "42"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	reply, err := sink.HandleCommand(context.Background(), msg, "/new")
	if err != nil {
		t.Fatalf("handle /new: %v", err)
	}
	if reply == "" {
		t.Fatal("expected a non-empty reply")
	}

	after, err := store.ResolveSessionKey(context.Background(), ForwardKey{ChannelType: "telegram", AccountID: "botA", ChatID: "42"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if before == after {
		t.Fatalf("expected /new to switch the active session key, still %q", after)
	}
}

func TestCommandSessionsListsAndSwitches(t *testing.T) {
	store := newTestStore(t)
	sink := NewSink(store, &fakeChatService{}, syncutil.Resolved(newTestRegistry()), nil)
	msg := backends.InboundMessage{ChannelType: "telegram", AccountID: "botA", ChatID: "42"}

	if _, err := sink.HandleCommand(context.Background(), msg, "/new"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := sink.HandleCommand(context.Background(), msg, "/new"); err != nil {
		t.Fatalf("new: %v", err)
	}

	listing, err := sink.HandleCommand(context.Background(), msg, "/sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(listing, "1.") || !strings.Contains(listing, "2.") {
		t.Fatalf("expected both sessions listed, got %q", listing)
	}

	reply, err := sink.HandleCommand(context.Background(), msg, "/sessions 1")
	if err != nil {
		t.Fatalf("sessions 1: %v", err)
	}
	if !strings.Contains(reply, "1") {
		t.Fatalf("expected switch confirmation, got %q", reply)
	}

	if _, err := sink.HandleCommand(context.Background(), msg, "/sessions 0"); err == nil {
		t.Fatal("expected out-of-range session index to error")
	}
}

func TestCommandModelAppliesNumericIndex(t *testing.T) {
	store := newTestStore(t)
	sink := NewSink(store, &fakeChatService{}, syncutil.Resolved(newTestRegistry()), nil)
	msg := backends.InboundMessage{ChannelType: "telegram", AccountID: "botA", ChatID: "42"}

	reply, err := sink.HandleCommand(context.Background(), msg, "/model 1")
	if err != nil {
		t.Fatalf("model 1: %v", err)
	}
	if !strings.Contains(reply, "GPT-5") {
		t.Fatalf("expected display name in reply, got %q", reply)
	}
}

func TestCommandSandboxRequiresRouter(t *testing.T) {
	store := newTestStore(t)
	sink := NewSink(store, &fakeChatService{}, syncutil.Resolved(newTestRegistry()), nil)
	msg := backends.InboundMessage{ChannelType: "telegram", AccountID: "botA", ChatID: "42"}

	if _, err := sink.HandleCommand(context.Background(), msg, "/sandbox"); err == nil {
		t.Fatal("expected /sandbox without a configured router to error")
	}

	router := sandbox.NewRouter(fakeSandboxBackend{}, "off", "")
	sink.SetSandboxRouter(router)

	reply, err := sink.HandleCommand(context.Background(), msg, "/sandbox on")
	if err != nil {
		t.Fatalf("sandbox on: %v", err)
	}
	if !strings.Contains(reply, "enabled") {
		t.Fatalf("expected enabled confirmation, got %q", reply)
	}
	if !router.IsSandboxed(firstSessionKey(t, store, "telegram", "botA", "42")) {
		t.Fatal("expected session override to flip IsSandboxed true")
	}
}

func firstSessionKey(t *testing.T, store *Store, channelType, accountID, chatID string) string {
	t.Helper()
	key, err := store.ResolveSessionKey(context.Background(), ForwardKey{ChannelType: channelType, AccountID: accountID, ChatID: chatID})
	if err != nil {
		t.Fatalf("resolve session key: %v", err)
	}
	return key
}
