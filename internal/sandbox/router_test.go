package sandbox

import (
	"context"
	"testing"
)

type fakeBackend struct {
	name         string
	readyImages  map[string]string
	cleanedUp    []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{name: "fake", readyImages: make(map[string]string)}
}

func (f *fakeBackend) BackendName() string { return f.name }

func (f *fakeBackend) EnsureReady(ctx context.Context, id string, imageOverride string) error {
	f.readyImages[id] = imageOverride
	return nil
}

func (f *fakeBackend) Exec(ctx context.Context, id string, command string, opts ExecOptions) (ExecResult, error) {
	return ExecResult{Stdout: command, ExitCode: 0}, nil
}

func (f *fakeBackend) Cleanup(ctx context.Context, id string) error {
	f.cleanedUp = append(f.cleanedUp, id)
	return nil
}

func (f *fakeBackend) BuildImage(ctx context.Context, base string, packages []string) (*BuiltImage, error) {
	return nil, nil
}

func TestRouterImageResolutionPriority(t *testing.T) {
	backend := newFakeBackend()
	r := NewRouter(backend, "all", "config-default:latest")

	if got := r.ResolveImage("s1", ""); got != "config-default:latest" {
		t.Fatalf("expected config default, got %s", got)
	}

	r.SetGlobalImageOverride("global-override:latest")
	if got := r.ResolveImage("s1", ""); got != "global-override:latest" {
		t.Fatalf("expected global override, got %s", got)
	}

	r.SetSessionImage("s1", "session-override:latest")
	if got := r.ResolveImage("s1", ""); got != "session-override:latest" {
		t.Fatalf("expected session override, got %s", got)
	}

	if got := r.ResolveImage("s1", "skill-image:latest"); got != "skill-image:latest" {
		t.Fatalf("expected skill image to win outright, got %s", got)
	}
}

func TestRouterIsSandboxedOverride(t *testing.T) {
	backend := newFakeBackend()
	r := NewRouter(backend, "off", "")

	if r.IsSandboxed("main") {
		t.Fatal("expected mode=off to default to false")
	}
	r.SetSessionOverride("main", true)
	if !r.IsSandboxed("main") {
		t.Fatal("expected per-session override to win")
	}
}

func TestRouterCleanupSessionDropsOverrides(t *testing.T) {
	backend := newFakeBackend()
	r := NewRouter(backend, "off", "")
	r.SetSessionOverride("s1", true)
	r.SetSessionImage("s1", "custom:latest")

	if err := r.CleanupSession(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}
	if r.IsSandboxed("s1") {
		t.Fatal("expected override to be dropped after cleanup")
	}
	if got := r.ResolveImage("s1", ""); got != DefaultImage {
		t.Fatalf("expected default image after cleanup, got %s", got)
	}
	if len(backend.cleanedUp) != 1 || backend.cleanedUp[0] != r.SandboxIDFor("s1") {
		t.Fatalf("expected backend cleanup called with sandbox id, got %v", backend.cleanedUp)
	}
}

func TestRouterEnsureReadyPublishesEvents(t *testing.T) {
	backend := newFakeBackend()
	r := NewRouter(backend, "all", "default:latest")

	if err := r.EnsureReady(context.Background(), "s1", ""); err != nil {
		t.Fatal(err)
	}

	var kinds []EventKind
	for i := 0; i < 2; i++ {
		select {
		case ev := <-r.Events():
			kinds = append(kinds, ev.Kind)
		default:
			t.Fatal("expected two events on the channel")
		}
	}
	if len(kinds) != 2 || kinds[0] != Provisioning || kinds[1] != Provisioned {
		t.Fatalf("unexpected event sequence: %v", kinds)
	}
}
