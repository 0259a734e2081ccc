package browser

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestGetOrCreateReturnsExistingSessionUnchanged(t *testing.T) {
	p := NewPool(PoolConfig{})
	p.instances["existing"] = newInstance("existing", &Driver{}, nil)

	got, err := p.GetOrCreate(context.Background(), "existing", true)
	if err != nil {
		t.Fatal(err)
	}
	if got != "existing" {
		t.Fatalf("expected unchanged session id, got %s", got)
	}
}

func TestAdmitFailsAtHardCap(t *testing.T) {
	p := NewPool(PoolConfig{MaxInstances: 1})
	p.instances["a"] = newInstance("a", &Driver{}, nil)

	err := p.admit(context.Background())
	if err == nil {
		t.Fatal("expected pool-exhausted error at cap")
	}
}

func TestCleanupIdleSkipsRecentlyUsedInstances(t *testing.T) {
	p := NewPool(PoolConfig{IdleTimeout: time.Hour})
	p.instances["fresh"] = newInstance("fresh", &Driver{}, nil)

	p.CleanupIdle(context.Background())

	if _, ok := p.instances["fresh"]; !ok {
		t.Fatal("expected fresh instance to survive cleanup")
	}
}

func TestCleanupIdleSkipsLockedInstance(t *testing.T) {
	p := NewPool(PoolConfig{IdleTimeout: time.Nanosecond})
	inst := newInstance("locked", &Driver{}, nil)
	inst.lastUsed = time.Now().Add(-time.Hour)
	p.instances["locked"] = inst

	inst.mu.Lock()
	defer inst.mu.Unlock()

	p.CleanupIdle(context.Background())

	if _, ok := p.instances["locked"]; !ok {
		t.Fatal("expected locked-but-idle instance to survive this sweep")
	}
}

func TestGenerateSessionIDHasExpectedPrefix(t *testing.T) {
	id, err := generateSessionID()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(id, "browser-") {
		t.Fatalf("expected browser- prefix, got %s", id)
	}
	if len(id) != len("browser-")+16 {
		t.Fatalf("unexpected generated id length: %s", id)
	}
}
