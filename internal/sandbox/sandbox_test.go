package sandbox

import "testing"

func TestSanitizeSessionKey(t *testing.T) {
	got := SanitizeSessionKey("chat:12345/main")
	want := "chat-12345-main"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestModeFor(t *testing.T) {
	cases := []struct {
		mode, key string
		want      bool
	}{
		{"off", "main", false},
		{"off", "other", false},
		{"all", "main", true},
		{"non-main", "main", false},
		{"non-main", "other", true},
	}
	for _, c := range cases {
		if got := ModeFor(c.mode, c.key); got != c.want {
			t.Errorf("ModeFor(%q, %q) = %v, want %v", c.mode, c.key, got, c.want)
		}
	}
}

func TestSelectBackendNameAuto(t *testing.T) {
	if got := SelectBackendName("auto", true, false, false); got != "alt" {
		t.Errorf("expected alt to win when present, got %s", got)
	}
	if got := SelectBackendName("auto", false, true, true); got != "docker-like" {
		t.Errorf("expected docker-like when CLI and daemon up, got %s", got)
	}
	if got := SelectBackendName("auto", false, true, false); got != "no-sandbox" {
		t.Errorf("expected no-sandbox when daemon down, got %s", got)
	}
	if got := SelectBackendName("cgroup", true, true, true); got != "cgroup" {
		t.Errorf("expected explicit backend to win, got %s", got)
	}
}
