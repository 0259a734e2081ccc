package terminal

import (
	"context"
	"testing"
)

func TestResolveWindowRejectsNames(t *testing.T) {
	if _, err := resolveWindow(context.Background(), "main"); err == nil {
		t.Fatal("expected a bare name to be rejected")
	}
}

func TestAttachTmuxCommandIncludesSize(t *testing.T) {
	cmd := attachTmuxCommand(120, 40)
	joined := ""
	for _, part := range cmd {
		joined += part + " "
	}
	if joined != "tmux new-session -A -s moltis-host-terminal -x 120 -y 40 " {
		t.Fatalf("unexpected tmux command: %q", joined)
	}
}
