package terminal

import (
	"bytes"
	"testing"
	"time"
)

func TestSpawnPTYReceivesOutput(t *testing.T) {
	p, err := SpawnPTY(80, 24, "", "/bin/sh", "-c", "echo hello-terminal")
	if err != nil {
		t.Fatalf("spawn pty: %v", err)
	}
	defer p.Close()

	var collected bytes.Buffer
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-p.Events():
			switch ev.Kind {
			case PTYOutput:
				collected.Write(ev.Data)
			case PTYClosed:
				if bytes.Contains(collected.Bytes(), []byte("hello-terminal")) {
					return
				}
				t.Fatalf("pty closed before expected output, got %q", collected.String())
			}
		case <-deadline:
			t.Fatalf("timed out waiting for pty output, got %q", collected.String())
		}
	}
}

func TestPTYResizeRejectsUndersizedViewport(t *testing.T) {
	p, err := SpawnPTY(80, 24, "", "/bin/sh", "-c", "sleep 1")
	if err != nil {
		t.Fatalf("spawn pty: %v", err)
	}
	defer p.Close()

	if err := p.Resize(1, 1); err == nil {
		t.Fatal("expected resize below 2x1 to be rejected")
	}
	if err := p.Resize(100, 40); err != nil {
		t.Fatalf("valid resize should succeed: %v", err)
	}
	cols, rows := p.Size()
	if cols != 100 || rows != 40 {
		t.Fatalf("expected size 100x40, got %dx%d", cols, rows)
	}
}
