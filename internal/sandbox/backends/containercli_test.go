package backends

import "testing"

func TestTruncateAppendsSentinel(t *testing.T) {
	short := truncate("hello", 10)
	if short != "hello" {
		t.Fatalf("expected passthrough, got %q", short)
	}
	long := truncate("0123456789abcdef", 4)
	if long != "0123"+outputSentinel {
		t.Fatalf("expected truncated with sentinel, got %q", long)
	}
}

func TestContainerCLIContainerName(t *testing.T) {
	c := NewContainerCLI("docker", "moltis", false, "", "", ResourceLimits{}, nil)
	if got := c.containerName("s1"); got != "moltis-s1" {
		t.Fatalf("got %s", got)
	}
}

func TestAltCLIExportPrefixEscapesQuotes(t *testing.T) {
	out := exportPrefix(map[string]string{"FOO": "it's a test"})
	want := `export FOO='it'\''s a test'; `
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestContainerCLIResourceArgs(t *testing.T) {
	c := NewContainerCLI("docker", "moltis", false, "", "", ResourceLimits{MemoryMB: 512, CPUPercent: 150, MaxTasks: 64}, nil)
	args := c.resourceArgs()
	joined := ""
	for _, a := range args {
		joined += a + " "
	}
	if joined != "--memory 512m --cpus 1.50 --pids-limit 64 " {
		t.Fatalf("unexpected resource args: %q", joined)
	}
}
