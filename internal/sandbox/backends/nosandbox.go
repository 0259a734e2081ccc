package backends

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/moltislabs/moltis/internal/sandbox"
)

// NoSandbox executes commands directly in the host process's environment,
// with no isolation. It is the fallback backend when neither a container
// CLI nor a cgroup-capable init system is available.
type NoSandbox struct {
	limits ResourceLimits
}

func NewNoSandbox(limits ResourceLimits) *NoSandbox {
	return &NoSandbox{limits: limits}
}

func (n *NoSandbox) BackendName() string { return "no-sandbox" }

// EnsureReady is a no-op: there is no container or scope to provision.
func (n *NoSandbox) EnsureReady(ctx context.Context, id string, imageOverride string) error {
	return nil
}

func (n *NoSandbox) Exec(ctx context.Context, id string, command string, opts sandbox.ExecOptions) (sandbox.ExecResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	if len(opts.Env) > 0 {
		cmd.Env = mergeEnv(opts.Env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return sandbox.ExecResult{}, runErr
		}
	}

	limit := n.limits.MaxOutputBytes
	if limit <= 0 {
		limit = 256 * 1024
	}
	return sandbox.ExecResult{
		Stdout:   truncate(stdout.String(), limit),
		Stderr:   truncate(stderr.String(), limit),
		ExitCode: exitCode,
	}, nil
}

// Cleanup is a no-op: there is nothing to tear down.
func (n *NoSandbox) Cleanup(ctx context.Context, id string) error { return nil }

// BuildImage is a no-op returning (nil, nil): the host backend has no image
// concept.
func (n *NoSandbox) BuildImage(ctx context.Context, base string, packages []string) (*sandbox.BuiltImage, error) {
	return nil, nil
}

func mergeEnv(extra map[string]string) []string {
	base := os.Environ()
	for k, v := range extra {
		base = append(base, k+"="+v)
	}
	return base
}
