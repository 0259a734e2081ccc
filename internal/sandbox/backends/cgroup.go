package backends

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/moltislabs/moltis/internal/sandbox"
)

// Cgroup runs sandboxed commands under a transient systemd user scope,
// enforcing resource limits via scope properties instead of a container
// runtime. It has no image notion: BuildImage always returns (nil, nil).
type Cgroup struct {
	prefix string
	limits ResourceLimits
}

func NewCgroup(prefix string, limits ResourceLimits) *Cgroup {
	return &Cgroup{prefix: prefix, limits: limits}
}

func (c *Cgroup) BackendName() string { return "cgroup" }

func (c *Cgroup) scopeName(id string) string {
	return fmt.Sprintf("%s-%s", c.prefix, id)
}

func (c *Cgroup) propertyArgs() []string {
	var args []string
	if c.limits.MemoryMB > 0 {
		args = append(args, "-p", fmt.Sprintf("MemoryMax=%dM", c.limits.MemoryMB))
	}
	if c.limits.CPUPercent > 0 {
		args = append(args, "-p", fmt.Sprintf("CPUQuota=%d%%", c.limits.CPUPercent))
	}
	if c.limits.MaxTasks > 0 {
		args = append(args, "-p", fmt.Sprintf("TasksMax=%d", c.limits.MaxTasks))
	}
	return args
}

func run(ctx context.Context, bin string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func (c *Cgroup) scopeExists(ctx context.Context, name string) bool {
	_, _, err := run(ctx, "systemctl", "--user", "is-active", "--quiet", name+".scope")
	return err == nil
}

// EnsureReady creates the scope on first use; systemd-run is idempotent in
// practice because the sandbox keeps a long-lived placeholder process alive
// for the scope's lifetime via `sleep infinity`.
func (c *Cgroup) EnsureReady(ctx context.Context, id string, imageOverride string) error {
	name := c.scopeName(id)
	if c.scopeExists(ctx, name) {
		return nil
	}

	args := []string{"--user", "--scope", "--unit=" + name}
	args = append(args, c.propertyArgs()...)
	args = append(args, "sleep", "infinity")

	cmd := exec.CommandContext(ctx, "systemd-run", args...)
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("systemd-run %s: %w", name, err)
	}
	// Detach: the launched scope outlives this call; we don't Wait() on it.
	return nil
}

// Exec runs command via systemd-run --scope --pipe in its own transient
// unit, named after the session scope with an "-exec" suffix and given the
// same resource properties. The command is not placed in the cgroup of the
// scope that EnsureReady started.
func (c *Cgroup) Exec(ctx context.Context, id string, command string, opts sandbox.ExecOptions) (sandbox.ExecResult, error) {
	name := c.scopeName(id)
	args := []string{"--user", "--scope", "--pipe", "--unit=" + name + "-exec"}
	args = append(args, c.propertyArgs()...)
	for k, v := range opts.Env {
		args = append(args, "--setenv="+k+"="+v)
	}
	shCommand := command
	if opts.WorkDir != "" {
		shCommand = fmt.Sprintf("cd %s && %s", opts.WorkDir, command)
	}
	args = append(args, "sh", "-c", shCommand)

	stdout, stderr, err := run(ctx, "systemd-run", args...)
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return sandbox.ExecResult{}, fmt.Errorf("systemd-run exec in %s: %s: %w", name, strings.TrimSpace(stderr), err)
		}
	}

	limit := c.limits.MaxOutputBytes
	if limit <= 0 {
		limit = 256 * 1024
	}
	return sandbox.ExecResult{
		Stdout:   truncate(stdout, limit),
		Stderr:   truncate(stderr, limit),
		ExitCode: exitCode,
	}, nil
}

// Cleanup stops the scope unit.
func (c *Cgroup) Cleanup(ctx context.Context, id string) error {
	_, _, err := run(ctx, "systemctl", "--user", "stop", c.scopeName(id)+".scope")
	return err
}

// BuildImage is a no-op: the cgroup backend has no image concept.
func (c *Cgroup) BuildImage(ctx context.Context, base string, packages []string) (*sandbox.BuiltImage, error) {
	return nil, nil
}
