// Package backends implements concrete sandbox.Backend adapters: a
// container-CLI backend (Docker-like), an alternate container runtime, a
// cgroup/systemd-scope backend, and a no-sandbox passthrough.
package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/moltislabs/moltis/internal/logging"
	"github.com/moltislabs/moltis/internal/sandbox"
)

var log = logging.NewComponentLogger("SandboxBackend")

// outputSentinel is appended to stdout/stderr truncated at MaxOutputBytes.
const outputSentinel = "\n…[output truncated]"

// ResourceLimits mirrors config.SandboxLimits without importing the config
// package, keeping this package free of a dependency cycle back up to
// internal/config.
type ResourceLimits struct {
	MemoryMB       int
	CPUPercent     int
	MaxTasks       int
	MaxOutputBytes int
}

// ContainerCLI shells out to a Docker-compatible CLI binary, grounded on the
// teacher's internal/devops/docker/client.go CLIClient: run/exec via os/exec,
// container liveness from `ps --format`, and a JSON decode of
// `image inspect`'s output.
type ContainerCLI struct {
	bin            string
	prefix         string
	noNetwork      bool
	timezone       string
	workspaceMount string // host:container, empty to skip
	limits         ResourceLimits
	packages       []string
}

// NewContainerCLI builds a backend that shells out to bin (e.g. "docker").
func NewContainerCLI(bin, prefix string, noNetwork bool, timezone, workspaceMount string, limits ResourceLimits, packages []string) *ContainerCLI {
	return &ContainerCLI{
		bin:            bin,
		prefix:         prefix,
		noNetwork:      noNetwork,
		timezone:       timezone,
		workspaceMount: workspaceMount,
		limits:         limits,
		packages:       packages,
	}
}

func (c *ContainerCLI) BackendName() string { return "docker-like" }

func (c *ContainerCLI) containerName(id string) string {
	return fmt.Sprintf("%s-%s", c.prefix, id)
}

func (c *ContainerCLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %s: %w", c.bin, strings.Join(args, " "), strings.TrimSpace(stderr.String()), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (c *ContainerCLI) containerRunning(ctx context.Context, name string) (bool, error) {
	out, err := c.run(ctx, "ps", "--format", "{{.Names}}")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// EnsureReady idempotently starts a detached, long-lived container named
// after id. It installs no packages: the packages passed to NewContainerCLI
// are not used here, so a container holds only what its image already has
// (a moltis-sandbox tag from BuildImage has them built in).
func (c *ContainerCLI) EnsureReady(ctx context.Context, id string, imageOverride string) error {
	name := c.containerName(id)
	running, err := c.containerRunning(ctx, name)
	if err != nil {
		return err
	}
	if running {
		return nil
	}

	image := imageOverride
	if image == "" {
		image = sandbox.DefaultImage
	}

	args := []string{"run", "-d", "--name", name}
	if c.noNetwork {
		args = append(args, "--network=none")
	}
	if c.timezone != "" {
		args = append(args, "-e", "TZ="+c.timezone)
	}
	args = append(args, c.resourceArgs()...)
	if c.workspaceMount != "" {
		args = append(args, "-v", c.workspaceMount)
	}
	args = append(args, image, "sleep", "infinity")

	_, err = c.run(ctx, args...)
	return err
}

func (c *ContainerCLI) resourceArgs() []string {
	var args []string
	if c.limits.MemoryMB > 0 {
		args = append(args, "--memory", fmt.Sprintf("%dm", c.limits.MemoryMB))
	}
	if c.limits.CPUPercent > 0 {
		args = append(args, "--cpus", strconv.FormatFloat(float64(c.limits.CPUPercent)/100, 'f', 2, 64))
	}
	if c.limits.MaxTasks > 0 {
		args = append(args, "--pids-limit", strconv.Itoa(c.limits.MaxTasks))
	}
	return args
}

func (c *ContainerCLI) maxOutputBytes() int {
	if c.limits.MaxOutputBytes > 0 {
		return c.limits.MaxOutputBytes
	}
	return 256 * 1024
}

// Exec attaches to the named container, setting the working directory and
// per-call env vars natively via `exec` flags.
func (c *ContainerCLI) Exec(ctx context.Context, id string, command string, opts sandbox.ExecOptions) (sandbox.ExecResult, error) {
	name := c.containerName(id)
	args := []string{"exec"}
	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}
	for k, v := range opts.Env {
		args = append(args, "-e", k+"="+v)
	}
	args = append(args, name, "sh", "-c", command)

	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return sandbox.ExecResult{}, fmt.Errorf("docker exec in %s: %w", name, runErr)
		}
	}

	return sandbox.ExecResult{
		Stdout:   truncate(stdout.String(), c.maxOutputBytes()),
		Stderr:   truncate(stderr.String(), c.maxOutputBytes()),
		ExitCode: exitCode,
	}, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + outputSentinel
}

// Cleanup force-removes the container.
func (c *ContainerCLI) Cleanup(ctx context.Context, id string) error {
	_, err := c.run(ctx, "rm", "-f", c.containerName(id))
	return err
}

// imageInspect decodes the subset of `docker image inspect` this backend
// needs to check whether a tag already exists locally.
type imageInspect struct {
	ID string `json:"Id"`
}

func (c *ContainerCLI) imageExists(ctx context.Context, tag string) (bool, error) {
	out, err := c.run(ctx, "image", "inspect", tag)
	if err != nil {
		return false, nil // inspect fails (non-zero exit) when the tag is absent
	}
	var inspections []imageInspect
	if jsonErr := json.Unmarshal([]byte(out), &inspections); jsonErr != nil {
		return false, fmt.Errorf("parse image inspect output: %w", jsonErr)
	}
	return len(inspections) > 0, nil
}

// BuildImage renders a Dockerfile for base+packages, builds it under its
// content-addressed tag if absent, and reports whether a build actually ran.
func (c *ContainerCLI) BuildImage(ctx context.Context, base string, packages []string) (*sandbox.BuiltImage, error) {
	tag := sandbox.ImageTag(base, packages)

	exists, err := c.imageExists(ctx, tag)
	if err != nil {
		return nil, err
	}
	if exists {
		return &sandbox.BuiltImage{Tag: tag, Built: false}, nil
	}

	dockerfile, err := sandbox.RenderDockerfile(base, packages)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.bin, "build", "-t", tag, "-f", "-", ".")
	cmd.Stdin = strings.NewReader(dockerfile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker build %s: %s: %w", tag, strings.TrimSpace(stderr.String()), err)
	}
	log.Info("built sandbox image %s", tag)
	return &sandbox.BuiltImage{Tag: tag, Built: true}, nil
}

// ListCachedImages lists every locally built moltis-sandbox:* tag, for the
// /sandbox command's image listing.
func (c *ContainerCLI) ListCachedImages(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "images", "--filter", "reference=moltis-sandbox:*", "--format", "{{.Repository}}:{{.Tag}}")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
