package bootstrap

import (
	"os/exec"

	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/sandbox"
	"github.com/moltislabs/moltis/internal/sandbox/backends"
)

const defaultSandboxPrefix = "moltis"

// selectSandboxBackend resolves cfg.Backend to a concrete sandbox.Backend.
// "auto" probes for an alternate runtime CLI (podman, then nerdctl) first,
// then a Docker CLI whose daemon answers `docker info`, then
// cgroup/systemd-scope support, falling back to no-sandbox. Every
// backend names its containers/scopes "{prefix}-{id}"; prefix is cfg.Scope
// when the operator sets one, so multiple gateways sharing a host (or a
// container runtime) don't collide on sandbox names.
func selectSandboxBackend(cfg config.SandboxTOMLConfig) sandbox.Backend {
	limits := backends.ResourceLimits{
		MemoryMB:       cfg.Limits.MemoryMB,
		CPUPercent:     cfg.Limits.CPUPercent,
		MaxTasks:       cfg.Limits.MaxTasks,
		MaxOutputBytes: cfg.Limits.MaxOutputKB * 1024,
	}
	sandboxPrefix := cfg.Scope
	if sandboxPrefix == "" {
		sandboxPrefix = defaultSandboxPrefix
	}

	switch cfg.Backend {
	case "docker-like":
		return backends.NewContainerCLI("docker", sandboxPrefix, cfg.NoNetwork, cfg.Timezone, cfg.WorkspaceMount, limits, cfg.Packages)
	case "alt":
		return backends.NewAltCLI("podman", sandboxPrefix, cfg.NoNetwork, cfg.Timezone, cfg.WorkspaceMount, limits)
	case "cgroup":
		return backends.NewCgroup(sandboxPrefix, limits)
	case "no-sandbox":
		return backends.NewNoSandbox(limits)
	default: // "auto"
		if bin := probeContainerCLI("podman", "nerdctl"); bin != "" {
			return backends.NewAltCLI(bin, sandboxPrefix, cfg.NoNetwork, cfg.Timezone, cfg.WorkspaceMount, limits)
		}
		if bin := probeContainerCLI("docker"); bin != "" && exec.Command(bin, "info").Run() == nil {
			return backends.NewContainerCLI(bin, sandboxPrefix, cfg.NoNetwork, cfg.Timezone, cfg.WorkspaceMount, limits, cfg.Packages)
		}
		if cgroupCapable() {
			return backends.NewCgroup(sandboxPrefix, limits)
		}
		return backends.NewNoSandbox(limits)
	}
}

func probeContainerCLI(bins ...string) string {
	for _, bin := range bins {
		if _, err := exec.LookPath(bin); err == nil {
			return bin
		}
	}
	return ""
}

func cgroupCapable() bool {
	_, err := exec.LookPath("systemd-run")
	return err == nil
}

// NewStandaloneSandboxRouter builds a router without running the rest of
// Wire, for one-off CLI commands (`moltisd sandbox build-image`/`images`)
// that only need the sandbox backend.
func NewStandaloneSandboxRouter(cfg config.SandboxTOMLConfig) *sandbox.Router {
	return sandbox.NewRouter(selectSandboxBackend(cfg), cfg.Mode, cfg.Image)
}
