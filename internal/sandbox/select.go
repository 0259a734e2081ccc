package sandbox

import (
	"context"
	"os/exec"
)

// CLIProbe checks whether a named CLI binary is on PATH and its daemon (if
// any) responds, without importing the backends package (which depends on
// this one) — callers in internal/bootstrap supply the concrete probes.
type CLIProbe struct {
	Name       string
	CLIPresent func() bool
	DaemonUp   func(ctx context.Context) bool
}

// LookPathProbe builds a CLIProbe.CLIPresent check from exec.LookPath.
func LookPathProbe(bin string) func() bool {
	return func() bool {
		_, err := exec.LookPath(bin)
		return err == nil
	}
}

// SelectBackendName resolves `backend: auto` from the given probe results:
// prefer the alternate (alt) runtime if its CLI is present, else the
// container daemon if both its CLI and daemon respond, else no-sandbox.
// internal/bootstrap's selectSandboxBackend does not call it; it probes in
// the same alt, docker-like order and also tries the cgroup backend before
// falling back to no-sandbox.
func SelectBackendName(configured string, altPresent bool, containerCLIPresent, containerDaemonUp bool) string {
	switch configured {
	case "docker-like", "alt", "cgroup", "no-sandbox":
		return configured
	default: // "auto" or unset
		if altPresent {
			return "alt"
		}
		if containerCLIPresent && containerDaemonUp {
			return "docker-like"
		}
		return "no-sandbox"
	}
}
