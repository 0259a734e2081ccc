package backends

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"
)

// ProvisionHostPackages best-effort installs packages directly on the host
// when running the no-sandbox backend on a Debian-family Linux with
// apt-get available. It never returns an error that should abort startup;
// failures are logged as warnings.
func ProvisionHostPackages(ctx context.Context, packages []string) {
	if len(packages) == 0 {
		return
	}
	if runtime.GOOS != "linux" {
		return
	}
	if _, err := exec.LookPath("apt-get"); err != nil {
		return
	}

	missing := missingPackages(ctx, packages)
	if len(missing) == 0 {
		return
	}

	sudo := ""
	if canSudoNonInteractive(ctx) {
		sudo = "sudo"
	}

	if err := aptInstall(ctx, sudo, missing); err != nil {
		log.Warn("host package provisioning failed for %s: %v", strings.Join(missing, ","), err)
	}
}

func missingPackages(ctx context.Context, packages []string) []string {
	var missing []string
	for _, pkg := range packages {
		cmd := exec.CommandContext(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
		out, err := cmd.Output()
		if err != nil || !strings.Contains(string(out), "install ok installed") {
			missing = append(missing, pkg)
		}
	}
	return missing
}

func canSudoNonInteractive(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "sudo", "-n", "true")
	return cmd.Run() == nil
}

func aptInstall(ctx context.Context, sudo string, packages []string) error {
	script := "apt-get update && apt-get install -y " + strings.Join(packages, " ")
	if sudo != "" {
		script = sudo + " sh -c '" + strings.ReplaceAll(script, "'", `'\''`) + "'"
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return err
	}
	return nil
}
