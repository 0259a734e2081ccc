package terminal

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const tmuxSessionName = "moltis-host-terminal"

// TmuxAvailable reports whether a `tmux` binary is on PATH.
func TmuxAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

func runTmux(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// attachTmuxCommand builds the command line used to spawn a PTY already
// attached to (or creating) the fixed host-terminal session at cols×rows.
// The profile is applied separately by applyTmuxProfile.
func attachTmuxCommand(cols, rows int) []string {
	return []string{
		"tmux", "new-session", "-A", "-s", tmuxSessionName,
		"-x", strconv.Itoa(cols), "-y", strconv.Itoa(rows),
	}
}

// applyTmuxProfile sets the fixed status/mouse/window-size/rename/renumber
// profile on the host-terminal session, once it exists.
func applyTmuxProfile(ctx context.Context) error {
	settings := [][]string{
		{"set-option", "-t", tmuxSessionName, "status", "off"},
		{"set-option", "-t", tmuxSessionName, "mouse", "off"},
		{"set-window-option", "-t", tmuxSessionName, "window-size", "latest"},
		{"set-option", "-t", tmuxSessionName, "automatic-rename", "off"},
		{"set-option", "-t", tmuxSessionName, "renumber-windows", "on"},
	}
	for _, args := range settings {
		if _, err := runTmux(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// resizeTmuxWindow forces tmux to propagate a new client viewport.
func resizeTmuxWindow(ctx context.Context, cols, rows int) error {
	_, err := runTmux(ctx, "resize-window", "-A", "-t", tmuxSessionName, "-x", strconv.Itoa(cols), "-y", strconv.Itoa(rows))
	return err
}

// resolveWindow validates and normalizes a client-supplied window address:
// "@N" (tmux internal id) or a bare numeric index. Names are rejected.
func resolveWindow(ctx context.Context, window string) (string, error) {
	if strings.HasPrefix(window, "@") {
		if _, err := strconv.Atoi(window[1:]); err != nil {
			return "", fmt.Errorf("unknown window %q", window)
		}
		if _, err := runTmux(ctx, "list-windows", "-t", tmuxSessionName, "-F", "#{window_id}"); err != nil {
			return "", err
		}
		return window, nil
	}
	if _, err := strconv.Atoi(window); err != nil {
		return "", fmt.Errorf("unknown window %q", window)
	}
	return window, nil
}

// switchWindow selects window (already resolved by resolveWindow) as the
// attached client's active tmux window.
func switchWindow(ctx context.Context, window string) error {
	_, err := runTmux(ctx, "select-window", "-t", fmt.Sprintf("%s:%s", tmuxSessionName, window))
	return err
}

// activeWindowID reports the tmux internal id of the currently active
// window in the host-terminal session.
func activeWindowID(ctx context.Context) (string, error) {
	return runTmux(ctx, "display-message", "-p", "-t", tmuxSessionName, "#{window_id}")
}
