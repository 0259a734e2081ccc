package browser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// HostLaunchConfig carries the config-derived knobs for spawning a local
// browser binary.
type HostLaunchConfig struct {
	BinaryPath       string
	DiscoveryHints   []string // candidate binaries to probe when BinaryPath is empty
	UserAgent        string
	ExtraArgs        []string
	RequestTimeout   time.Duration
}

var safeDefaultFlags = []string{
	"--no-sandbox",
	"--disable-gpu",
	"--disable-dev-shm-usage",
	"--disable-software-rasterizer",
	"--disable-setuid-sandbox",
}

var devToolsListeningPattern = regexp.MustCompile(`DevTools listening on (ws://\S+)`)

// discoverBinary resolves the browser executable: an explicit path wins,
// otherwise the first discovery hint found on PATH.
func discoverBinary(cfg HostLaunchConfig) (string, error) {
	if cfg.BinaryPath != "" {
		return cfg.BinaryPath, nil
	}
	for _, hint := range cfg.DiscoveryHints {
		if path, err := exec.LookPath(hint); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no browser binary found: set binary_path or install one of %v", cfg.DiscoveryHints)
}

// launchHost spawns a local browser process with a remote-debugging port on
// an ephemeral port, parses the "DevTools listening on ws://..." line from
// its stderr, and returns a connected Driver plus a teardown function that
// kills the process.
func launchHost(ctx context.Context, cfg HostLaunchConfig) (*Driver, func(), error) {
	binary, err := discoverBinary(cfg)
	if err != nil {
		return nil, nil, err
	}

	args := append([]string{}, safeDefaultFlags...)
	args = append(args, "--remote-debugging-port=0", "--headless=new")
	if cfg.UserAgent != "" {
		args = append(args, "--user-agent="+cfg.UserAgent)
	}
	args = append(args, cfg.ExtraArgs...)

	cmd := exec.Command(binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("attach stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start browser process: %w", err)
	}

	wsURL, err := awaitDevToolsURL(stderr, cfg.RequestTimeout)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, nil, err
	}

	driver, err := Dial(ctx, wsURL)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, nil, err
	}

	teardown := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	return driver, teardown, nil
}

func awaitDevToolsURL(stderr io.Reader, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	type result struct {
		url string
		err error
	}
	ch := make(chan result, 1)

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			if m := devToolsListeningPattern.FindStringSubmatch(line); len(m) == 2 {
				ch <- result{url: strings.TrimSpace(m[1])}
				return
			}
		}
		ch <- result{err: fmt.Errorf("browser process exited before printing a devtools listener url")}
	}()

	select {
	case r := <-ch:
		return r.url, r.err
	case <-time.After(timeout):
		return "", fmt.Errorf("timed out waiting for browser devtools listener")
	}
}
