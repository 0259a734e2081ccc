package terminal

import (
	"context"
	"os/user"
)

// PersistenceMode reports whether a session's lifetime survives a
// disconnect via tmux, or is purely ephemeral.
type PersistenceMode string

const (
	PersistenceTmux      PersistenceMode = "tmux"
	PersistenceEphemeral PersistenceMode = "ephemeral"
)

// Session owns one host terminal's PTY, optionally wrapped in the fixed
// moltis-host-terminal tmux session, and tracks the viewport a client has
// negotiated.
type Session struct {
	pty             *PTY
	persistenceMode PersistenceMode
	workDir         string
}

// NewSession spawns a PTY sized cols×rows, wrapping it in the fixed tmux
// session when useTmux is true and a tmux binary is available.
func NewSession(ctx context.Context, cols, rows int, workDir string, useTmux bool) (*Session, error) {
	mode := PersistenceEphemeral
	var argv []string
	if useTmux && TmuxAvailable() {
		mode = PersistenceTmux
		argv = attachTmuxCommand(cols, rows)
	}

	p, err := SpawnPTY(cols, rows, workDir, argv...)
	if err != nil {
		return nil, err
	}

	if mode == PersistenceTmux {
		if err := applyTmuxProfile(ctx); err != nil {
			log.Warn("applying tmux profile failed: %v", err)
		}
	}

	return &Session{pty: p, persistenceMode: mode, workDir: workDir}, nil
}

// Ready builds the initial ready frame describing this session.
func (s *Session) Ready(ctx context.Context, promptSymbol string) ReadyFrame {
	frame := ReadyFrame{
		Type:                 "ready",
		Available:            true,
		Mode:                 "host",
		PromptSymbol:         promptSymbol,
		PersistenceAvailable: TmuxAvailable(),
		PersistenceEnabled:   s.persistenceMode == PersistenceTmux,
		PersistenceMode:      string(s.persistenceMode),
	}
	if u, err := user.Current(); err == nil {
		frame.User = u.Username
		frame.IsRoot = u.Uid == "0"
	}
	if s.persistenceMode == PersistenceTmux {
		frame.SessionName = tmuxSessionName
		if id, err := activeWindowID(ctx); err == nil {
			frame.ActiveWindowID = id
		}
	} else if !TmuxAvailable() {
		frame.TmuxInstallCommand = "apt-get install -y tmux"
	}
	return frame
}

// Events exposes the underlying PTY's event stream.
func (s *Session) Events() <-chan PTYEvent { return s.pty.Events() }

// Write forwards client input to the PTY.
func (s *Session) Write(data []byte) error { return s.pty.Write(data) }

// Resize updates the PTY viewport and, under tmux, forces propagation to
// the attached client.
func (s *Session) Resize(ctx context.Context, cols, rows int) error {
	if err := s.pty.Resize(cols, rows); err != nil {
		return err
	}
	if s.persistenceMode == PersistenceTmux {
		return resizeTmuxWindow(ctx, cols, rows)
	}
	return nil
}

// SwitchWindow resolves and selects a tmux window by "@N" id or numeric
// index; a no-op returning an error outside tmux mode.
func (s *Session) SwitchWindow(ctx context.Context, window string) (string, error) {
	if s.persistenceMode != PersistenceTmux {
		return "", errNoTmux
	}
	resolved, err := resolveWindow(ctx, window)
	if err != nil {
		return "", err
	}
	if err := switchWindow(ctx, resolved); err != nil {
		return "", err
	}
	return activeWindowID(ctx)
}

// Restart respawns the PTY preserving its current viewport.
func (s *Session) Restart(ctx context.Context) error {
	cols, rows := s.pty.Size()
	if err := s.pty.Close(); err != nil {
		log.Warn("closing pty before restart: %v", err)
	}

	var argv []string
	if s.persistenceMode == PersistenceTmux {
		argv = attachTmuxCommand(cols, rows)
	}
	p, err := SpawnPTY(cols, rows, s.workDir, argv...)
	if err != nil {
		return err
	}
	s.pty = p
	return nil
}

// ControlCtrlC writes ETX (Ctrl-C) to the PTY input.
func (s *Session) ControlCtrlC() error { return s.pty.Write([]byte{0x03}) }

// ControlClear writes FF (Ctrl-L / clear) to the PTY input.
func (s *Session) ControlClear() error { return s.pty.Write([]byte{0x0c}) }

// Close tears down the PTY.
func (s *Session) Close() error { return s.pty.Close() }

var errNoTmux = &noTmuxError{}

type noTmuxError struct{}

func (*noTmuxError) Error() string { return "this session has no tmux persistence" }
