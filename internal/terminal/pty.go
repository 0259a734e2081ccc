package terminal

import (
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"

	"github.com/moltislabs/moltis/internal/logging"
)

var log = logging.NewComponentLogger("Terminal")

const (
	defaultCols = 220
	defaultRows = 56
)

// PTYEventKind enumerates what the reader thread forwards.
type PTYEventKind int

const (
	PTYOutput PTYEventKind = iota
	PTYError
	PTYClosed
)

// PTYEvent is one message from the dedicated PTY reader thread.
type PTYEvent struct {
	Kind PTYEventKind
	Data []byte
	Err  error
}

// PTY wraps one spawned shell's pseudo-terminal and its dedicated reader
// goroutine, forwarding Output/Error/Closed events over a channel buffered
// to 256 events; when the buffer is full the reader waits until it drains.
type PTY struct {
	cmd    *exec.Cmd
	file   *os.File
	events chan PTYEvent
	cols   int
	rows   int
}

func loginShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

// SpawnPTY starts argv (defaulting to a login shell when empty) attached to
// a new PTY sized cols×rows (defaulting to 220×56 when either is zero), and
// starts its dedicated reader thread.
func SpawnPTY(cols, rows int, workDir string, argv ...string) (*PTY, error) {
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}
	if len(argv) == 0 {
		argv = []string{loginShell(), "-l"}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	cmd.Env = os.Environ()

	file, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return nil, err
	}

	p := &PTY{cmd: cmd, file: file, events: make(chan PTYEvent, 256), cols: cols, rows: rows}
	go p.readLoop()
	return p, nil
}

// readLoop is the dedicated goroutine reading PTY output until EOF/error.
func (p *PTY) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := p.file.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.events <- PTYEvent{Kind: PTYOutput, Data: chunk}
		}
		if err != nil {
			if err != io.EOF {
				p.events <- PTYEvent{Kind: PTYError, Err: err}
			}
			p.events <- PTYEvent{Kind: PTYClosed}
			return
		}
	}
}

// Events exposes the PTY's event channel.
func (p *PTY) Events() <-chan PTYEvent { return p.events }

// Write sends input bytes to the shell.
func (p *PTY) Write(data []byte) error {
	_, err := p.file.Write(data)
	return err
}

// Resize updates the PTY's window size.
func (p *PTY) Resize(cols, rows int) error {
	if cols < 2 || rows < 1 {
		return errInvalidSize
	}
	p.cols, p.rows = cols, rows
	return pty.Setsize(p.file, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Size reports the PTY's current viewport.
func (p *PTY) Size() (cols, rows int) { return p.cols, p.rows }

// Close kills the child process and closes the PTY file.
func (p *PTY) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Signal(syscall.SIGTERM)
	}
	err := p.file.Close()
	_ = p.cmd.Wait()
	return err
}

var errInvalidSize = &sizeError{}

type sizeError struct{}

func (*sizeError) Error() string { return "terminal size must be at least 2x1" }
