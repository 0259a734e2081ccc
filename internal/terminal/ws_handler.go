package terminal

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config controls what HandleUpgrade spawns and how it authorizes the
// connection.
type Config struct {
	Auth         AuthChecker
	UseTmux      bool
	Cols         int
	Rows         int
	WorkDir      string
	PromptSymbol string
}

var upgrader = websocket.Upgrader{
	// Origin/locality/auth are enforced by Authorize before the upgrade is
	// attempted; the upgrader itself does no additional origin check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleUpgrade runs the upgrade gate, and on success upgrades the
// connection and pumps frames until the session or socket closes.
func HandleUpgrade(w http.ResponseWriter, r *http.Request, cfg Config) {
	if status := Authorize(r, cfg.Auth); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := NewSession(r.Context(), cfg.Cols, cfg.Rows, cfg.WorkDir, cfg.UseTmux)
	if err != nil {
		log.Warn("spawning host terminal session failed: %v", err)
		_ = conn.WriteJSON(newStatusFrame("failed to start terminal", "error"))
		return
	}
	defer session.Close()

	connectionID := uuid.NewString()
	ready := session.Ready(r.Context(), cfg.PromptSymbol)
	ready.ConnectionID = connectionID
	if err := conn.WriteJSON(ready); err != nil {
		return
	}
	log.Info("host terminal connection %s established", connectionID)

	done := make(chan struct{})
	go pumpOutput(conn, session, done)
	pumpInput(r.Context(), conn, session)
	close(done)
}

// pumpOutput forwards PTY events to the client until the session closes.
func pumpOutput(conn *websocket.Conn, session *Session, done <-chan struct{}) {
	for {
		select {
		case ev, ok := <-session.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case PTYOutput:
				if err := conn.WriteJSON(newOutputFrame(ev.Data)); err != nil {
					return
				}
			case PTYError:
				if err := conn.WriteJSON(newStatusFrame(ev.Err.Error(), "error")); err != nil {
					return
				}
			case PTYClosed:
				_ = conn.WriteJSON(newStatusFrame("host terminal process exited", "error"))
				_ = conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

// pumpInput reads client frames until the connection closes or the
// session's process exits.
func pumpInput(ctx context.Context, conn *websocket.Conn, session *Session) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msgType, _, err := parseClientMessage(raw)
		if err != nil {
			_ = conn.WriteJSON(newStatusFrame("malformed message", "error"))
			continue
		}

		switch msgType {
		case "input":
			handleInput(conn, session, raw)
		case "resize":
			handleResize(ctx, conn, session, raw)
		case "switch_window":
			handleSwitchWindow(ctx, conn, session, raw)
		case "control":
			handleControl(ctx, conn, session, raw)
		case "ping":
			_ = conn.WriteJSON(pongFrame)
		default:
			_ = conn.WriteJSON(newStatusFrame("unknown message type: "+msgType, "error"))
		}
	}
}

func handleInput(conn *websocket.Conn, session *Session, raw []byte) {
	var msg InputMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		_ = conn.WriteJSON(newStatusFrame("malformed input message", "error"))
		return
	}
	if len(msg.Data) > maxInputBytes {
		_ = conn.WriteJSON(newStatusFrame("input exceeds 8 KiB limit", "error"))
		return
	}
	if err := session.Write([]byte(msg.Data)); err != nil {
		_ = conn.WriteJSON(newStatusFrame(err.Error(), "error"))
	}
}

func handleResize(ctx context.Context, conn *websocket.Conn, session *Session, raw []byte) {
	var msg ResizeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		_ = conn.WriteJSON(newStatusFrame("malformed resize message", "error"))
		return
	}
	if msg.Cols < 2 || msg.Rows < 1 {
		_ = conn.WriteJSON(newStatusFrame("resize must be at least 2x1", "error"))
		return
	}
	if err := session.Resize(ctx, msg.Cols, msg.Rows); err != nil {
		_ = conn.WriteJSON(newStatusFrame(err.Error(), "error"))
	}
}

func handleSwitchWindow(ctx context.Context, conn *websocket.Conn, session *Session, raw []byte) {
	var msg SwitchWindowMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		_ = conn.WriteJSON(newStatusFrame("malformed switch_window message", "error"))
		return
	}
	windowID, err := session.SwitchWindow(ctx, msg.Window)
	if err != nil {
		_ = conn.WriteJSON(newStatusFrame(err.Error(), "error"))
		return
	}
	_ = conn.WriteJSON(ActiveWindowFrame{Type: "active_window", WindowID: windowID})
}

func handleControl(ctx context.Context, conn *websocket.Conn, session *Session, raw []byte) {
	var msg ControlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		_ = conn.WriteJSON(newStatusFrame("malformed control message", "error"))
		return
	}

	var err error
	switch msg.Action {
	case "restart":
		err = session.Restart(ctx)
	case "ctrl_c":
		err = session.ControlCtrlC()
	case "clear":
		err = session.ControlClear()
	default:
		err = errUnknownControlAction
	}
	if err != nil {
		_ = conn.WriteJSON(newStatusFrame(err.Error(), "error"))
	}
}

var errUnknownControlAction = &controlActionError{}

type controlActionError struct{}

func (*controlActionError) Error() string { return "unknown control action" }
