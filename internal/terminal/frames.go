// Package terminal upgrades an authenticated, same-origin WebSocket into a
// live host terminal session backed by a PTY, optionally multiplexed
// through a tmux window.
package terminal

import (
	"encoding/base64"
	"encoding/json"
)

func encodeBase64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// ReadyFrame is the first frame sent after a successful upgrade.
type ReadyFrame struct {
	Type                 string `json:"type"`
	Available            bool   `json:"available"`
	Mode                 string `json:"mode"`
	User                 string `json:"user"`
	IsRoot               bool   `json:"isRoot,omitempty"`
	PromptSymbol         string `json:"promptSymbol"`
	PersistenceAvailable bool   `json:"persistenceAvailable"`
	PersistenceEnabled   bool   `json:"persistenceEnabled"`
	PersistenceMode      string `json:"persistenceMode"` // "tmux" | "ephemeral"
	SessionName          string `json:"sessionName,omitempty"`
	ActiveWindowID       string `json:"activeWindowId,omitempty"`
	TmuxInstallCommand   string `json:"tmuxInstallCommand,omitempty"`
	ConnectionID         string `json:"connectionId"`
}

// OutputFrame carries base64-encoded PTY output.
type OutputFrame struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Data     string `json:"data"`
}

func newOutputFrame(data []byte) OutputFrame {
	return OutputFrame{Type: "output", Encoding: "base64", Data: encodeBase64(data)}
}

// StatusFrame reports a status message at a given level ("info" | "error").
type StatusFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Level string `json:"level"`
}

func newStatusFrame(text, level string) StatusFrame {
	return StatusFrame{Type: "status", Text: text, Level: level}
}

// ActiveWindowFrame reports the tmux window currently attached.
type ActiveWindowFrame struct {
	Type     string `json:"type"`
	WindowID string `json:"windowId"`
}

// PongFrame answers a client ping.
type PongFrame struct {
	Type string `json:"type"`
}

var pongFrame = PongFrame{Type: "pong"}

// clientEnvelope is decoded once to read the `type` discriminator before
// unmarshaling into the concrete client message.
type clientEnvelope struct {
	Type string `json:"type"`
}

// InputMessage is a client keystroke/paste payload, bounded at 8 KiB.
type InputMessage struct {
	Data string `json:"data"`
}

// ResizeMessage requests a new terminal viewport.
type ResizeMessage struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// SwitchWindowMessage requests switching the attached tmux window, by
// either "@N" (tmux internal id) or a bare numeric index.
type SwitchWindowMessage struct {
	Window string `json:"window"`
}

// ControlMessage requests a lifecycle action on the PTY.
type ControlMessage struct {
	Action string `json:"action"` // restart | ctrl_c | clear
}

const maxInputBytes = 8 * 1024

func parseClientMessage(raw []byte) (string, json.RawMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, err
	}
	return env.Type, raw, nil
}
