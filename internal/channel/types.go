// Package channel routes inbound external-channel messages (Telegram,
// Discord, ...) to a resolvable session key, dispatches them to the chat
// service, and fans replies back to the originating chat.
package channel

import (
	"context"
	"encoding/json"

	"github.com/moltislabs/moltis/internal/channel/backends"
)

// ReplyTarget identifies where an assistant reply for one inbound message
// must be sent back to.
type ReplyTarget struct {
	ChannelType string `json:"channel_type"`
	AccountID   string `json:"account_id"`
	ChatID      string `json:"chat_id"`
	MessageID   string `json:"message_id,omitempty"`
}

func (t ReplyTarget) serialize() string {
	b, _ := json.Marshal(t)
	return string(b)
}

// ImagePart is a type alias of backends.ImagePart (the same type, not a
// copy), re-exported so ChatService implementations can name it through
// this package.
type ImagePart = backends.ImagePart

// ChatParams is what the sink hands to the chat service for one turn.
type ChatParams struct {
	SessionKey string
	Text       string
	Images     []ImagePart
	ChannelMeta map[string]string
	Model      string // empty: let the chat service pick/keep the session's model
}

// ChatResult is the chat service's reply to one turn.
type ChatResult struct {
	Text string
}

// ChatService is the external collaborator that actually runs an agent
// turn; this package only orchestrates getting a message to it and a reply
// back out. Clear/Compact/ContextSummary back the /clear, /compact, and
// /context slash commands.
type ChatService interface {
	Send(ctx context.Context, params ChatParams) (ChatResult, error)
	Clear(ctx context.Context, sessionKey string) error
	Compact(ctx context.Context, sessionKey string) (string, error)
	ContextSummary(ctx context.Context, sessionKey string) (string, error)
}

// BroadcastEventKind enumerates UI broadcast event types the sink emits.
type BroadcastEventKind string

const (
	EventChat         BroadcastEventKind = "chat"
	EventSession       BroadcastEventKind = "session"
	EventAccountDisabled BroadcastEventKind = "account_disabled"
)

// BroadcastEvent is published on the sink's UI broadcast channel.
type BroadcastEvent struct {
	Kind         BroadcastEventKind
	State        string
	Text         string
	Meta         map[string]string
	SessionKey   string
	MessageIndex int
	ChannelType  string
	AccountID    string
	Reason       string
}
