// Package backends implements concrete ChannelBackend adapters (Telegram,
// Discord) for internal/channel's event sink.
package backends

import "context"

// InboundMessage is a normalized inbound event handed to the sink,
// regardless of which wire protocol produced it.
type InboundMessage struct {
	ChannelType string
	AccountID   string
	ChatID      string
	UserID      string
	Text        string
	HasImage    bool
	ImageBytes  []byte
	ImageMedia  string
	VoiceBytes  []byte
	VoiceFormat string
	Location    *LocationUpdate
	Meta        map[string]string
}

// LocationUpdate carries a location share from the originating chat app.
type LocationUpdate struct {
	Latitude  float64
	Longitude float64
}

// ImagePart is one inline image to send alongside a reply's text.
type ImagePart struct {
	Bytes     []byte
	MediaType string
}

// Backend is the wire-protocol-specific half of a channel: send text,
// send a typing indicator, and (for outbound backends) enumerate which
// account's updates it owns.
type Backend interface {
	ChannelType() string
	AccountID() string
	SendText(ctx context.Context, chatID, text string) error
	SendTyping(ctx context.Context, accountID, chatID string) error
	SendImages(ctx context.Context, chatID, text string, images []ImagePart) error
}

// InboundHandler is invoked by a Backend's polling/webhook loop for every
// message it receives.
type InboundHandler func(ctx context.Context, msg InboundMessage)
