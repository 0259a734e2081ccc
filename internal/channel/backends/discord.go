package backends

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/moltislabs/moltis/internal/logging"
)

var discordLog = logging.NewComponentLogger("DiscordChannel")

// Discord is a Backend wrapping a discordgo gateway session.
type Discord struct {
	session   *discordgo.Session
	accountID string
	handler   InboundHandler
}

// NewDiscord creates a bot session for token, given without the "Bot "
// prefix; this function prepends it before handing it to discordgo.
func NewDiscord(token string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &Discord{session: session}, nil
}

func (d *Discord) ChannelType() string { return "discord" }
func (d *Discord) AccountID() string   { return d.accountID }

// Run opens the gateway connection and dispatches inbound messages to
// handler until ctx is cancelled.
func (d *Discord) Run(ctx context.Context, handler InboundHandler) error {
	d.handler = handler
	d.session.AddHandler(d.onMessageCreate)

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	if d.session.State.User != nil {
		d.accountID = d.session.State.User.ID
	}

	<-ctx.Done()
	return d.session.Close()
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	msg := InboundMessage{
		ChannelType: d.ChannelType(),
		AccountID:   d.accountID,
		ChatID:      m.ChannelID,
		UserID:      m.Author.ID,
		Text:        m.Content,
	}
	for _, att := range m.Attachments {
		if att.ContentType != "" && bytesHasImagePrefix(att.ContentType) {
			msg.HasImage = true
			break
		}
	}
	d.handler(context.Background(), msg)
}

func bytesHasImagePrefix(contentType string) bool {
	return len(contentType) >= 6 && contentType[:6] == "image/"
}

func (d *Discord) SendText(ctx context.Context, chatID, text string) error {
	_, err := d.session.ChannelMessageSend(chatID, text)
	return err
}

func (d *Discord) SendTyping(ctx context.Context, accountID, chatID string) error {
	err := d.session.ChannelTyping(chatID)
	if err != nil {
		discordLog.Warn("send typing to channel %s failed: %v", chatID, err)
	}
	return err
}

func (d *Discord) SendImages(ctx context.Context, chatID, text string, images []ImagePart) error {
	if len(images) == 0 {
		_, err := d.session.ChannelMessageSend(chatID, text)
		return err
	}
	files := make([]*discordgo.File, 0, len(images))
	for i, img := range images {
		files = append(files, &discordgo.File{
			Name:   fmt.Sprintf("image-%d", i),
			Reader: bytes.NewReader(img.Bytes),
		})
	}
	_, err := d.session.ChannelMessageSendComplex(chatID, &discordgo.MessageSend{Content: text, Files: files})
	return err
}
