package backends

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/moltislabs/moltis/internal/logging"
)

var telegramLog = logging.NewComponentLogger("TelegramChannel")

// Telegram is a Backend wrapping a long-polling tgbotapi.BotAPI connection.
type Telegram struct {
	bot       *tgbotapi.BotAPI
	accountID string
}

// NewTelegram authenticates against the Bot API with token.
func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticate: %w", err)
	}
	return &Telegram{bot: bot, accountID: fmt.Sprintf("%d", bot.Self.ID)}, nil
}

func (t *Telegram) ChannelType() string { return "telegram" }
func (t *Telegram) AccountID() string   { return t.accountID }

// Run starts the long-polling update loop, invoking handler for every
// normalized inbound message, until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context, handler InboundHandler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			handler(ctx, t.toInbound(update.Message))
		}
	}
}

func (t *Telegram) toInbound(m *tgbotapi.Message) InboundMessage {
	msg := InboundMessage{
		ChannelType: t.ChannelType(),
		AccountID:   t.accountID,
		ChatID:      fmt.Sprintf("%d", m.Chat.ID),
		UserID:      fmt.Sprintf("%d", m.From.ID),
		Text:        m.Text,
	}
	if m.Location != nil {
		msg.Location = &LocationUpdate{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	}
	if len(m.Photo) > 0 {
		msg.HasImage = true
	}
	if m.Voice != nil {
		msg.VoiceFormat = "ogg"
	}
	return msg
}

func (t *Telegram) SendText(ctx context.Context, chatID, text string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	_, err = t.bot.Send(tgbotapi.NewMessage(id, text))
	return err
}

func (t *Telegram) SendTyping(ctx context.Context, accountID, chatID string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	_, err = t.bot.Request(tgbotapi.NewChatAction(id, tgbotapi.ChatTyping))
	if err != nil {
		telegramLog.Warn("send typing to chat %s failed: %v", chatID, err)
	}
	return err
}

func (t *Telegram) SendImages(ctx context.Context, chatID, text string, images []ImagePart) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	for i, img := range images {
		caption := ""
		if i == 0 {
			caption = text
		}
		photo := tgbotapi.NewPhoto(id, tgbotapi.FileBytes{Name: "image", Bytes: img.Bytes})
		photo.Caption = caption
		if _, err := t.bot.Send(photo); err != nil {
			return fmt.Errorf("telegram: send image: %w", err)
		}
	}
	return nil
}

func parseChatID(chatID string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(chatID, "%d", &id); err != nil {
		return 0, fmt.Errorf("telegram: invalid chat id %q: %w", chatID, err)
	}
	return id, nil
}
