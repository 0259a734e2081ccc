package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/moltislabs/moltis/internal/channel/backends"
	"github.com/moltislabs/moltis/internal/errkit"
	"github.com/moltislabs/moltis/internal/logging"
	"github.com/moltislabs/moltis/internal/provider"
	"github.com/moltislabs/moltis/internal/sandbox"
	"github.com/moltislabs/moltis/internal/syncutil"
	"github.com/moltislabs/moltis/internal/telemetry"
)

var log = logging.NewComponentLogger("ChannelSink")

const typingInterval = 4 * time.Second

// Sink is the single entry point inbound channel messages are fed through.
// It resolves a session key, dispatches to the chat service, and fans the
// reply back to the originating chat.
type Sink struct {
	store      *Store
	chat       ChatService
	registryRef *syncutil.Once[*provider.Container]
	replyTargets *replyTargetStacks
	voice      VoiceTranscriber

	mu       sync.RWMutex
	backends map[string]backends.Backend // keyed by channel_type
	channelModel map[string]string       // channel_type -> pinned model, from config
	sandboxRouter *sandbox.Router

	broadcast chan BroadcastEvent
}

// NewSink builds a Sink around store/chat/registryRef. The sink is wired up
// before the rest of the gateway state exists, so registryRef starts unset
// and is only resolved — blocking if necessary — once a message actually
// needs routing; the caller fills it in with syncutil.Once.Set once the
// provider registry rebuild finishes. The caller registers concrete
// backends with RegisterBackend before traffic starts flowing.
func NewSink(store *Store, chat ChatService, registryRef *syncutil.Once[*provider.Container], voice VoiceTranscriber) *Sink {
	return &Sink{
		store:        store,
		chat:         chat,
		registryRef:  registryRef,
		replyTargets: newReplyTargetStacks(),
		voice:        voice,
		backends:     make(map[string]backends.Backend),
		channelModel: make(map[string]string),
		broadcast:    make(chan BroadcastEvent, 64),
	}
}

// Broadcast exposes the sink's UI event channel.
func (s *Sink) Broadcast() <-chan BroadcastEvent { return s.broadcast }

func (s *Sink) publish(ev BroadcastEvent) {
	select {
	case s.broadcast <- ev:
	default:
		log.Warn("dropping channel broadcast event kind=%s session=%s, subscriber too slow", ev.Kind, ev.SessionKey)
	}
}

// RegisterBackend binds a wire-protocol backend to the channel type it
// serves, and pins its configured model (if any).
func (s *Sink) RegisterBackend(b backends.Backend, pinnedModel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[b.ChannelType()] = b
	if pinnedModel != "" {
		s.channelModel[b.ChannelType()] = pinnedModel
	}
}

func (s *Sink) backendFor(channelType string) (backends.Backend, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.backends[channelType]
	return b, ok
}

// AccountDisabled is broadcast when a channel backend detects its bot is
// running elsewhere, without touching persisted config so other replicas
// can keep polling.
func (s *Sink) AccountDisabled(channelType, accountID, reason string) {
	s.publish(BroadcastEvent{Kind: EventAccountDisabled, ChannelType: channelType, AccountID: accountID, Reason: reason})
}

// HandleLocation fulfills a pending tool-initiated location request for
// sessionKey, if one is outstanding.
func (s *Sink) HandleLocation(ctx context.Context, sessionKey string, loc backends.LocationUpdate) error {
	key := fmt.Sprintf("channel_location:%s", sessionKey)
	_, found, err := s.store.ConsumePendingInvoke(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	// The fulfillment payload {location:{latitude,longitude,accuracy:0.0}}
	// is handed back to whatever tool-execution runtime is awaiting it;
	// that runtime is an external collaborator of this package.
	return nil
}

// Dispatch runs the full inbound-message pipeline (steps 1-6), or, for a
// slash command, resolves and delegates it directly without touching the
// chat service's turn machinery.
func (s *Sink) Dispatch(ctx context.Context, msg backends.InboundMessage) (err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanChannelDispatch,
		attribute.String(telemetry.AttrChannel, msg.ChannelType),
	)
	defer func() { telemetry.End(span, err) }()

	if IsCommand(msg.Text) {
		backend, ok := s.backendFor(msg.ChannelType)
		if !ok {
			return fmt.Errorf("no backend registered for channel type %s", msg.ChannelType)
		}
		reply, err := s.HandleCommand(ctx, msg, msg.Text)
		if err != nil {
			reply = fmt.Sprintf("⚠️ %v", err)
		}
		if reply == "" {
			return nil
		}
		return backend.SendText(ctx, msg.ChatID, reply)
	}

	fk := ForwardKey{ChannelType: msg.ChannelType, AccountID: msg.AccountID, ChatID: msg.ChatID}
	sessionKey, err := s.store.ResolveSessionKey(ctx, fk)
	if err != nil {
		return err
	}

	replyTo := ReplyTarget{ChannelType: msg.ChannelType, AccountID: msg.AccountID, ChatID: msg.ChatID}

	text := msg.Text
	if len(msg.VoiceBytes) > 0 {
		transcribed, err := transcribeInbound(ctx, s.voice, msg.VoiceBytes, msg.VoiceFormat)
		if err != nil {
			return err
		}
		text = transcribed
	}
	if msg.Location != nil {
		if err := s.HandleLocation(ctx, sessionKey, *msg.Location); err != nil {
			return err
		}
	}
	if text == "" && msg.HasImage {
		text = "[Image]"
	}

	session, err := s.store.EnsureSession(ctx, msg.ChannelType, msg.ChatID, sessionKey)
	if err != nil {
		return err
	}
	msgIndex, err := s.store.NextMessageIndex(ctx, sessionKey)
	if err != nil {
		return err
	}

	// Step 1: broadcast the inbound chat event.
	s.publish(BroadcastEvent{
		Kind: EventChat, State: "channel_user", Text: text, Meta: msg.Meta,
		SessionKey: sessionKey, MessageIndex: msgIndex,
	})

	// Step 2: push the reply target.
	s.replyTargets.push(sessionKey, replyTo)

	// Step 3: persist the channel binding if this is the session's first.
	if err := s.store.SetChannelBindingIfAbsent(ctx, sessionKey, replyTo); err != nil {
		return err
	}

	// Step 4: compose chat params, resolving the model.
	params, err := s.composeChatParams(ctx, msg, sessionKey, session, text)
	if err != nil {
		return err
	}

	backend, ok := s.backendFor(msg.ChannelType)
	if !ok {
		return fmt.Errorf("no backend registered for channel type %s", msg.ChannelType)
	}

	// Step 5 + 6: typing heartbeat while awaiting the chat send.
	result, sendErr := s.sendWithTyping(ctx, backend, msg.AccountID, msg.ChatID, params)
	if sendErr != nil {
		if textErr := backend.SendText(ctx, msg.ChatID, fmt.Sprintf("⚠️ %v", sendErr)); textErr != nil {
			return &errkit.ChannelDispatchError{Err: textErr}
		}
		return nil
	}

	if result.Text != "" {
		return backend.SendText(ctx, msg.ChatID, result.Text)
	}
	return nil
}

func (s *Sink) composeChatParams(ctx context.Context, msg backends.InboundMessage, sessionKey string, session SessionRow, text string) (ChatParams, error) {
	var images []ImagePart
	if msg.HasImage && len(msg.ImageBytes) > 0 {
		images = append(images, ImagePart{Bytes: msg.ImageBytes, MediaType: msg.ImageMedia})
	}

	model := session.Model

	s.mu.RLock()
	pinned := s.channelModel[msg.ChannelType]
	s.mu.RUnlock()

	if pinned != "" {
		model = pinned
	} else if model == "" {
		reg := s.registryRef.Get().Load()
		models := reg.Models()
		if len(models) > 0 {
			model = models[0].ID
			if err := s.store.SetSessionModel(ctx, sessionKey, model); err != nil {
				return ChatParams{}, err
			}
			s.publish(BroadcastEvent{
				Kind: EventChat, State: "status_log", SessionKey: sessionKey,
				Text: fmt.Sprintf("Using %s. Use /model to change.", model),
			})
		}
	}

	return ChatParams{
		SessionKey:  sessionKey,
		Text:        text,
		Images:      images,
		ChannelMeta: msg.Meta,
		Model:       model,
	}, nil
}

// sendWithTyping runs a 4s typing-indicator heartbeat for the duration of
// the chat send, cancelled by a oneshot signal the instant the send
// completes.
func (s *Sink) sendWithTyping(ctx context.Context, backend backends.Backend, accountID, chatID string, params ChatParams) (ChatResult, error) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := backend.SendTyping(ctx, accountID, chatID); err != nil {
					log.Warn("typing indicator for chat %s failed: %v", chatID, err)
				}
			case <-done:
				return
			}
		}
	}()

	return s.chat.Send(ctx, params)
}
