package channel

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/moltislabs/moltis/internal/channel/backends"
	"github.com/moltislabs/moltis/internal/provider"
	"github.com/moltislabs/moltis/internal/sandbox"
)

// SetSandboxRouter wires the sandbox router the /sandbox command inspects
// and mutates. Optional: if unset, /sandbox reports itself unavailable.
func (s *Sink) SetSandboxRouter(r *sandbox.Router) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sandboxRouter = r
}

// IsCommand reports whether text is a recognized slash command invocation.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// HandleCommand resolves msg's session key and dispatches a slash command,
// returning the short markdown reply to send back to the chat.
func (s *Sink) HandleCommand(ctx context.Context, msg backends.InboundMessage, text string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty command")
	}
	cmd, rest := fields[0], fields[1:]

	fk := ForwardKey{ChannelType: msg.ChannelType, AccountID: msg.AccountID, ChatID: msg.ChatID}
	sessionKey, err := s.store.ResolveSessionKey(ctx, fk)
	if err != nil {
		return "", err
	}

	switch cmd {
	case "/new":
		return s.cmdNew(ctx, fk)
	case "/clear":
		return s.cmdClear(ctx, sessionKey)
	case "/compact":
		return s.cmdCompact(ctx, sessionKey)
	case "/context":
		return s.cmdContext(ctx, sessionKey)
	case "/sessions":
		return s.cmdSessions(ctx, fk, rest)
	case "/model":
		return s.cmdModel(ctx, sessionKey, rest)
	case "/sandbox":
		return s.cmdSandbox(ctx, sessionKey, rest)
	default:
		return fmt.Sprintf("unknown command: %s", cmd), nil
	}
}

func (s *Sink) cmdNew(ctx context.Context, fk ForwardKey) (string, error) {
	sessionKey := fmt.Sprintf("%s:new:%s", fk.DefaultSessionKey(), newSuffix())
	if err := s.store.SetForwardOverride(ctx, fk, sessionKey); err != nil {
		return "", err
	}
	if _, err := s.store.EnsureSession(ctx, fk.ChannelType, fk.ChatID, sessionKey); err != nil {
		return "", err
	}
	s.publish(BroadcastEvent{Kind: EventSession, SessionKey: sessionKey, ChannelType: fk.ChannelType})
	return "Started a new session.", nil
}

func (s *Sink) cmdClear(ctx context.Context, sessionKey string) (string, error) {
	if err := s.chat.Clear(ctx, sessionKey); err != nil {
		return "", err
	}
	return "Session cleared.", nil
}

func (s *Sink) cmdCompact(ctx context.Context, sessionKey string) (string, error) {
	return s.chat.Compact(ctx, sessionKey)
}

func (s *Sink) cmdContext(ctx context.Context, sessionKey string) (string, error) {
	return s.chat.ContextSummary(ctx, sessionKey)
}

func (s *Sink) cmdSessions(ctx context.Context, fk ForwardKey, args []string) (string, error) {
	rows, err := s.store.ListSessionsForChat(ctx, fk.ChannelType, fk.ChatID)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		active, err := s.store.ResolveSessionKey(ctx, fk)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, row := range rows {
			marker := " "
			if row.SessionKey == active {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s %d. session %s\n", marker, row.Label, row.SessionKey)
		}
		if b.Len() == 0 {
			return "No sessions yet.", nil
		}
		return b.String(), nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 || n > len(rows) {
		return "", fmt.Errorf("unknown session %s", args[0])
	}
	target := rows[n-1]
	if err := s.store.SetForwardOverride(ctx, fk, target.SessionKey); err != nil {
		return "", err
	}
	s.publish(BroadcastEvent{Kind: EventSession, SessionKey: target.SessionKey, ChannelType: fk.ChannelType})
	return fmt.Sprintf("Switched to session %d.", n), nil
}

func (s *Sink) cmdModel(ctx context.Context, sessionKey string, args []string) (string, error) {
	models := s.registryRef.Get().Load().Models()

	if len(args) == 0 {
		providers := distinctProviders(models)
		if len(providers) > 1 {
			var b strings.Builder
			b.WriteString("providers:\n")
			for i, p := range providers {
				fmt.Fprintf(&b, "%d. %s\n", i+1, p)
			}
			return b.String(), nil
		}
		return formatModelList(models), nil
	}

	if strings.HasPrefix(args[0], "provider:") {
		name := strings.TrimPrefix(args[0], "provider:")
		var filtered []provider.ModelInfo
		for _, m := range models {
			if m.Provider == name {
				filtered = append(filtered, m)
			}
		}
		return formatModelList(filtered), nil
	}

	idx, err := strconv.Atoi(args[0])
	if err != nil || idx <= 0 || idx > len(models) {
		return "", fmt.Errorf("unknown model index %s", args[0])
	}
	chosen := models[idx-1]
	if err := s.store.SetSessionModel(ctx, sessionKey, chosen.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Using %s.", displayNameOr(chosen.DisplayName, chosen.ID)), nil
}

func formatModelList(models []provider.ModelInfo) string {
	var b strings.Builder
	for i, m := range models {
		fmt.Fprintf(&b, "%d. %s\n", i+1, displayNameOr(m.DisplayName, m.ID))
	}
	return b.String()
}

func displayNameOr(display, id string) string {
	if display != "" {
		return display
	}
	return id
}

func distinctProviders(models []provider.ModelInfo) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range models {
		if !seen[m.Provider] {
			seen[m.Provider] = true
			out = append(out, m.Provider)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Sink) cmdSandbox(ctx context.Context, sessionKey string, args []string) (string, error) {
	s.mu.RLock()
	router := s.sandboxRouter
	s.mu.RUnlock()
	if router == nil {
		return "", fmt.Errorf("sandboxing is not configured")
	}

	if len(args) == 0 {
		images, err := router.ListCachedImages(ctx)
		if err != nil {
			return "", err
		}
		if len(images) == 0 {
			return "No cached sandbox images.", nil
		}
		return strings.Join(images, "\n"), nil
	}

	switch args[0] {
	case "on":
		router.SetSessionOverride(sessionKey, true)
		return "Sandbox enabled for this session.", nil
	case "off":
		router.SetSessionOverride(sessionKey, false)
		return "Sandbox disabled for this session.", nil
	case "image":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: /sandbox image <tag>")
		}
		router.SetSessionImage(sessionKey, args[1])
		return fmt.Sprintf("Session sandbox image set to %s.", args[1]), nil
	default:
		return "", fmt.Errorf("usage: /sandbox [on|off|image <tag>]")
	}
}

// newSuffix returns a monotonically-sortable suffix for a "new chat" session
// key, so a chat history ordered by session key also reflects creation order.
func newSuffix() string {
	return strings.ToLower(ulid.Make().String())
}
