package main

import (
	"context"
	"fmt"

	"github.com/moltislabs/moltis/internal/channel"
)

// echoChatService is a placeholder for the external agent-runtime
// collaborator this gateway dispatches chat turns to. A real deployment
// wires moltisd up to that runtime over its own RPC transport (out of
// scope here); until then this keeps `moltisd serve` runnable end to end.
type echoChatService struct{}

func (echoChatService) Send(ctx context.Context, params channel.ChatParams) (channel.ChatResult, error) {
	return channel.ChatResult{Text: fmt.Sprintf("echo: %s", params.Text)}, nil
}

func (echoChatService) Clear(ctx context.Context, sessionKey string) error { return nil }

func (echoChatService) Compact(ctx context.Context, sessionKey string) (string, error) {
	return "", nil
}

func (echoChatService) ContextSummary(ctx context.Context, sessionKey string) (string, error) {
	return "", nil
}
