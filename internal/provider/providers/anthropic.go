package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/moltislabs/moltis/internal/errkit"
	"github.com/moltislabs/moltis/internal/httpclient"
	"github.com/moltislabs/moltis/internal/provider"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com"

// Anthropic is a hand-rolled HTTPS client over net/http+encoding/json — no
// Anthropic Go SDK exists in the example corpus, so this binding stays on
// the standard library, grounded on the teacher's own
// internal/infra/llm/openai_client.go hand-rolled-client idiom.
type Anthropic struct {
	namespacedID string
	rawModel     string
	apiKey       string
	baseURL      string
	breaker      *errkit.CircuitBreaker
}

// NewAnthropic builds a client for model, defaulting baseURL when empty.
func NewAnthropic(model, apiKey, baseURL string) *Anthropic {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &Anthropic{
		namespacedID: provider.NamespacedModelID("anthropic", model),
		rawModel:     model,
		apiKey:       apiKey,
		baseURL:      baseURL,
		breaker:      errkit.NewCircuitBreaker("anthropic::"+model, errkit.DefaultCircuitBreakerConfig()),
	}
}

func (a *Anthropic) ID() string       { return a.namespacedID }
func (a *Anthropic) Provider() string { return "anthropic" }
func (a *Anthropic) SupportsTools() bool  { return provider.SupportsToolsForModel(a.rawModel) }
func (a *Anthropic) SupportsVision() bool { return provider.SupportsVisionForModel(a.rawModel) }
func (a *Anthropic) ContextWindow() int   { return provider.ContextWindow(a.rawModel) }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
	Stream    bool               `json:"stream"`
}

type anthropicContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a non-streamed /v1/messages request.
func (a *Anthropic) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	return errkit.ExecuteFunc(a.breaker, ctx, func(ctx context.Context) (provider.CompletionResult, error) {
		body := anthropicRequest{
			Model:     a.rawModel,
			Messages:  toAnthropicMessages(req.Messages),
			MaxTokens: 4096,
		}
		var parsed anthropicResponse
		if err := a.doJSON(ctx, body, &parsed); err != nil {
			return provider.CompletionResult{}, err
		}
		if parsed.Error != nil {
			return provider.CompletionResult{}, classifyAnthropicError(parsed.Error.Type, parsed.Error.Message)
		}
		var result provider.CompletionResult
		for _, block := range parsed.Content {
			switch block.Type {
			case "text":
				result.Content += block.Text
			case "tool_use":
				result.ToolCalls = append(result.ToolCalls, provider.ToolCall{
					Name:      block.Name,
					Arguments: string(block.Input),
				})
			}
		}
		return result, nil
	})
}

// Stream does not use the streaming mode of /v1/messages: it calls
// Complete and emits the whole reply as one delta chunk followed by a Done
// chunk. Tool calls in the reply are not forwarded.
func (a *Anthropic) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.CompletionChunk, error) {
	result, err := a.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	ch := make(chan provider.CompletionChunk, 2)
	ch <- provider.CompletionChunk{Delta: result.Content}
	ch <- provider.CompletionChunk{Done: true}
	close(ch)
	return ch, nil
}

func (a *Anthropic) doJSON(ctx context.Context, body anthropicRequest, out *anthropicResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httpclient.Shared().Do(httpReq)
	if err != nil {
		return errkit.NewTransientError(err, "anthropic request failed")
	}
	defer resp.Body.Close()

	data, err := httpclient.ReadAllWithLimit(resp.Body, httpclient.DefaultMaxResponseBytes)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &errkit.TransportError{
			Err:          fmt.Errorf("anthropic: rate limited"),
			RetryAfterMs: retryAfterMsFromHeader(resp.Header),
		}
	}
	if resp.StatusCode >= 500 {
		return errkit.NewTransientError(fmt.Errorf("anthropic: HTTP %d", resp.StatusCode), "server error")
	}
	if resp.StatusCode >= 400 {
		return errkit.NewPermanentError(fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(data)), "client error")
	}
	return json.Unmarshal(data, out)
}

func toAnthropicMessages(msgs []provider.Message) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(msgs))
	for _, m := range msgs {
		role := m.Role
		if role == "system" {
			// Anthropic's messages API takes system prompt as a top-level
			// field, not a message; here we fold it into a user turn since
			// CompletionRequest has no separate system slot.
			role = "user"
		}
		out = append(out, anthropicMessage{Role: role, Content: m.Content})
	}
	return out
}

func classifyAnthropicError(errType, msg string) error {
	switch errType {
	case "rate_limit_error", "overloaded_error":
		return errkit.NewTransientError(fmt.Errorf("anthropic: %s", msg), errType)
	case "authentication_error", "permission_error", "not_found_error", "invalid_request_error":
		return errkit.NewPermanentError(fmt.Errorf("anthropic: %s", msg), errType)
	default:
		return fmt.Errorf("anthropic: %s: %s", errType, msg)
	}
}

func retryAfterMsFromHeader(h http.Header) int {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(v, "%d", &seconds); err != nil {
		return 0
	}
	return seconds * 1000
}

// errkitTransportLike pairs a raw transport failure with a retry-after value
// in milliseconds. It has no methods and nothing constructs it; doJSON
// returns errkit.TransportError directly.
type errkitTransportLike struct {
	err          error
	retryAfterMs int
}

