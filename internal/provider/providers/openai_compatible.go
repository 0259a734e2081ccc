// Package providers implements the concrete vendor bindings the rebuild
// pipeline wires in, each satisfying
// provider.Handle. Grounded on the teacher's internal/infra/llm client
// idioms and ferro-labs-ai-gateway's openai-go usage.
package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/moltislabs/moltis/internal/errkit"
	"github.com/moltislabs/moltis/internal/kaptinjson"
	"github.com/moltislabs/moltis/internal/provider"
)

// OpenAICompatible adapts any OpenAI-compatible /chat/completions surface
// (the vendor table, user-defined custom-* providers
// in step 3, and the official OpenAI API itself) onto provider.Handle.
type OpenAICompatible struct {
	namespacedID  string
	providerName  string
	rawModel      string
	client        openai.Client
	breaker       *errkit.CircuitBreaker
	supportsTools bool
}

// NewOpenAICompatible builds a client pointed at baseURL (empty string uses
// the SDK's default https://api.openai.com), scoped to model.
func NewOpenAICompatible(providerName, model, apiKey, baseURL string) *OpenAICompatible {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompatible{
		namespacedID:  provider.NamespacedModelID(providerName, model),
		providerName:  providerName,
		rawModel:      model,
		client:        openai.NewClient(opts...),
		breaker:       errkit.NewCircuitBreaker(providerName+"::"+model, errkit.DefaultCircuitBreakerConfig()),
		supportsTools: provider.SupportsToolsForModel(model),
	}
}

func (o *OpenAICompatible) ID() string       { return o.namespacedID }
func (o *OpenAICompatible) Provider() string { return o.providerName }
func (o *OpenAICompatible) SupportsTools() bool  { return o.supportsTools }
func (o *OpenAICompatible) SupportsVision() bool { return provider.SupportsVisionForModel(o.rawModel) }
func (o *OpenAICompatible) ContextWindow() int   { return provider.ContextWindow(o.rawModel) }

// Complete issues a single non-streamed chat completion, repairing
// malformed tool-call-argument JSON via jsonrepair before returning it
// the tool-call JSON repair domain-stack wiring.
func (o *OpenAICompatible) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	return errkit.ExecuteFunc(o.breaker, ctx, func(ctx context.Context) (provider.CompletionResult, error) {
		params := openai.ChatCompletionNewParams{
			Messages: buildMessages(req.Messages),
			Model:    o.rawModel,
		}
		applyTools(&params, req.Tools)

		completion, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return provider.CompletionResult{}, classifyUpstreamError(err)
		}
		if len(completion.Choices) == 0 {
			return provider.CompletionResult{}, fmt.Errorf("openai-compatible: empty choices from %s", o.providerName)
		}
		choice := completion.Choices[0]
		result := provider.CompletionResult{Content: choice.Message.Content}
		for _, tc := range choice.Message.ToolCalls {
			args := kaptinjson.RepairOrPassthrough(tc.Function.Arguments)
			result.ToolCalls = append(result.ToolCalls, provider.ToolCall{
				Name:      tc.Function.Name,
				Arguments: args,
			})
		}
		return result, nil
	})
}

// Stream issues a streamed chat completion, forwarding deltas as they arrive.
func (o *OpenAICompatible) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.CompletionChunk, error) {
	if err := o.breaker.Allow(); err != nil {
		return nil, err
	}
	params := openai.ChatCompletionNewParams{
		Messages: buildMessages(req.Messages),
		Model:    o.rawModel,
	}
	applyTools(&params, req.Tools)

	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	out := make(chan provider.CompletionChunk)
	go func() {
		defer close(out)
		var streamErr error
		for stream.Next() {
			chunk := stream.Current()
			for _, c := range chunk.Choices {
				out <- provider.CompletionChunk{Delta: c.Delta.Content}
			}
		}
		streamErr = stream.Err()
		o.breaker.Mark(streamErr)
		out <- provider.CompletionChunk{Done: true}
	}()
	return out, nil
}

func buildMessages(msgs []provider.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func applyTools(params *openai.ChatCompletionNewParams, tools []provider.ToolSpec) {
	if len(tools) == 0 {
		return
	}
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Schema),
			},
		})
	}
	params.Tools = out
}

func classifyUpstreamError(err error) error {
	if errkit.IsPermanent(err) || errkit.IsTransient(err) {
		return err
	}
	return errkit.NewTransientError(err, "openai-compatible upstream call failed")
}
