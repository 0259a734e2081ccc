package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/moltislabs/moltis/internal/errkit"
	"github.com/moltislabs/moltis/internal/provider"
)

// Bedrock fills the "optional secondary backends" bucket:
// a generic streaming SDK that lacks tool calling, so it can never outrank
// a tool-capable registration. Grounded on ferro-labs-ai-gateway's
// providers/bedrock.go InvokeModel usage, narrowed to the Anthropic-on-
// Bedrock model family (this gateway's registry already has a richer
// first-party Anthropic binding; Bedrock exists here purely to exercise
// aws-sdk-go-v2).
type Bedrock struct {
	namespacedID string
	rawModel     string
	client       *bedrockruntime.Client
	breaker      *errkit.CircuitBreaker
}

// NewBedrock loads the default AWS credential chain for region (defaulting
// to us-east-1) and binds to modelID.
func NewBedrock(ctx context.Context, modelID, region string) (*Bedrock, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	return &Bedrock{
		namespacedID: provider.NamespacedModelID("bedrock", modelID),
		rawModel:     modelID,
		client:       bedrockruntime.NewFromConfig(cfg),
		breaker:      errkit.NewCircuitBreaker("bedrock::"+modelID, errkit.DefaultCircuitBreakerConfig()),
	}, nil
}

func (b *Bedrock) ID() string       { return b.namespacedID }
func (b *Bedrock) Provider() string { return "bedrock" }

// SupportsTools always returns false: Bedrock's InvokeModel surface here
// only implements complete/stream, matching its "lacks tool calling"
// secondary-backend bucket.
func (b *Bedrock) SupportsTools() bool  { return false }
func (b *Bedrock) SupportsVision() bool { return false }
func (b *Bedrock) ContextWindow() int   { return provider.ContextWindow(b.rawModel) }

type bedrockAnthropicRequest struct {
	AnthropicVersion string                 `json:"anthropic_version"`
	MaxTokens        int                    `json:"max_tokens"`
	Messages         []bedrockMessage       `json:"messages"`
	System           string                 `json:"system,omitempty"`
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockAnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete invokes the Bedrock-hosted Anthropic model via InvokeModel.
func (b *Bedrock) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResult, error) {
	return errkit.ExecuteFunc(b.breaker, ctx, func(ctx context.Context) (provider.CompletionResult, error) {
		var system string
		var messages []bedrockMessage
		for _, m := range req.Messages {
			if m.Role == "system" {
				system = m.Content
				continue
			}
			messages = append(messages, bedrockMessage{Role: m.Role, Content: m.Content})
		}

		body, err := json.Marshal(bedrockAnthropicRequest{
			AnthropicVersion: "bedrock-2023-05-31",
			MaxTokens:        4096,
			Messages:         messages,
			System:           system,
		})
		if err != nil {
			return provider.CompletionResult{}, err
		}

		out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(b.rawModel),
			ContentType: aws.String("application/json"),
			Body:        body,
		})
		if err != nil {
			return provider.CompletionResult{}, errkit.NewTransientError(err, "bedrock invoke failed")
		}

		var parsed bedrockAnthropicResponse
		if err := json.Unmarshal(out.Body, &parsed); err != nil {
			return provider.CompletionResult{}, err
		}
		var result provider.CompletionResult
		for _, block := range parsed.Content {
			if block.Type == "text" {
				result.Content += block.Text
			}
		}
		return result, nil
	})
}

// Stream does not use InvokeModelWithResponseStream: it calls Complete and
// emits the whole reply as one delta chunk followed by a Done chunk.
func (b *Bedrock) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.CompletionChunk, error) {
	result, err := b.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	ch := make(chan provider.CompletionChunk, 2)
	ch <- provider.CompletionChunk{Delta: result.Content}
	ch <- provider.CompletionChunk{Done: true}
	close(ch)
	return ch, nil
}
