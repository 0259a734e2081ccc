package provider

import "context"

// CompletionRequest is the minimal request shape a Handle's Complete/Stream
// operations accept. Wire-format adaptation per upstream vendor lives in
// internal/provider/providers; this type is the registry-facing contract.
type CompletionRequest struct {
	Messages []Message
	Tools    []ToolSpec
	Stream   bool
}

// Message is one chat turn.
type Message struct {
	Role    string // system | user | assistant | tool
	Content string
}

// ToolSpec names a callable tool the model may invoke.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// CompletionChunk is one unit of a streamed response.
type CompletionChunk struct {
	Delta    string
	ToolCall *ToolCall
	Done     bool
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	Name      string
	Arguments string // raw JSON, possibly malformed upstream (see providers.OpenAICompatible)
}

// CompletionResult is the non-streamed response shape.
type CompletionResult struct {
	Content   string
	ToolCalls []ToolCall
}

// Handle is the polymorphism every registered provider binding implements
// (a "capability set"): complete/stream plus capability queries
// that are pure functions of the raw model id.
type Handle interface {
	// ID returns the namespaced model id, regardless of what the
	// underlying binding considers its own identity — the registry wraps
	// every handle to guarantee this.
	ID() string
	Provider() string

	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	Stream(ctx context.Context, req CompletionRequest) (<-chan CompletionChunk, error)

	SupportsTools() bool
	SupportsVision() bool
	ContextWindow() int
}

// namespacedHandle wraps an inner Handle so ID() always returns the
// registry's namespaced id, independent of the inner handle's own opinion.
type namespacedHandle struct {
	Handle
	namespacedID string
}

func (w *namespacedHandle) ID() string { return w.namespacedID }

// wrapNamespaced returns h wrapped to report id as its ID().
func wrapNamespaced(id string, h Handle) Handle {
	return &namespacedHandle{Handle: h, namespacedID: id}
}
