package providers

// NewLlamaCPP builds a thin HTTP client against a local llama.cpp server, gated by
// config (the local GGUF / MLX providers step), grounded on the
// teacher's internal/infra/llm/llamacpp_client.go reference. It reuses the
// OpenAI-compatible builder since llama.cpp's server exposes an
// OpenAI-compatible /v1/chat/completions endpoint by default.
func NewLlamaCPP(model, baseURL string) *OpenAICompatible {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	return NewOpenAICompatible("llamacpp", model, "", baseURL)
}
