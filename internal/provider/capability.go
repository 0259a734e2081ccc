package provider

import "strings"

// ContextWindow returns the capability-table context window for a raw or
// namespaced model id, driven by prefix match on CapabilityModelID.
func ContextWindow(modelID string) int {
	m := strings.ToLower(CapabilityModelID(modelID))
	switch {
	case strings.HasPrefix(m, "codestral"):
		return 256_000
	case strings.HasPrefix(m, "claude"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4-mini"):
		return 200_000
	case strings.HasPrefix(m, "gpt-4"), strings.HasPrefix(m, "gpt-5"),
		strings.HasPrefix(m, "mistral-large"), strings.HasPrefix(m, "kimi"),
		strings.HasPrefix(m, "glm"), strings.HasPrefix(m, "minimax"):
		return 204_800
	case strings.HasPrefix(m, "gemini"):
		return 1_000_000
	default:
		return 200_000
	}
}

var nonChatInfixes = []string{"image", "tts", "stt", "embedding", "moderation", "realtime"}

// IsChatCapableModel rejects image, TTS, STT, embedding, moderation, and
// realtime families by prefix or infix.
func IsChatCapableModel(modelID string) bool {
	m := strings.ToLower(CapabilityModelID(modelID))
	for _, infix := range nonChatInfixes {
		if strings.Contains(m, infix) {
			return false
		}
	}
	return true
}

var legacyCompletionOnlyPrefixes = []string{"babbage", "davinci"}

// SupportsToolsForModel rejects legacy completion-only families and
// non-chat families.
func SupportsToolsForModel(modelID string) bool {
	if !IsChatCapableModel(modelID) {
		return false
	}
	m := strings.ToLower(CapabilityModelID(modelID))
	for _, prefix := range legacyCompletionOnlyPrefixes {
		if strings.HasPrefix(m, prefix) {
			return false
		}
	}
	return true
}

// SupportsVisionForModel reports whether modelID belongs to a
// vision-capable family.
func SupportsVisionForModel(modelID string) bool {
	m := strings.ToLower(CapabilityModelID(modelID))
	switch {
	case strings.HasPrefix(m, "claude"):
		return true
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "gpt-4-turbo"), strings.HasPrefix(m, "gpt-5"):
		return true
	case strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return true
	case strings.HasPrefix(m, "gemini"):
		return true
	case strings.HasPrefix(m, "glm") && strings.Contains(m, "vision"):
		return true
	default:
		return false
	}
}
