package channel

import (
	"context"
	"fmt"
)

// TranscriptionResult is the outcome of a speech-to-text call.
type TranscriptionResult struct {
	Text string
}

// VoiceTranscriber is the external speech-to-text collaborator.
type VoiceTranscriber interface {
	TranscribeBytes(ctx context.Context, audio []byte, format string) (TranscriptionResult, error)
}

// transcribeInbound runs voice transcription on an inbound voice message,
// failing if the transcriber returns no text.
func transcribeInbound(ctx context.Context, transcriber VoiceTranscriber, audio []byte, format string) (string, error) {
	if transcriber == nil {
		return "", fmt.Errorf("voice transcription is not configured")
	}
	result, err := transcriber.TranscribeBytes(ctx, audio, format)
	if err != nil {
		return "", fmt.Errorf("transcribe voice message: %w", err)
	}
	if result.Text == "" {
		return "", fmt.Errorf("voice transcription returned no text")
	}
	return result.Text, nil
}
