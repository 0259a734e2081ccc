package terminal

import (
	"encoding/json"
	"testing"
)

func TestParseClientMessageReadsTypeDiscriminator(t *testing.T) {
	msgType, raw, err := parseClientMessage([]byte(`{"type":"resize","cols":80,"rows":24}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msgType != "resize" {
		t.Fatalf("expected type=resize, got %q", msgType)
	}
	var msg ResizeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal resize: %v", err)
	}
	if msg.Cols != 80 || msg.Rows != 24 {
		t.Fatalf("unexpected resize payload: %+v", msg)
	}
}

func TestNewOutputFrameEncodesBase64(t *testing.T) {
	frame := newOutputFrame([]byte("hi"))
	if frame.Type != "output" || frame.Encoding != "base64" {
		t.Fatalf("unexpected frame shape: %+v", frame)
	}
	if frame.Data != "aGk=" {
		t.Fatalf("expected base64 of 'hi', got %q", frame.Data)
	}
}
