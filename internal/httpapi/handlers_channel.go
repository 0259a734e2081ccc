package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/moltislabs/moltis/internal/channel"
	"github.com/moltislabs/moltis/internal/channel/backends"
)

type channelHandlers struct {
	sink *channel.Sink
}

// webhookPayload is the generic shape an inbound channel webhook POST must
// match: enough to build an InboundMessage. Telegram/Discord use their own
// SDK receive loops (internal/channel/backends) instead of this route; this
// is the front door for channels delivered by webhook push.
type webhookPayload struct {
	AccountID string            `json:"account_id"`
	ChatID    string            `json:"chat_id"`
	UserID    string            `json:"user_id"`
	Text      string            `json:"text"`
	Meta      map[string]string `json:"meta"`
}

var webhookSchemaJSON = `{
	"type": "object",
	"required": ["account_id", "chat_id"],
	"properties": {
		"account_id": {"type": "string", "minLength": 1},
		"chat_id": {"type": "string", "minLength": 1},
		"user_id": {"type": "string"},
		"text": {"type": "string"},
		"meta": {"type": "object"}
	}
}`

var webhookSchema = compileWebhookSchema()

func compileWebhookSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("webhook.json", bytes.NewReader([]byte(webhookSchemaJSON))); err != nil {
		panic("httpapi: invalid webhook schema: " + err.Error())
	}
	schema, err := compiler.Compile("webhook.json")
	if err != nil {
		panic("httpapi: compile webhook schema: " + err.Error())
	}
	return schema
}

// Webhook validates an inbound channel-webhook JSON body against the
// declared schema before it reaches the channel sink.
func (h *channelHandlers) Webhook(c *gin.Context) {
	channelType := c.Param("type")

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if err := webhookSchema.Validate(generic); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := backends.InboundMessage{
		ChannelType: channelType,
		AccountID:   payload.AccountID,
		ChatID:      payload.ChatID,
		UserID:      payload.UserID,
		Text:        payload.Text,
		Meta:        payload.Meta,
	}
	if err := h.sink.Dispatch(c.Request.Context(), msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
