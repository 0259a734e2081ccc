package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltislabs/moltis/internal/config"
)

type configHandlers struct{}

type validateResponse struct {
	Diagnostics []diagnosticView `json:"diagnostics"`
}

type diagnosticView struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}

// Validate runs config.Validate over the posted TOML body, returning every
// diagnostic with a 200 even when some are errors — diagnostics are the
// payload, not an error condition. A body that does not parse as TOML gets
// a 400.
func (h *configHandlers) Validate(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	diags, err := config.Validate(string(raw))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out := make([]diagnosticView, len(diags))
	for i, d := range diags {
		out[i] = diagnosticView{Severity: string(d.Severity), Category: d.Category, Path: d.Path, Message: d.Message}
	}
	c.JSON(http.StatusOK, validateResponse{Diagnostics: out})
}
