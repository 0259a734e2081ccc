package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltislabs/moltis/internal/browser"
)

type browserHandlers struct {
	pool *browser.Pool
}

type instanceView struct {
	SessionID string `json:"session_id"`
	IdleSince string `json:"idle_since"`
}

// ListInstances reports every currently pooled browser instance.
func (h *browserHandlers) ListInstances(c *gin.Context) {
	snapshot := h.pool.Snapshot()
	views := make([]instanceView, 0, len(snapshot))
	for _, inst := range snapshot {
		views = append(views, instanceView{SessionID: inst.SessionID, IdleSince: inst.IdleSince.Format(http.TimeFormat)})
	}
	c.JSON(http.StatusOK, gin.H{"instances": views})
}
