package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltislabs/moltis/internal/provider"
)

type providerHandlers struct {
	registry *provider.Container
}

type modelView struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	DisplayName string `json:"display_name"`
	CreatedAt   *int64 `json:"created_at,omitempty"`
}

// List returns the currently registered model catalog.
func (h *providerHandlers) List(c *gin.Context) {
	models := h.registry.Load().Models()
	out := make([]modelView, len(models))
	for i, m := range models {
		out[i] = modelView{ID: m.ID, Provider: m.Provider, DisplayName: m.DisplayName, CreatedAt: m.CreatedAt}
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}
