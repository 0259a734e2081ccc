package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltislabs/moltis/internal/sandbox"
)

type sandboxHandlers struct {
	router *sandbox.Router
}

type buildImageRequest struct {
	Base     string   `json:"base" binding:"required"`
	Packages []string `json:"packages"`
}

// BuildImage triggers an image build for the given base + package set.
func (h *sandboxHandlers) BuildImage(c *gin.Context) {
	var req buildImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	built, err := h.router.BuildImage(c.Request.Context(), req.Base, req.Packages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if built == nil {
		c.JSON(http.StatusOK, gin.H{"built": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"built": built.Built, "tag": built.Tag})
}

// ListImages lists cached sandbox images, if the backend supports it.
func (h *sandboxHandlers) ListImages(c *gin.Context) {
	images, err := h.router.ListCachedImages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}
