// assets.go implements handlers for asset cleanup tooling: orphan listing,
// reference inspection, and single or bulk deletion.
package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/portfolio-cms/portfolio-cms/internal/assets"
	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/middleware"
)

// AssetHandlers handles asset lifecycle API requests
type AssetHandlers struct {
	registry *assets.Registry
	manager  *assets.Manager
}

// NewAssetHandlers creates a new asset handler
func NewAssetHandlers(registry *assets.Registry, manager *assets.Manager) *AssetHandlers {
	return &AssetHandlers{registry: registry, manager: manager}
}

// assetSummary is the asset metadata row as served to clients.
type assetSummary struct {
	ID              string   `json:"id"`
	Path            string   `json:"path"`
	Alt             *string  `json:"alt,omitempty"`
	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	AspectRatio     *float64 `json:"aspect_ratio,omitempty"`
	BlurPlaceholder *string  `json:"blur_placeholder,omitempty"`
}

func toAssetSummary(a *models.Asset) assetSummary {
	return assetSummary{
		ID:              a.ID,
		Path:            a.Path,
		Alt:             a.Alt,
		Width:           a.Width,
		Height:          a.Height,
		AspectRatio:     a.AspectRatio,
		BlurPlaceholder: a.BlurPlaceholder,
	}
}

// ListOrphans returns assets with zero inbound references, oldest first.
func (h *AssetHandlers) ListOrphans(c *gin.Context) {
	limit, offset := parsePagination(c, 50)

	orphans, err := h.registry.ListOrphans(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orphaned assets"})
		return
	}

	summaries := make([]assetSummary, 0, len(orphans))
	for _, a := range orphans {
		summaries = append(summaries, toAssetSummary(a))
	}

	c.JSON(http.StatusOK, gin.H{
		"assets": summaries,
		"count":  len(summaries),
	})
}

// GetReferences returns the per-relation reference counts for one asset together
// with its orphan status.
func (h *AssetHandlers) GetReferences(c *gin.Context) {
	id := c.Param("id")

	counts, err := h.registry.CountReferences(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count references"})
		return
	}

	orphan := true
	for _, count := range counts {
		if count > 0 {
			orphan = false
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"asset_id":   id,
		"references": counts,
		"orphan":     orphan,
	})
}

// DeleteAsset removes one asset: binary best-effort, metadata authoritative.
func (h *AssetHandlers) DeleteAsset(c *gin.Context) {
	id := c.Param("id")

	if err := h.manager.Delete(c.Request.Context(), id, middleware.GetActor(c)); err != nil {
		if errors.Is(err, assets.ErrAssetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete asset"})
		return
	}

	c.Status(http.StatusNoContent)
}

// bulkDeleteRequest is the body for bulk asset deletion.
type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// BulkDelete removes many assets, each independently; partial success is
// reported in the result, never as a request-level error.
func (h *AssetHandlers) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	result, err := h.manager.BulkDelete(c.Request.Context(), req.IDs, middleware.GetActor(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete assets"})
		return
	}

	c.JSON(http.StatusOK, result)
}
