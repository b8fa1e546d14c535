// works.go implements the snapshot restore endpoint for works.
package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/portfolio-cms/portfolio-cms/internal/content"
	"github.com/portfolio-cms/portfolio-cms/internal/middleware"
)

// WorkHandlers handles work content API requests
type WorkHandlers struct {
	restorer *content.Restorer
}

// NewWorkHandlers creates a new work handler
func NewWorkHandlers(restorer *content.Restorer) *WorkHandlers {
	return &WorkHandlers{restorer: restorer}
}

// restoreRequest is the body for restoring a snapshot. Mode defaults to sparse,
// which never clears live fields the snapshot did not capture.
type restoreRequest struct {
	Mode string `json:"mode"`
}

// RestoreSnapshot applies a snapshot to the work it was taken from.
func (h *WorkHandlers) RestoreSnapshot(c *gin.Context) {
	workID := c.Param("id")
	snapshotID := c.Param("snapshot_id")

	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	mode := content.RestoreModeSparse
	switch req.Mode {
	case "", string(content.RestoreModeSparse):
	case string(content.RestoreModeFullReplace):
		mode = content.RestoreModeFullReplace
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'sparse' or 'full_replace'"})
		return
	}

	err := h.restorer.Restore(c.Request.Context(), workID, snapshotID, mode, middleware.GetActor(c))
	if err != nil {
		if errors.Is(err, content.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore snapshot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"work_id":     workID,
		"snapshot_id": snapshotID,
		"mode":        string(mode),
	})
}
