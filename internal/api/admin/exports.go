// exports.go implements handlers for triggering content exports and serving the
// export history, including payload downloads for completed exports.
package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/db/repositories"
	"github.com/portfolio-cms/portfolio-cms/internal/export"
	"github.com/portfolio-cms/portfolio-cms/internal/middleware"
)

// ExportHandlers handles export-related API requests
type ExportHandlers struct {
	service  *export.Service
	history  *repositories.ExportRepository
	pageSize int
}

// NewExportHandlers creates a new export handler
func NewExportHandlers(service *export.Service, history *repositories.ExportRepository, pageSize int) *ExportHandlers {
	if pageSize < 1 {
		pageSize = 50
	}
	return &ExportHandlers{service: service, history: history, pageSize: pageSize}
}

// exportSummary is the export history record as served to clients; the payload
// itself is only available through the download endpoint.
type exportSummary struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Type         string     `json:"type"`
	Format       string     `json:"format"`
	Status       string     `json:"status"`
	EntityCount  int        `json:"entity_count"`
	FileSize     int64      `json:"file_size"`
	Checksum     *string    `json:"checksum,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func toExportSummary(rec *models.ExportHistory) exportSummary {
	return exportSummary{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Type:         rec.Type,
		Format:       rec.Format,
		Status:       rec.Status,
		EntityCount:  rec.EntityCount,
		FileSize:     rec.FileSize,
		Checksum:     rec.Checksum,
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    rec.CreatedAt,
		CompletedAt:  rec.CompletedAt,
	}
}

// createExportRequest is the body for triggering an export.
type createExportRequest struct {
	Type   string `json:"type" binding:"required"`
	Format string `json:"format" binding:"required"`
}

// CreateExport triggers a synchronous export run and returns the resulting
// history record.
func (h *ExportHandlers) CreateExport(c *gin.Context) {
	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and format are required"})
		return
	}

	typ := strings.ToUpper(strings.TrimSpace(req.Type))
	format := strings.ToUpper(strings.TrimSpace(req.Format))

	outcome, err := h.service.Export(c.Request.Context(), typ, format, middleware.GetActor(c))
	if err != nil {
		switch {
		case errors.Is(err, export.ErrInvalidFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid export format: %s", format)})
		case errors.Is(err, export.ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid export type: %s", typ)})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		}
		return
	}

	rec, err := h.history.GetExport(c.Request.Context(), outcome.ExportID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load export record"})
		return
	}

	c.JSON(http.StatusCreated, toExportSummary(rec))
}

// ListExports returns recent export history records, newest first.
func (h *ExportHandlers) ListExports(c *gin.Context) {
	limit, offset := parsePagination(c, h.pageSize)

	records, err := h.history.ListExports(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list exports"})
		return
	}

	summaries := make([]exportSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, toExportSummary(rec))
	}

	c.JSON(http.StatusOK, gin.H{
		"exports": summaries,
		"count":   len(summaries),
	})
}

// GetExport returns a single export history record without its payload.
func (h *ExportHandlers) GetExport(c *gin.Context) {
	rec, err := h.history.GetExport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrExportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load export"})
		return
	}

	c.JSON(http.StatusOK, toExportSummary(rec))
}

// DownloadExport serves the payload of a completed export. Only COMPLETED
// records with a stored payload are downloadable.
func (h *ExportHandlers) DownloadExport(c *gin.Context) {
	rec, err := h.history.GetExport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrExportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load export"})
		return
	}

	if rec.Status != models.ExportStatusCompleted || rec.Data == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Export has no downloadable payload"})
		return
	}

	filename := fmt.Sprintf("export-%s-%s.%s",
		strings.ToLower(rec.Type), rec.CreatedAt.UTC().Format("20060102-150405"), export.FileExtension(rec.Format))

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, export.ContentType(rec.Format), rec.Data)
}
