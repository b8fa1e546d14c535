// audit.go implements read-only handlers for the audit trail. The trail is
// append-only: there are deliberately no mutation endpoints here.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/db/repositories"
)

// AuditHandlers handles audit trail API requests
type AuditHandlers struct {
	repo *repositories.AuditRepository
}

// NewAuditHandlers creates a new audit handler
func NewAuditHandlers(repo *repositories.AuditRepository) *AuditHandlers {
	return &AuditHandlers{repo: repo}
}

// auditEntry is the audit log row as served to clients.
type auditEntry struct {
	ID            string                 `json:"id"`
	ActorID       string                 `json:"actor_id"`
	Action        string                 `json:"action"`
	EntityType    *string                `json:"entity_type,omitempty"`
	EntityID      *string                `json:"entity_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	ClientAddress *string                `json:"client_address,omitempty"`
	ClientAgent   *string                `json:"client_agent,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

func toAuditEntry(e *models.AuditLog) auditEntry {
	return auditEntry{
		ID:            e.ID,
		ActorID:       e.ActorID,
		Action:        e.Action,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		Metadata:      e.Metadata,
		ClientAddress: e.ClientAddress,
		ClientAgent:   e.ClientAgent,
		CreatedAt:     e.CreatedAt,
	}
}

// ListAuditLogs returns audit entries, newest first, with optional filters:
// actor_id, action, entity_type, entity_id, start_date, end_date (RFC 3339).
func (h *AuditHandlers) ListAuditLogs(c *gin.Context) {
	limit, offset := parsePagination(c, 50)

	var filters repositories.AuditFilters
	if v := c.Query("actor_id"); v != "" {
		filters.ActorID = &v
	}
	if v := c.Query("action"); v != "" {
		filters.Action = &v
	}
	if v := c.Query("entity_type"); v != "" {
		filters.EntityType = &v
	}
	if v := c.Query("entity_id"); v != "" {
		filters.EntityID = &v
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be RFC 3339"})
			return
		}
		filters.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be RFC 3339"})
			return
		}
		filters.EndDate = &t
	}

	logs, total, err := h.repo.ListAuditLogs(c.Request.Context(), filters, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit logs"})
		return
	}

	entries := make([]auditEntry, 0, len(logs))
	for _, e := range logs {
		entries = append(entries, toAuditEntry(e))
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   entries,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetAuditLog returns a single audit entry by id.
func (h *AuditHandlers) GetAuditLog(c *gin.Context) {
	entry, err := h.repo.GetAuditLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit log"})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audit log not found"})
		return
	}

	c.JSON(http.StatusOK, toAuditEntry(entry))
}
