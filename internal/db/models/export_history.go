// export_history.go defines the ExportHistory model: the durable record of a single
// export attempt, its lifecycle status, and (on success) the exported payload itself.
package models

import "time"

// Export lifecycle statuses. Status only ever moves PENDING → COMPLETED or
// PENDING → FAILED; a terminal record is never reopened.
const (
	ExportStatusPending   = "PENDING"
	ExportStatusCompleted = "COMPLETED"
	ExportStatusFailed    = "FAILED"
)

// Export type identifies the entity graph that was exported.
const (
	ExportTypeWorks      = "WORKS"
	ExportTypeComposers  = "COMPOSERS"
	ExportTypeCategories = "CATEGORIES"
	ExportTypeLabels     = "LABELS"
	ExportTypeExpertises = "EXPERTISES"
	ExportTypeAssets     = "ASSETS"
)

// Export output formats.
const (
	ExportFormatJSON = "JSON"
	ExportFormatCSV  = "CSV"
	ExportFormatTXT  = "TXT"
	ExportFormatXLS  = "XLS"
)

// ExportHistory represents one export attempt.
type ExportHistory struct {
	ID           string
	UserID       string
	Type         string // ExportType* constant
	Format       string // ExportFormat* constant
	Status       string // ExportStatus* constant
	EntityCount  int
	FileSize     int64   // payload byte length; 0 until completed
	Checksum     *string // SHA-256 of the payload, set on completion
	ErrorMessage *string // set only when Status is FAILED
	Data         []byte  // the exported payload; nil on failure, omitted from listings
	CreatedAt    time.Time
	CompletedAt  *time.Time // set exactly when Status becomes terminal
}

// IsTerminal reports whether the record has reached a final status.
func (e *ExportHistory) IsTerminal() bool {
	return e.Status == ExportStatusCompleted || e.Status == ExportStatusFailed
}
