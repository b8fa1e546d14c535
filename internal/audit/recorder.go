// recorder.go implements the Recorder: the single entry point through which business
// code records audit events. Record never returns an error and never panics — an
// audit persistence failure must not roll back or fail the mutation it describes.
// Callers invoke Record after their primary effect has committed, so the trail never
// contains actions that did not actually happen.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/telemetry"
)

// Audit actions recorded by this service.
const (
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionBulkDelete = "BULK_DELETE"
	ActionExport     = "EXPORT"
	ActionRestore    = "RESTORE"
	ActionLogin      = "LOGIN"
)

// writeTimeout bounds the audit write so a hung store cannot stall the caller
// indefinitely after its own work has already committed.
const writeTimeout = 5 * time.Second

// Store is the persistence interface the Recorder writes through.
type Store interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// Actor identifies the authenticated operator on whose behalf an action runs,
// together with best-effort client details for the trail.
type Actor struct {
	ID            string
	ClientAddress string
	ClientAgent   string
}

// Event describes one operator-performed action.
type Event struct {
	ActorID       string
	Action        string
	EntityType    string
	EntityID      string
	Metadata      map[string]interface{}
	ClientAddress string
	ClientAgent   string
}

// Recorder persists audit events and optionally ships them to external destinations.
type Recorder struct {
	store   Store
	shipper Shipper // optional
}

// NewRecorder creates a Recorder. shipper may be nil when no external shipping is
// configured.
func NewRecorder(store Store, shipper Shipper) *Recorder {
	return &Recorder{store: store, shipper: shipper}
}

// Record persists one audit event. Failures are logged and counted, never returned:
// this is the non-propagating error boundary that keeps audit writes from affecting
// the outcome of the operation they describe. The write survives cancellation of the
// caller's context — the triggering action already happened, so the record should be
// attempted even when the request that caused it has been abandoned.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("recovered panic in audit recorder", "panic", rec, "action", ev.Action)
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	entry := &models.AuditLog{
		ActorID:  ev.ActorID,
		Action:   ev.Action,
		Metadata: ev.Metadata,
	}
	if ev.EntityType != "" {
		entry.EntityType = &ev.EntityType
	}
	if ev.EntityID != "" {
		entry.EntityID = &ev.EntityID
	}
	if ev.ClientAddress != "" {
		entry.ClientAddress = &ev.ClientAddress
	}
	if ev.ClientAgent != "" {
		entry.ClientAgent = &ev.ClientAgent
	}

	if err := r.store.CreateAuditLog(ctx, entry); err != nil {
		telemetry.AuditLogWritesTotal.WithLabelValues("error").Inc()
		slog.Error("failed to persist audit log entry",
			"action", ev.Action, "actor", ev.ActorID, "error", err)
	} else {
		telemetry.AuditLogWritesTotal.WithLabelValues("ok").Inc()
	}

	if r.shipper != nil {
		logEntry := &LogEntry{
			Timestamp:     entry.CreatedAt,
			ActorID:       ev.ActorID,
			Action:        ev.Action,
			EntityType:    ev.EntityType,
			EntityID:      ev.EntityID,
			ClientAddress: ev.ClientAddress,
			ClientAgent:   ev.ClientAgent,
			Metadata:      ev.Metadata,
		}
		if err := r.shipper.Ship(ctx, logEntry); err != nil {
			slog.Error("failed to ship audit log entry", "action", ev.Action, "error", err)
		}
	}
}
