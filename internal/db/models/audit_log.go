// Package models - audit_log.go defines the AuditLog model: an append-only record of
// every operator-performed mutation, capturing actor, action, affected entity, client
// address/agent, and arbitrary metadata. Audit rows are never updated or deleted by
// application code.
package models

import "time"

// AuditLog represents one immutable audit trail entry.
type AuditLog struct {
	ID            string
	ActorID       string                 // operator who performed the action; never empty
	Action        string                 // "CREATE", "DELETE", "EXPORT", "BULK_DELETE", "RESTORE", "LOGIN"
	EntityType    *string                // "Work", "Asset", "Composer", ...
	EntityID      *string                // id of the affected entity
	Metadata      map[string]interface{} // JSONB: changed fields, counts, export format, ...
	ClientAddress *string                // best-effort client IP
	ClientAgent   *string                // best-effort User-Agent
	CreatedAt     time.Time
}
