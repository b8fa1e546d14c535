package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
)

var auditCols = []string{
	"id", "actor_id", "action", "entity_type", "entity_id", "metadata",
	"client_address", "client_agent", "created_at",
}

func newAuditRepo(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAuditRepository(db), mock
}

// ---------------------------------------------------------------------------
// CreateAuditLog
// ---------------------------------------------------------------------------

func TestCreateAuditLog_AssignsIDAndTimestamp(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	entityType := "Asset"
	entry := &models.AuditLog{
		ActorID:    "user-1",
		Action:     "DELETE",
		EntityType: &entityType,
		Metadata:   map[string]interface{}{"path": "images/a.webp"},
	}
	if err := repo.CreateAuditLog(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID == "" {
		t.Error("expected generated id")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestCreateAuditLog_DBError(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnError(errDB)

	entry := &models.AuditLog{ActorID: "user-1", Action: "EXPORT"}
	if err := repo.CreateAuditLog(context.Background(), entry); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// ListAuditLogs
// ---------------------------------------------------------------------------

func TestListAuditLogs_NoFilters(t *testing.T) {
	repo, mock := newAuditRepo(t)
	now := time.Now()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM audit_logs.*ORDER BY created_at DESC").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(auditCols).
			AddRow("log-1", "user-1", "EXPORT", "Export", "exp-1", []byte(`{"format":"JSON"}`), "10.0.0.1", "curl/8", now))

	logs, total, err := repo.ListAuditLogs(context.Background(), AuditFilters{}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	if logs[0].Metadata["format"] != "JSON" {
		t.Errorf("Metadata[format] = %v, want JSON", logs[0].Metadata["format"])
	}
}

func TestListAuditLogs_WithFilters(t *testing.T) {
	repo, mock := newAuditRepo(t)
	actor := "user-1"
	action := "DELETE"
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_logs WHERE 1=1 AND actor_id = \\$1 AND action = \\$2").
		WithArgs(actor, action).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT.*FROM audit_logs.*AND actor_id.*AND action").
		WithArgs(actor, action, 50, 0).
		WillReturnRows(sqlmock.NewRows(auditCols))

	logs, total, err := repo.ListAuditLogs(context.Background(), AuditFilters{ActorID: &actor, Action: &action}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if len(logs) != 0 {
		t.Errorf("len(logs) = %d, want 0", len(logs))
	}
}

func TestListAuditLogs_CountError(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnError(errDB)

	_, _, err := repo.ListAuditLogs(context.Background(), AuditFilters{}, 50, 0)
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetAuditLog
// ---------------------------------------------------------------------------

func TestGetAuditLog_Found(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectQuery("SELECT.*FROM audit_logs.*WHERE id").
		WithArgs("log-1").
		WillReturnRows(sqlmock.NewRows(auditCols).
			AddRow("log-1", "user-1", "RESTORE", "Work", "work-1", nil, nil, nil, time.Now()))

	entry, err := repo.GetAuditLog(context.Background(), "log-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry, got nil")
	}
	if entry.Action != "RESTORE" {
		t.Errorf("Action = %s, want RESTORE", entry.Action)
	}
	if entry.Metadata != nil {
		t.Errorf("Metadata = %v, want nil", entry.Metadata)
	}
}

func TestGetAuditLog_NotFound(t *testing.T) {
	repo, mock := newAuditRepo(t)
	mock.ExpectQuery("SELECT.*FROM audit_logs.*WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(auditCols))

	entry, err := repo.GetAuditLog(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil entry for not found, got %v", entry)
	}
}
