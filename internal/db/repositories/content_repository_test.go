package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newContentRepo(t *testing.T) (*ContentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewContentRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var snapshotCols = []string{
	"id", "work_id", "slug", "year", "duration", "instrumentation", "title", "description", "created_at",
}

// ---------------------------------------------------------------------------
// GetSnapshot
// ---------------------------------------------------------------------------

func TestGetSnapshot_Found(t *testing.T) {
	repo, mock := newContentRepo(t)
	mock.ExpectQuery("SELECT.*FROM work_snapshots.*WHERE id").
		WithArgs("snap-1").
		WillReturnRows(sqlmock.NewRows(snapshotCols).
			AddRow("snap-1", "work-1", "old-slug", 2019, nil, nil, "Old Title", nil, time.Now()))

	snap, err := repo.GetSnapshot(context.Background(), "snap-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.WorkID != "work-1" {
		t.Errorf("WorkID = %s, want work-1", snap.WorkID)
	}
	if snap.Slug == nil || *snap.Slug != "old-slug" {
		t.Errorf("Slug = %v, want old-slug", snap.Slug)
	}
	if snap.Duration != nil {
		t.Errorf("Duration = %v, want nil (not captured)", snap.Duration)
	}
}

func TestGetSnapshot_NotFound(t *testing.T) {
	repo, mock := newContentRepo(t)
	mock.ExpectQuery("SELECT.*FROM work_snapshots.*WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(snapshotCols))

	_, err := repo.GetSnapshot(context.Background(), "missing")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("err = %v, want ErrSnapshotNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// ApplyWorkUpdate
// ---------------------------------------------------------------------------

func TestApplyWorkUpdate_SetsColumn(t *testing.T) {
	repo, mock := newContentRepo(t)
	mock.ExpectExec("UPDATE works SET year = \\$1, updated_at = now\\(\\) WHERE id = \\$2").
		WithArgs(2019, "work-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyWorkUpdate(context.Background(), "work-1", map[string]interface{}{"year": 2019})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyWorkUpdate_NilWritesNull(t *testing.T) {
	repo, mock := newContentRepo(t)
	mock.ExpectExec("UPDATE works SET instrumentation = \\$1, updated_at = now\\(\\) WHERE id = \\$2").
		WithArgs(nil, "work-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyWorkUpdate(context.Background(), "work-1", map[string]interface{}{"instrumentation": nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyWorkUpdate_RejectsUnknownField(t *testing.T) {
	repo, _ := newContentRepo(t)

	err := repo.ApplyWorkUpdate(context.Background(), "work-1", map[string]interface{}{"published": true})
	if err == nil {
		t.Error("expected error for field outside the restorable set, got nil")
	}
}

func TestApplyWorkUpdate_EmptyFieldsIsNoOp(t *testing.T) {
	repo, mock := newContentRepo(t)

	if err := repo.ApplyWorkUpdate(context.Background(), "work-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query should run for empty fields: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ApplyTranslationUpdate
// ---------------------------------------------------------------------------

func TestApplyTranslationUpdate_SetsColumn(t *testing.T) {
	repo, mock := newContentRepo(t)
	mock.ExpectExec("UPDATE work_translations SET title = \\$1 WHERE work_id = \\$2 AND locale = \\$3").
		WithArgs("Restored Title", "work-1", "en").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyTranslationUpdate(context.Background(), "work-1", "en",
		map[string]interface{}{"title": "Restored Title"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyTranslationUpdate_RejectsUnknownField(t *testing.T) {
	repo, _ := newContentRepo(t)

	err := repo.ApplyTranslationUpdate(context.Background(), "work-1", "en",
		map[string]interface{}{"slug": "nope"})
	if err == nil {
		t.Error("expected error for field outside the restorable set, got nil")
	}
}

// ---------------------------------------------------------------------------
// ListCategories / ListLabels
// ---------------------------------------------------------------------------

func TestListCategories(t *testing.T) {
	repo, mock := newContentRepo(t)
	mock.ExpectQuery("SELECT.*FROM categories.*ORDER BY name ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "cover_asset_id"}).
			AddRow("cat-1", "chamber", "Chamber Music", nil))

	categories, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 1 {
		t.Fatalf("len(categories) = %d, want 1", len(categories))
	}
	if categories[0].Name != "Chamber Music" {
		t.Errorf("Name = %s, want Chamber Music", categories[0].Name)
	}
}

func TestListLabels_DBError(t *testing.T) {
	repo, mock := newContentRepo(t)
	mock.ExpectQuery("SELECT.*FROM labels").
		WillReturnError(errDB)

	_, err := repo.ListLabels(context.Background())
	if err == nil {
		t.Error("expected error, got nil")
	}
}
