// export_repository.go implements ExportRepository, the store for export history
// records. The status column is a small state machine: PENDING → COMPLETED or
// PENDING → FAILED, enforced here with a guarded UPDATE so a terminal record can
// never be reopened or flipped, even by a racing writer.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
)

// ErrExportNotFound is returned when no export history record exists for an id.
var ErrExportNotFound = errors.New("export history record not found")

// ErrExportAlreadyTerminal is returned when a completion or failure update targets
// a record that has already reached COMPLETED or FAILED.
var ErrExportAlreadyTerminal = errors.New("export history record is already terminal")

// ExportRepository handles export history database operations
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new ExportRepository
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// CreateExport inserts a new PENDING export history record and assigns its id.
func (r *ExportRepository) CreateExport(ctx context.Context, rec *models.ExportHistory) error {
	rec.ID = uuid.New().String()
	rec.Status = models.ExportStatusPending
	rec.CreatedAt = time.Now()

	query := `
		INSERT INTO export_history (id, user_id, type, format, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Type,
		rec.Format,
		rec.Status,
		rec.CreatedAt,
	)
	return err
}

// MarkCompleted transitions a PENDING record to COMPLETED, storing the payload,
// counts, and checksum. completed_at is set here and only here on the success path.
func (r *ExportRepository) MarkCompleted(ctx context.Context, id string, entityCount int, data []byte, checksum string) error {
	query := `
		UPDATE export_history
		SET status = $1, entity_count = $2, file_size = $3, checksum = $4, data = $5, completed_at = $6
		WHERE id = $7 AND status = $8
	`

	res, err := r.db.ExecContext(ctx, query,
		models.ExportStatusCompleted,
		entityCount,
		int64(len(data)),
		checksum,
		data,
		time.Now(),
		id,
		models.ExportStatusPending,
	)
	if err != nil {
		return err
	}
	return r.checkTransition(ctx, res, id)
}

// MarkFailed transitions a PENDING record to FAILED with a human-readable error
// message. No payload is stored on the failure path.
func (r *ExportRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE export_history
		SET status = $1, error_message = $2, completed_at = $3
		WHERE id = $4 AND status = $5
	`

	res, err := r.db.ExecContext(ctx, query,
		models.ExportStatusFailed,
		errorMessage,
		time.Now(),
		id,
		models.ExportStatusPending,
	)
	if err != nil {
		return err
	}
	return r.checkTransition(ctx, res, id)
}

// checkTransition distinguishes "record missing" from "record already terminal"
// when a guarded status UPDATE matched zero rows.
func (r *ExportRepository) checkTransition(ctx context.Context, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM export_history WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrExportNotFound
	}
	return ErrExportAlreadyTerminal
}

// GetExport retrieves a full export history record including the payload.
func (r *ExportRepository) GetExport(ctx context.Context, id string) (*models.ExportHistory, error) {
	query := `
		SELECT id, user_id, type, format, status, entity_count, file_size, checksum, error_message, data, created_at, completed_at
		FROM export_history
		WHERE id = $1
	`

	rec := &models.ExportHistory{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Type,
		&rec.Format,
		&rec.Status,
		&rec.EntityCount,
		&rec.FileSize,
		&rec.Checksum,
		&rec.ErrorMessage,
		&rec.Data,
		&rec.CreatedAt,
		&rec.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListExports retrieves recent export history records without their payloads,
// newest first. The data column is excluded because payloads can be large.
func (r *ExportRepository) ListExports(ctx context.Context, limit, offset int) ([]*models.ExportHistory, error) {
	query := `
		SELECT id, user_id, type, format, status, entity_count, file_size, checksum, error_message, created_at, completed_at
		FROM export_history
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*models.ExportHistory, 0)
	for rows.Next() {
		rec := &models.ExportHistory{}
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Type,
			&rec.Format,
			&rec.Status,
			&rec.EntityCount,
			&rec.FileSize,
			&rec.Checksum,
			&rec.ErrorMessage,
			&rec.CreatedAt,
			&rec.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
