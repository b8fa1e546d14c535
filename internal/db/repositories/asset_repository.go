// asset_repository.go implements AssetRepository, providing metadata queries for
// stored binary assets and the aggregate owner-count queries behind the orphan
// registry. Owner counting is done in SQL (one COUNT per relation kind) rather than
// by loading owner rows into memory.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
)

// ErrAssetNotFound is returned when no asset row exists for an id.
var ErrAssetNotFound = errors.New("asset not found")

// AssetRelation describes one owning relation kind: a table whose rows may point at
// an asset through the named column. The table and column values come from the fixed
// relation enumeration declared in the assets package, never from user input.
type AssetRelation struct {
	Kind   string // stable identifier, e.g. "work_cover"
	Table  string
	Column string
}

// AssetRepository handles asset metadata database operations
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, path, alt, width, height, aspect_ratio, blur_placeholder, created_at, updated_at`

func scanAsset(scanner interface{ Scan(...interface{}) error }) (*models.Asset, error) {
	a := &models.Asset{}
	err := scanner.Scan(
		&a.ID,
		&a.Path,
		&a.Alt,
		&a.Width,
		&a.Height,
		&a.AspectRatio,
		&a.BlurPlaceholder,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAsset retrieves a single asset by id.
func (r *AssetRepository) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAssets retrieves assets ordered by creation time, newest first.
func (r *AssetRepository) ListAssets(ctx context.Context, limit, offset int) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ListAllAssets retrieves every asset, oldest first. Used by the export pipeline,
// which needs the complete set in one pass.
func (r *AssetRepository) ListAllAssets(ctx context.Context) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CountOwners returns the number of rows in the relation's table that point at the
// given asset.
func (r *AssetRepository) CountOwners(ctx context.Context, assetID string, rel AssetRelation) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, rel.Table, rel.Column)

	var count int
	if err := r.db.QueryRowContext(ctx, query, assetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s references: %w", rel.Kind, err)
	}
	return count, nil
}

// ListOrphans retrieves assets with zero inbound references across every supplied
// relation kind, oldest first so long-forgotten uploads surface at the top of
// cleanup tooling.
func (r *AssetRepository) ListOrphans(ctx context.Context, relations []AssetRelation, limit, offset int) ([]*models.Asset, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + assetColumns + ` FROM assets a WHERE 1=1`)
	for _, rel := range relations {
		fmt.Fprintf(&b, ` AND NOT EXISTS (SELECT 1 FROM %s WHERE %s = a.id)`, rel.Table, rel.Column)
	}
	b.WriteString(` ORDER BY a.created_at ASC LIMIT $1 OFFSET $2`)

	rows, err := r.db.QueryContext(ctx, b.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// DeleteAssetRow removes the asset metadata row. The metadata row is the source of
// truth for an asset's existence, so a missing row is reported as ErrAssetNotFound
// rather than silently succeeding.
func (r *AssetRepository) DeleteAssetRow(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAssetNotFound
	}
	return nil
}
