// content_repository.go implements ContentRepository, the read side for exports
// (full entity graphs with translations and related records) and the snapshot
// queries behind work restore. Graph assembly batches one query per relation rather
// than issuing a query per entity.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
)

// ErrSnapshotNotFound is returned when a snapshot does not exist or does not belong
// to the given work.
var ErrSnapshotNotFound = errors.New("work snapshot not found")

// ContentRepository handles entity graph reads and snapshot operations
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new ContentRepository
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// ListWorkGraph fetches every work together with its translations, category, label,
// contributions (with composer names), and gallery asset paths.
func (r *ContentRepository) ListWorkGraph(ctx context.Context) ([]*models.Work, error) {
	var works []*models.Work
	err := r.db.SelectContext(ctx, &works, `
		SELECT id, slug, year, duration, instrumentation, published, category_id, label_id, cover_asset_id, created_at, updated_at
		FROM works
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch works: %w", err)
	}
	if len(works) == 0 {
		return works, nil
	}

	byID := make(map[string]*models.Work, len(works))
	for _, w := range works {
		byID[w.ID] = w
	}

	var translations []models.WorkTranslation
	err = r.db.SelectContext(ctx, &translations, `
		SELECT work_id, locale, title, description
		FROM work_translations
		ORDER BY work_id, locale
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch work translations: %w", err)
	}
	for _, tr := range translations {
		if w, ok := byID[tr.WorkID]; ok {
			w.Translations = append(w.Translations, tr)
		}
	}

	categories, err := r.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	categoryByID := make(map[string]*models.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}

	labels, err := r.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	labelByID := make(map[string]*models.Label, len(labels))
	for _, l := range labels {
		labelByID[l.ID] = l
	}

	for _, w := range works {
		if w.CategoryID != nil {
			w.Category = categoryByID[*w.CategoryID]
		}
		if w.LabelID != nil {
			w.Label = labelByID[*w.LabelID]
		}
	}

	type contributionRow struct {
		WorkID       string `db:"work_id"`
		ComposerID   string `db:"composer_id"`
		Role         string `db:"role"`
		ComposerName string `db:"composer_name"`
	}
	var contributions []contributionRow
	err = r.db.SelectContext(ctx, &contributions, `
		SELECT c.work_id, c.composer_id, c.role, p.name AS composer_name
		FROM contributions c
		JOIN composers p ON p.id = c.composer_id
		ORDER BY c.work_id, p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributions: %w", err)
	}
	for _, row := range contributions {
		if w, ok := byID[row.WorkID]; ok {
			w.Contributions = append(w.Contributions, models.Contribution{
				WorkID:     row.WorkID,
				ComposerID: row.ComposerID,
				Role:       row.Role,
				Composer:   &models.Composer{ID: row.ComposerID, Name: row.ComposerName},
			})
		}
	}

	type galleryRow struct {
		WorkID string `db:"work_id"`
		Path   string `db:"path"`
	}
	var gallery []galleryRow
	err = r.db.SelectContext(ctx, &gallery, `
		SELECT g.work_id, a.path
		FROM work_gallery_assets g
		JOIN assets a ON a.id = g.asset_id
		ORDER BY g.work_id, g.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch work galleries: %w", err)
	}
	for _, row := range gallery {
		if w, ok := byID[row.WorkID]; ok {
			w.GalleryPaths = append(w.GalleryPaths, row.Path)
		}
	}

	return works, nil
}

// ListComposers fetches composers with the titles of works they contributed to,
// using the title of each work's first translation in locale order.
func (r *ContentRepository) ListComposers(ctx context.Context) ([]*models.Composer, error) {
	var composers []*models.Composer
	err := r.db.SelectContext(ctx, &composers, `
		SELECT id, name, bio, image_asset_id, created_at, updated_at
		FROM composers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch composers: %w", err)
	}
	if len(composers) == 0 {
		return composers, nil
	}

	byID := make(map[string]*models.Composer, len(composers))
	for _, c := range composers {
		byID[c.ID] = c
	}

	type titleRow struct {
		ComposerID string `db:"composer_id"`
		Title      string `db:"title"`
	}
	var titles []titleRow
	err = r.db.SelectContext(ctx, &titles, `
		SELECT c.composer_id, t.title
		FROM contributions c
		JOIN LATERAL (
			SELECT title FROM work_translations
			WHERE work_id = c.work_id
			ORDER BY locale ASC
			LIMIT 1
		) t ON true
		ORDER BY c.composer_id, t.title
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch composer work titles: %w", err)
	}
	for _, row := range titles {
		if c, ok := byID[row.ComposerID]; ok {
			c.WorkTitles = append(c.WorkTitles, row.Title)
		}
	}

	return composers, nil
}

// ListCategories fetches all categories.
func (r *ContentRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.SelectContext(ctx, &categories, `
		SELECT id, slug, name, cover_asset_id
		FROM categories
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

// ListLabels fetches all labels.
func (r *ContentRepository) ListLabels(ctx context.Context) ([]*models.Label, error) {
	var labels []*models.Label
	err := r.db.SelectContext(ctx, &labels, `
		SELECT id, name, website, image_asset_id
		FROM labels
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch labels: %w", err)
	}
	return labels, nil
}

// ListExpertises fetches expertises with their gallery asset paths.
func (r *ContentRepository) ListExpertises(ctx context.Context) ([]*models.Expertise, error) {
	var expertises []*models.Expertise
	err := r.db.SelectContext(ctx, &expertises, `
		SELECT id, slug, title, summary, cover_asset_id, created_at, updated_at
		FROM expertises
		ORDER BY title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expertises: %w", err)
	}
	if len(expertises) == 0 {
		return expertises, nil
	}

	byID := make(map[string]*models.Expertise, len(expertises))
	for _, e := range expertises {
		byID[e.ID] = e
	}

	type galleryRow struct {
		ExpertiseID string `db:"expertise_id"`
		Path        string `db:"path"`
	}
	var gallery []galleryRow
	err = r.db.SelectContext(ctx, &gallery, `
		SELECT g.expertise_id, a.path
		FROM expertise_gallery_assets g
		JOIN assets a ON a.id = g.asset_id
		ORDER BY g.expertise_id, g.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expertise galleries: %w", err)
	}
	for _, row := range gallery {
		if e, ok := byID[row.ExpertiseID]; ok {
			e.GalleryPaths = append(e.GalleryPaths, row.Path)
		}
	}

	return expertises, nil
}

// GetSnapshot retrieves one work snapshot by id.
func (r *ContentRepository) GetSnapshot(ctx context.Context, id string) (*models.WorkSnapshot, error) {
	snap := &models.WorkSnapshot{}
	err := r.db.GetContext(ctx, snap, `
		SELECT id, work_id, slug, year, duration, instrumentation, title, description, created_at
		FROM work_snapshots
		WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// workColumns maps restorable snapshot field names to works table columns. Field
// names outside this map are rejected so dynamic UPDATE construction can never
// reach arbitrary columns.
var workColumns = map[string]string{
	"slug":            "slug",
	"year":            "year",
	"duration":        "duration",
	"instrumentation": "instrumentation",
}

// translationColumns maps restorable snapshot field names to work_translations columns.
var translationColumns = map[string]string{
	"title":       "title",
	"description": "description",
}

// ApplyWorkUpdate updates the given works columns for one work. Values may be nil,
// which writes NULL — full-replace restore relies on this. Fields not present in
// the map are left untouched, which is what sparse restore relies on.
func (r *ContentRepository) ApplyWorkUpdate(ctx context.Context, workID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(fields)+1)
	args := make([]interface{}, 0, len(fields)+1)
	i := 1
	for field, value := range fields {
		col, ok := workColumns[field]
		if !ok {
			return fmt.Errorf("unknown work field %q", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, value)
		i++
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE works SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), i)
	args = append(args, workID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ApplyTranslationUpdate updates localized columns for one work and locale.
func (r *ContentRepository) ApplyTranslationUpdate(ctx context.Context, workID, locale string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+2)
	i := 1
	for field, value := range fields {
		col, ok := translationColumns[field]
		if !ok {
			return fmt.Errorf("unknown translation field %q", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, value)
		i++
	}

	query := fmt.Sprintf(`UPDATE work_translations SET %s WHERE work_id = $%d AND locale = $%d`,
		strings.Join(setClauses, ", "), i, i+1)
	args = append(args, workID, locale)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
