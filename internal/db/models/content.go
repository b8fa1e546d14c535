// content.go defines the localized portfolio entities that the export pipeline reads
// and the snapshot type used by work restore. These are read-side models — the CRUD
// editing surface for them lives outside this service.
package models

import "time"

// Work is a portfolio work with its localized translations and related entities.
type Work struct {
	ID              string    `db:"id"`
	Slug            string    `db:"slug"`
	Year            *int      `db:"year"`
	Duration        *string   `db:"duration"`
	Instrumentation *string   `db:"instrumentation"`
	Published       bool      `db:"published"`
	CategoryID      *string   `db:"category_id"`
	LabelID         *string   `db:"label_id"`
	CoverAssetID    *string   `db:"cover_asset_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`

	Translations  []WorkTranslation `db:"-"`
	Category      *Category         `db:"-"`
	Label         *Label            `db:"-"`
	Contributions []Contribution    `db:"-"`
	GalleryPaths  []string          `db:"-"` // storage paths of gallery assets
}

// WorkTranslation holds the localized attributes of a work for one locale.
type WorkTranslation struct {
	WorkID      string  `db:"work_id"`
	Locale      string  `db:"locale"`
	Title       string  `db:"title"`
	Description *string `db:"description"`
}

// WorkSnapshot is an opaque captured field set taken from a work at some point in
// time. Snapshots may be partial: a nil field means "not captured", not "was empty".
type WorkSnapshot struct {
	ID              string    `db:"id"`
	WorkID          string    `db:"work_id"`
	Slug            *string   `db:"slug"`
	Year            *int      `db:"year"`
	Duration        *string   `db:"duration"`
	Instrumentation *string   `db:"instrumentation"`
	Title           *string   `db:"title"`
	Description     *string   `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Contribution links a composer to a work with a role ("composer", "arranger", ...).
type Contribution struct {
	WorkID     string    `db:"work_id"`
	ComposerID string    `db:"composer_id"`
	Role       string    `db:"role"`
	Composer   *Composer `db:"-"`
}

// Composer is a person credited on works.
type Composer struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Bio          *string   `db:"bio"`
	ImageAssetID *string   `db:"image_asset_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	WorkTitles []string `db:"-"` // display titles of works this composer contributed to
}

// Category groups works; localized name comes from the primary-locale translation.
type Category struct {
	ID           string  `db:"id"`
	Slug         string  `db:"slug"`
	Name         string  `db:"name"`
	CoverAssetID *string `db:"cover_asset_id"`
}

// Label is a publishing label attached to works.
type Label struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Website      *string `db:"website"`
	ImageAssetID *string `db:"image_asset_id"`
}

// Expertise is a localized area-of-expertise page with a cover and a gallery.
type Expertise struct {
	ID           string    `db:"id"`
	Slug         string    `db:"slug"`
	Title        string    `db:"title"`
	Summary      *string   `db:"summary"`
	CoverAssetID *string   `db:"cover_asset_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	GalleryPaths []string `db:"-"`
}
