// Package content implements snapshot-based restore for works. A snapshot is an
// opaque captured field set; whether it is treated as a partial capture (sparse
// merge) or a complete historical copy (full replace) is an explicit caller choice,
// not something this package guesses.
package content

import (
	"context"
	"fmt"

	"github.com/portfolio-cms/portfolio-cms/internal/audit"
	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/db/repositories"
)

// ErrSnapshotNotFound mirrors the repository sentinel so callers depend on this
// package only.
var ErrSnapshotNotFound = repositories.ErrSnapshotNotFound

// RestoreMode selects how snapshot fields are applied to the live work.
type RestoreMode string

const (
	// RestoreModeSparse applies only the fields captured in the snapshot; fields
	// absent from it are left untouched on the live work. A snapshot taken before
	// a field existed can never null that field out.
	RestoreModeSparse RestoreMode = "sparse"

	// RestoreModeFullReplace treats the snapshot as a complete historical copy:
	// nullable fields absent from the snapshot are cleared on the live work.
	// Required fields (slug, title) are only overwritten when captured.
	RestoreModeFullReplace RestoreMode = "full_replace"
)

// SnapshotStore is the persistence interface restore works through.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, id string) (*models.WorkSnapshot, error)
	ApplyWorkUpdate(ctx context.Context, workID string, fields map[string]interface{}) error
	ApplyTranslationUpdate(ctx context.Context, workID, locale string, fields map[string]interface{}) error
}

// Recorder is the audit boundary; satisfied by *audit.Recorder.
type Recorder interface {
	Record(ctx context.Context, ev audit.Event)
}

// Restorer applies work snapshots.
type Restorer struct {
	store         SnapshotStore
	recorder      Recorder
	primaryLocale string
}

// NewRestorer creates a Restorer. Localized snapshot fields (title, description)
// are restored into the primary locale's translation row.
func NewRestorer(store SnapshotStore, recorder Recorder, primaryLocale string) *Restorer {
	if primaryLocale == "" {
		primaryLocale = "en"
	}
	return &Restorer{store: store, recorder: recorder, primaryLocale: primaryLocale}
}

// Restore applies the snapshot to the work it was taken from. Returns
// ErrSnapshotNotFound when the snapshot does not exist or belongs to a different
// work — a snapshot id is only meaningful together with its owning work.
func (r *Restorer) Restore(ctx context.Context, workID, snapshotID string, mode RestoreMode, actor audit.Actor) error {
	snap, err := r.store.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return err
	}
	if snap.WorkID != workID {
		return ErrSnapshotNotFound
	}

	workFields, translationFields := snapshotFields(snap, mode)

	if err := r.store.ApplyWorkUpdate(ctx, workID, workFields); err != nil {
		return fmt.Errorf("failed to restore work fields: %w", err)
	}
	if err := r.store.ApplyTranslationUpdate(ctx, workID, r.primaryLocale, translationFields); err != nil {
		return fmt.Errorf("failed to restore translation fields: %w", err)
	}

	r.recorder.Record(ctx, audit.Event{
		ActorID:       actor.ID,
		Action:        audit.ActionRestore,
		EntityType:    "Work",
		EntityID:      workID,
		ClientAddress: actor.ClientAddress,
		ClientAgent:   actor.ClientAgent,
		Metadata: map[string]interface{}{
			"snapshotId": snapshotID,
			"mode":       string(mode),
			"fields":     fieldNames(workFields, translationFields),
		},
	})

	return nil
}

// snapshotFields builds the update maps for one snapshot under the given mode.
// In sparse mode only captured (non-nil) fields appear. In full-replace mode
// nullable fields appear even when nil, which clears them on the live work.
func snapshotFields(snap *models.WorkSnapshot, mode RestoreMode) (work, translation map[string]interface{}) {
	work = make(map[string]interface{})
	translation = make(map[string]interface{})
	full := mode == RestoreModeFullReplace

	if snap.Slug != nil {
		work["slug"] = *snap.Slug
	}
	setOptional(work, "year", snap.Year != nil, func() interface{} { return *snap.Year }, full)
	setOptional(work, "duration", snap.Duration != nil, func() interface{} { return *snap.Duration }, full)
	setOptional(work, "instrumentation", snap.Instrumentation != nil, func() interface{} { return *snap.Instrumentation }, full)

	if snap.Title != nil {
		translation["title"] = *snap.Title
	}
	setOptional(translation, "description", snap.Description != nil, func() interface{} { return *snap.Description }, full)

	return work, translation
}

func setOptional(fields map[string]interface{}, name string, captured bool, value func() interface{}, full bool) {
	switch {
	case captured:
		fields[name] = value()
	case full:
		fields[name] = nil
	}
}

func fieldNames(maps ...map[string]interface{}) []string {
	names := make([]string, 0)
	for _, m := range maps {
		for name := range m {
			names = append(names, name)
		}
	}
	return names
}
