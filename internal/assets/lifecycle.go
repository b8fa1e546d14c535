// lifecycle.go implements the asset deletion flow. Deletion is a two-phase,
// best-effort compensating sequence rather than a transaction: the blob store and
// the metadata store cannot be updated atomically together, and assets are
// re-uploadable artifacts, so partial-failure tolerance wins over strict atomicity.
// Phase one removes the binary (failure tolerated, logged, counted); phase two
// removes the metadata row (failure is the operation's failure — metadata is the
// source of truth).
package assets

import (
	"context"
	"errors"
	"log/slog"

	"github.com/portfolio-cms/portfolio-cms/internal/audit"
	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/db/repositories"
	"github.com/portfolio-cms/portfolio-cms/internal/storage"
	"github.com/portfolio-cms/portfolio-cms/internal/telemetry"
)

// ErrAssetNotFound mirrors the repository sentinel so callers depend on this
// package only.
var ErrAssetNotFound = repositories.ErrAssetNotFound

// MetadataStore is the persistence interface for asset rows.
type MetadataStore interface {
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	DeleteAssetRow(ctx context.Context, id string) error
}

// Recorder is the audit boundary; satisfied by *audit.Recorder.
type Recorder interface {
	Record(ctx context.Context, ev audit.Event)
}

// BulkResult reports the outcome of a bulk deletion. DeletedCount counts metadata
// rows removed; a failed binary deletion alone does not reduce it.
type BulkResult struct {
	DeletedCount int      `json:"deleted_count"`
	FailedIDs    []string `json:"failed_ids,omitempty"`
}

// Manager deletes assets. It deliberately does not consult the orphan Registry:
// callers decide whether deletion is gated on orphan status, and an operator may
// intentionally delete a referenced asset.
type Manager struct {
	store    MetadataStore
	blobs    storage.Storage
	recorder Recorder
}

// NewManager creates an asset lifecycle Manager.
func NewManager(store MetadataStore, blobs storage.Storage, recorder Recorder) *Manager {
	return &Manager{store: store, blobs: blobs, recorder: recorder}
}

// Delete removes one asset: binary first (best-effort), then the metadata row.
// Returns ErrAssetNotFound when no such asset exists.
func (m *Manager) Delete(ctx context.Context, id string, actor audit.Actor) error {
	asset, err := m.store.GetAsset(ctx, id)
	if err != nil {
		return err
	}

	_ = m.deleteBinary(ctx, asset)

	if err := m.store.DeleteAssetRow(ctx, id); err != nil {
		return err
	}

	telemetry.AssetsDeletedTotal.WithLabelValues("single").Inc()

	metadata := map[string]interface{}{"path": asset.Path}
	if asset.Width != nil && asset.Height != nil {
		metadata["width"] = *asset.Width
		metadata["height"] = *asset.Height
	}
	m.recorder.Record(ctx, audit.Event{
		ActorID:       actor.ID,
		Action:        audit.ActionDelete,
		EntityType:    "Asset",
		EntityID:      id,
		ClientAddress: actor.ClientAddress,
		ClientAgent:   actor.ClientAgent,
		Metadata:      metadata,
	})

	return nil
}

// BulkDelete removes many assets, each independently: one failing id does not
// abort the rest. Partial success is reported through the result counts, never as
// an error for the whole batch.
func (m *Manager) BulkDelete(ctx context.Context, ids []string, actor audit.Actor) (*BulkResult, error) {
	result := &BulkResult{}
	deletedIDs := make([]string, 0, len(ids))

	for _, id := range ids {
		asset, err := m.store.GetAsset(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrAssetNotFound) {
				slog.Error("bulk delete: failed to load asset", "asset_id", id, "error", err)
			}
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}

		_ = m.deleteBinary(ctx, asset)

		if err := m.store.DeleteAssetRow(ctx, id); err != nil {
			slog.Error("bulk delete: failed to delete asset row", "asset_id", id, "error", err)
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}

		deletedIDs = append(deletedIDs, id)
	}

	result.DeletedCount = len(deletedIDs)
	if result.DeletedCount > 0 {
		telemetry.AssetsDeletedTotal.WithLabelValues("bulk").Add(float64(result.DeletedCount))
	}

	m.recorder.Record(ctx, audit.Event{
		ActorID:       actor.ID,
		Action:        audit.ActionBulkDelete,
		EntityType:    "Asset",
		ClientAddress: actor.ClientAddress,
		ClientAgent:   actor.ClientAgent,
		Metadata: map[string]interface{}{
			"deletedCount": result.DeletedCount,
			"deletedIds":   deletedIDs,
			"requested":    len(ids),
		},
	})

	return result, nil
}

// deleteBinary removes the blob behind an asset. A missing or unreachable blob
// must not block metadata cleanup, so the error is logged and swallowed here; the
// caller only cares that the attempt happened.
func (m *Manager) deleteBinary(ctx context.Context, asset *models.Asset) error {
	if err := m.blobs.Delete(ctx, asset.Path); err != nil {
		telemetry.AssetBinaryDeleteFailuresTotal.Inc()
		slog.Warn("failed to delete asset binary, continuing with metadata cleanup",
			"asset_id", asset.ID, "path", asset.Path, "error", err)
		return err
	}
	return nil
}
