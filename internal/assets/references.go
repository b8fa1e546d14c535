// Package assets implements shared-asset lifecycle management: reference counting
// across every owning relation kind, orphan detection, and two-phase deletion of
// the binary object plus its metadata row.
package assets

import (
	"context"
	"fmt"

	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/db/repositories"
)

// Owning relation kinds. The set is closed and kept in lock-step with the schema:
// a new "thing that can reference an asset" is added by appending one descriptor
// to DefaultRelationKinds, nothing else.
const (
	RelationWorkCover        = "work_cover"
	RelationWorkGallery      = "work_gallery"
	RelationCategoryCover    = "category_cover"
	RelationLabelImage       = "label_image"
	RelationComposerImage    = "composer_image"
	RelationExpertiseCover   = "expertise_cover"
	RelationExpertiseGallery = "expertise_gallery"
)

// DefaultRelationKinds returns the full enumeration of owning relation kinds.
func DefaultRelationKinds() []repositories.AssetRelation {
	return []repositories.AssetRelation{
		{Kind: RelationWorkCover, Table: "works", Column: "cover_asset_id"},
		{Kind: RelationWorkGallery, Table: "work_gallery_assets", Column: "asset_id"},
		{Kind: RelationCategoryCover, Table: "categories", Column: "cover_asset_id"},
		{Kind: RelationLabelImage, Table: "labels", Column: "image_asset_id"},
		{Kind: RelationComposerImage, Table: "composers", Column: "image_asset_id"},
		{Kind: RelationExpertiseCover, Table: "expertises", Column: "cover_asset_id"},
		{Kind: RelationExpertiseGallery, Table: "expertise_gallery_assets", Column: "asset_id"},
	}
}

// ReferenceStore is the persistence interface the Registry aggregates over.
type ReferenceStore interface {
	CountOwners(ctx context.Context, assetID string, rel repositories.AssetRelation) (int, error)
	ListOrphans(ctx context.Context, relations []repositories.AssetRelation, limit, offset int) ([]*models.Asset, error)
}

// Registry computes inbound reference counts for assets. It is read-only aggregate
// logic: counting happens in the store, owner rows are never loaded.
type Registry struct {
	store     ReferenceStore
	relations []repositories.AssetRelation
}

// NewRegistry creates a Registry over the given relation kinds. Pass
// DefaultRelationKinds() outside of tests.
func NewRegistry(store ReferenceStore, relations []repositories.AssetRelation) *Registry {
	return &Registry{store: store, relations: relations}
}

// CountReferences returns the owner count per relation kind for one asset.
func (r *Registry) CountReferences(ctx context.Context, assetID string) (map[string]int, error) {
	counts := make(map[string]int, len(r.relations))
	for _, rel := range r.relations {
		count, err := r.store.CountOwners(ctx, assetID, rel)
		if err != nil {
			return nil, fmt.Errorf("failed to count references for asset %s: %w", assetID, err)
		}
		counts[rel.Kind] = count
	}
	return counts, nil
}

// IsOrphan reports whether an asset has zero inbound references across every
// owning relation kind.
func (r *Registry) IsOrphan(ctx context.Context, assetID string) (bool, error) {
	counts, err := r.CountReferences(ctx, assetID)
	if err != nil {
		return false, err
	}
	for _, count := range counts {
		if count > 0 {
			return false, nil
		}
	}
	return true, nil
}

// ListOrphans returns a page of assets with zero inbound references. Consistency
// is read-time best-effort: this backs operator-facing cleanup tooling, not a
// correctness-critical path.
func (r *Registry) ListOrphans(ctx context.Context, limit, offset int) ([]*models.Asset, error) {
	return r.store.ListOrphans(ctx, r.relations, limit, offset)
}
