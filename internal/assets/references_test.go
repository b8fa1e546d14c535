package assets

import (
	"context"
	"errors"
	"testing"

	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/db/repositories"
)

var errStore = errors.New("store error")

type fakeReferenceStore struct {
	counts  map[string]int // relation kind → owner count
	err     error
	orphans []*models.Asset
}

func (f *fakeReferenceStore) CountOwners(ctx context.Context, assetID string, rel repositories.AssetRelation) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[rel.Kind], nil
}

func (f *fakeReferenceStore) ListOrphans(ctx context.Context, relations []repositories.AssetRelation, limit, offset int) ([]*models.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orphans, nil
}

// ---------------------------------------------------------------------------
// CountReferences / IsOrphan
// ---------------------------------------------------------------------------

func TestCountReferences_CoversEveryRelationKind(t *testing.T) {
	store := &fakeReferenceStore{counts: map[string]int{RelationWorkCover: 2}}
	registry := NewRegistry(store, DefaultRelationKinds())

	counts, err := registry.CountReferences(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counts) != len(DefaultRelationKinds()) {
		t.Errorf("len(counts) = %d, want one entry per relation kind", len(counts))
	}
	if counts[RelationWorkCover] != 2 {
		t.Errorf("counts[%s] = %d, want 2", RelationWorkCover, counts[RelationWorkCover])
	}
	if counts[RelationLabelImage] != 0 {
		t.Errorf("counts[%s] = %d, want 0", RelationLabelImage, counts[RelationLabelImage])
	}
}

func TestIsOrphan_ZeroAcrossAllKinds(t *testing.T) {
	registry := NewRegistry(&fakeReferenceStore{counts: map[string]int{}}, DefaultRelationKinds())

	orphan, err := registry.IsOrphan(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !orphan {
		t.Error("asset with zero owners everywhere must be an orphan")
	}
}

func TestIsOrphan_SingleReferenceDisqualifies(t *testing.T) {
	store := &fakeReferenceStore{counts: map[string]int{RelationExpertiseGallery: 1}}
	registry := NewRegistry(store, DefaultRelationKinds())

	orphan, err := registry.IsOrphan(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orphan {
		t.Error("one owner in any relation kind means not an orphan")
	}
}

func TestIsOrphan_StoreError(t *testing.T) {
	registry := NewRegistry(&fakeReferenceStore{err: errStore}, DefaultRelationKinds())

	_, err := registry.IsOrphan(context.Background(), "asset-1")
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// ListOrphans
// ---------------------------------------------------------------------------

func TestListOrphans_DelegatesWithConfiguredRelations(t *testing.T) {
	store := &fakeReferenceStore{orphans: []*models.Asset{{ID: "orphan-1"}}}
	registry := NewRegistry(store, DefaultRelationKinds())

	orphans, err := registry.ListOrphans(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orphans) != 1 || orphans[0].ID != "orphan-1" {
		t.Errorf("orphans = %v, want single orphan-1", orphans)
	}
}

func TestDefaultRelationKinds_SevenFixedKinds(t *testing.T) {
	kinds := DefaultRelationKinds()
	if len(kinds) != 7 {
		t.Fatalf("len(kinds) = %d, want 7", len(kinds))
	}
	seen := make(map[string]bool, len(kinds))
	for _, rel := range kinds {
		if rel.Table == "" || rel.Column == "" {
			t.Errorf("relation %s missing table/column", rel.Kind)
		}
		if seen[rel.Kind] {
			t.Errorf("duplicate relation kind %s", rel.Kind)
		}
		seen[rel.Kind] = true
	}
}
