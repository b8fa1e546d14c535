package assets

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/portfolio-cms/portfolio-cms/internal/audit"
	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
	"github.com/portfolio-cms/portfolio-cms/internal/storage"
)

type fakeMetadataStore struct {
	assets     map[string]*models.Asset
	deleteErrs map[string]error
	deleted    []string
}

func (f *fakeMetadataStore) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	a, ok := f.assets[id]
	if !ok {
		return nil, ErrAssetNotFound
	}
	return a, nil
}

func (f *fakeMetadataStore) DeleteAssetRow(ctx context.Context, id string) error {
	if err := f.deleteErrs[id]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeBlobs struct {
	deleteErr    error
	deletedPaths []string
}

func (f *fakeBlobs) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	return &storage.UploadResult{Path: path, Size: size}, nil
}

func (f *fakeBlobs) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, path string) error {
	f.deletedPaths = append(f.deletedPaths, path)
	return f.deleteErr
}

func (f *fakeBlobs) GetURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "http://example.test/" + path, nil
}

func (f *fakeBlobs) Exists(ctx context.Context, path string) (bool, error) {
	return false, nil
}

type fakeRecorder struct {
	events []audit.Event
}

func (f *fakeRecorder) Record(ctx context.Context, ev audit.Event) {
	f.events = append(f.events, ev)
}

func sampleAsset(id string) *models.Asset {
	return &models.Asset{ID: id, Path: "images/" + id + ".webp"}
}

func testActor() audit.Actor {
	return audit.Actor{ID: "user-1", ClientAddress: "10.0.0.1", ClientAgent: "test"}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_RemovesBinaryAndRow(t *testing.T) {
	store := &fakeMetadataStore{assets: map[string]*models.Asset{"a-1": sampleAsset("a-1")}}
	blobs := &fakeBlobs{}
	recorder := &fakeRecorder{}
	m := NewManager(store, blobs, recorder)

	if err := m.Delete(context.Background(), "a-1", testActor()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blobs.deletedPaths) != 1 || blobs.deletedPaths[0] != "images/a-1.webp" {
		t.Errorf("deletedPaths = %v, want binary path", blobs.deletedPaths)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "a-1" {
		t.Errorf("deleted rows = %v, want [a-1]", store.deleted)
	}
	if len(recorder.events) != 1 || recorder.events[0].Action != audit.ActionDelete {
		t.Errorf("events = %v, want one DELETE event", recorder.events)
	}
}

func TestDelete_BinaryFailureStillRemovesRow(t *testing.T) {
	store := &fakeMetadataStore{assets: map[string]*models.Asset{"a-1": sampleAsset("a-1")}}
	blobs := &fakeBlobs{deleteErr: errStore}
	m := NewManager(store, blobs, &fakeRecorder{})

	if err := m.Delete(context.Background(), "a-1", testActor()); err != nil {
		t.Fatalf("binary failure must not fail the deletion, got: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Error("metadata row must be removed despite the binary failure")
	}
}

func TestDelete_RowFailureFailsOperation(t *testing.T) {
	store := &fakeMetadataStore{
		assets:     map[string]*models.Asset{"a-1": sampleAsset("a-1")},
		deleteErrs: map[string]error{"a-1": errStore},
	}
	recorder := &fakeRecorder{}
	m := NewManager(store, &fakeBlobs{}, recorder)

	if err := m.Delete(context.Background(), "a-1", testActor()); err == nil {
		t.Fatal("expected error when the metadata row cannot be removed")
	}
	if len(recorder.events) != 0 {
		t.Error("no audit event for an action that did not happen")
	}
}

func TestDelete_NotFound(t *testing.T) {
	m := NewManager(&fakeMetadataStore{assets: map[string]*models.Asset{}}, &fakeBlobs{}, &fakeRecorder{})

	err := m.Delete(context.Background(), "missing", testActor())
	if err != ErrAssetNotFound {
		t.Errorf("err = %v, want ErrAssetNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// BulkDelete
// ---------------------------------------------------------------------------

func TestBulkDelete_PartialFailure(t *testing.T) {
	store := &fakeMetadataStore{
		assets: map[string]*models.Asset{
			"a-1": sampleAsset("a-1"),
			"a-2": sampleAsset("a-2"),
			"a-3": sampleAsset("a-3"),
		},
		deleteErrs: map[string]error{"a-2": errStore},
	}
	recorder := &fakeRecorder{}
	m := NewManager(store, &fakeBlobs{}, recorder)

	result, err := m.BulkDelete(context.Background(), []string{"a-1", "a-2", "a-3", "missing"}, testActor())
	if err != nil {
		t.Fatalf("partial failure must not fail the batch: %v", err)
	}
	if result.DeletedCount != 2 {
		t.Errorf("DeletedCount = %d, want 2", result.DeletedCount)
	}
	if len(result.FailedIDs) != 2 {
		t.Errorf("FailedIDs = %v, want [a-2 missing]", result.FailedIDs)
	}

	if len(recorder.events) != 1 {
		t.Fatalf("len(events) = %d, want one BULK_DELETE event", len(recorder.events))
	}
	ev := recorder.events[0]
	if ev.Action != audit.ActionBulkDelete {
		t.Errorf("Action = %s, want %s", ev.Action, audit.ActionBulkDelete)
	}
	if ev.Metadata["deletedCount"] != 2 {
		t.Errorf("Metadata[deletedCount] = %v, want 2", ev.Metadata["deletedCount"])
	}
}

func TestBulkDelete_BinaryFailuresDoNotReduceCount(t *testing.T) {
	store := &fakeMetadataStore{
		assets: map[string]*models.Asset{
			"a-1": sampleAsset("a-1"),
			"a-2": sampleAsset("a-2"),
			"a-3": sampleAsset("a-3"),
		},
	}
	blobs := &fakeBlobs{deleteErr: errStore}
	m := NewManager(store, blobs, &fakeRecorder{})

	result, err := m.BulkDelete(context.Background(), []string{"a-1", "a-2", "a-3"}, testActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DeletedCount != 3 {
		t.Errorf("DeletedCount = %d, want 3 (binary failures are tolerated)", result.DeletedCount)
	}
	if len(result.FailedIDs) != 0 {
		t.Errorf("FailedIDs = %v, want none", result.FailedIDs)
	}
}

func TestBulkDelete_EmptyBatch(t *testing.T) {
	m := NewManager(&fakeMetadataStore{assets: map[string]*models.Asset{}}, &fakeBlobs{}, &fakeRecorder{})

	result, err := m.BulkDelete(context.Background(), nil, testActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DeletedCount != 0 || len(result.FailedIDs) != 0 {
		t.Errorf("result = %+v, want empty outcome", result)
	}
}
