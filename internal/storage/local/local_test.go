package local

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/portfolio-cms/portfolio-cms/internal/config"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := New(&config.LocalStorageConfig{BasePath: t.TempDir()}, "http://localhost:8080")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestUpload_ComputesSizeAndChecksum(t *testing.T) {
	s := newTestStorage(t)

	content := "hello world"
	result, err := s.Upload(context.Background(), "images/cover.webp", strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if result.Path != "images/cover.webp" {
		t.Errorf("Path = %s, want images/cover.webp", result.Path)
	}
	if result.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", result.Size, len(content))
	}
	// sha256("hello world")
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if result.Checksum != want {
		t.Errorf("Checksum = %s, want %s", result.Checksum, want)
	}
}

func TestDownload_Roundtrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "binary payload"
	if _, err := s.Upload(ctx, "images/a.webp", strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	rc, err := s.Download(ctx, "images/a.webp")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != content {
		t.Errorf("downloaded %q, want %q", got, content)
	}
}

func TestDownload_Missing(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Download(context.Background(), "missing.webp"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDelete_RemovesFile(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.Upload(ctx, "images/a.webp", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := s.Delete(ctx, "images/a.webp"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exists, err := s.Exists(ctx, "images/a.webp")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("file still exists after delete")
	}
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	s := newTestStorage(t)

	if err := s.Delete(context.Background(), "never-uploaded.webp"); err != nil {
		t.Errorf("Delete of missing path must be a no-op, got %v", err)
	}
}

func TestExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "a.webp")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("Exists = true for absent file")
	}

	if _, err := s.Upload(ctx, "a.webp", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err = s.Exists(ctx, "a.webp")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("Exists = false for uploaded file")
	}
}

func TestGetURL(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.Upload(ctx, "images/a.webp", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	url, err := s.GetURL(ctx, "images/a.webp", time.Minute)
	if err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	want := "http://localhost:8080/v1/assets/files/images/a.webp"
	if url != want {
		t.Errorf("url = %s, want %s", url, want)
	}
}

func TestGetURL_Missing(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.GetURL(context.Background(), "missing.webp", time.Minute); err == nil {
		t.Error("expected error for missing file")
	}
}
