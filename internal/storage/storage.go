// Package storage defines the Storage interface and common types for all asset
// binary storage backends.
//
// New backends are added by implementing the Storage interface and registering
// with the factory via an init() function in the backend's own package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (Storage, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// The api package imports each backend with a blank import to trigger init().
// This means adding a new backend requires no changes to the factory — only a
// blank import in internal/api/router.go.
package storage

import (
	"context"
	"io"
	"time"
)

// Storage defines the interface for all asset binary backends.
type Storage interface {
	// Upload stores a binary and returns the storage result with path and checksum
	Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error)

	// Download retrieves a binary and returns a reader
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a binary from storage. Deleting a missing binary is not an
	// error: asset cleanup must converge even when the blob is already gone.
	Delete(ctx context.Context, path string) error

	// GetURL returns a direct download URL.
	// For cloud storage, this generates a signed URL valid for the specified TTL.
	GetURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// Exists checks if a binary exists at the specified path
	Exists(ctx context.Context, path string) (bool, error)
}

// UploadResult contains information about an uploaded binary
type UploadResult struct {
	// Path is the storage path where the binary was stored
	Path string

	// Size is the binary size in bytes
	Size int64

	// Checksum is the SHA256 hash of the binary contents
	Checksum string
}
