// Package checksum centralises the SHA-256 fingerprinting used across the
// service: export payloads are hashed before they land in export history, and
// storage backends hash asset binaries while writing them.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// SHA256Bytes returns the hex-encoded SHA-256 digest of an in-memory payload.
func SHA256Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Hasher accumulates a SHA-256 digest from streamed writes. It implements
// io.Writer so callers can hash while copying, without buffering the whole
// payload in memory.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns an empty SHA-256 accumulator.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Write feeds more data into the digest. It never returns an error.
func (hr *Hasher) Write(p []byte) (int, error) {
	return hr.h.Write(p)
}

// Sum returns the hex-encoded digest of everything written so far. It does not
// reset the accumulator.
func (hr *Hasher) Sum() string {
	return hex.EncodeToString(hr.h.Sum(nil))
}
