// asset.go defines the Asset model: metadata for a stored binary object (an uploaded
// image) that may be referenced by any number of owning entities. Assets do not know
// their owners; ownership is counted through the assets reference registry.
package models

import "time"

// Asset represents the metadata row for one stored binary object.
type Asset struct {
	ID              string
	Path            string // location in the blob store
	Alt             *string
	Width           *int
	Height          *int
	AspectRatio     *float64
	BlurPlaceholder *string // tiny base64 preview rendered while the full image loads
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
