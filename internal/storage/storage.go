// Package storage is the boundary to the external image host. Posts hold
// only the returned URL and deletable handle.
package storage

import (
	"context"
	"io"
)

// Asset is an uploaded object: a retrievable URL and a deletable handle.
type Asset struct {
	URL    string `json:"url"`
	Handle string `json:"handle"`
}

// Store uploads and deletes image assets.
type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (Asset, error)
	Delete(ctx context.Context, handle string) error
}
