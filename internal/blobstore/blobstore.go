// Package blobstore abstracts the remote object store the vault keeps its
// encrypted blobs and metadata index in. Adapters exist for the Google
// Drive v3 REST API and for S3-compatible stores; an in-memory store backs
// the tests.
package blobstore

import "context"

// FolderMimeType marks container objects. The Drive adapter maps it to the
// native folder type; other adapters treat it as an opaque marker.
const FolderMimeType = "application/vnd.google-apps.folder"

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
	Trashed  bool
}

// Query selects non-trashed objects by exact name and parent container.
// Zero-valued fields are not filtered on. Names with more than one entry
// matches any of them.
type Query struct {
	Names    []string
	ParentID string
	MimeType string
}

// Store is the surface the vault needs from a remote object store.
//
// Implementations must treat deleting an already-gone object as success
// and wrap transport and server failures in common.ErrRemoteUnavailable
// so callers can detect degraded mode with errors.Is.
type Store interface {
	// List returns the objects matching q.
	List(ctx context.Context, q Query) ([]ObjectInfo, error)

	// Create makes an empty object and returns its store-assigned id.
	// An empty parentID means the store root.
	Create(ctx context.Context, name, parentID, mimeType string) (string, error)

	// WriteContent replaces the content of an existing object.
	WriteContent(ctx context.Context, id string, data []byte, contentType string) error

	// ReadContent returns the full content of an object.
	ReadContent(ctx context.Context, id string) ([]byte, error)

	// Delete removes an object. Deleting an absent object is success.
	Delete(ctx context.Context, id string) error

	// GetMeta returns the object's current metadata.
	GetMeta(ctx context.Context, id string) (*ObjectInfo, error)
}
