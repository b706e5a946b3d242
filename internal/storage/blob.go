// Package storage persists the application snapshot as an opaque blob in a
// small key/value table, plus marker keys used to gate one-time actions
// such as demo seeding.
package storage

import "context"

// Well-known keys under which the snapshot and one-time markers live.
const (
	SnapshotKey = "appData"
	SeedMarker  = "app_initialized_v4"
)

// BlobStore is the persistence boundary of the entity store. Save is
// best-effort from the caller's point of view: a failure is logged and the
// in-memory state continues to serve the session.
type BlobStore interface {
	// Load returns the stored blob for key, and whether it existed.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	// Save writes the blob for key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error
	// HasMarker reports whether the marker key has been set.
	HasMarker(ctx context.Context, key string) (bool, error)
	// SetMarker persists the marker key.
	SetMarker(ctx context.Context, key string) error
	Close() error
}
