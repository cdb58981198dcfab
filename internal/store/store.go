// Package store is the opaque document persistence boundary: JSON documents
// keyed by (kind, id) with optimistic versions and simple secondary lookups.
package store

import "context"

// Document kinds used by the interview core.
const (
	KindSession   = "session"
	KindReadiness = "readiness"
	KindRoadmap   = "roadmap"
)

// Store holds versioned JSON documents. Put with expectedVersion 0 inserts;
// any other value must match the stored version or the write fails with
// a conflict error.
type Store interface {
	// Get returns the document and its current version, or not-found.
	Get(ctx context.Context, kind, id string) ([]byte, int64, error)
	// Put writes doc and returns the new version.
	Put(ctx context.Context, kind, id string, doc []byte, expectedVersion int64) (int64, error)
	// QueryIndex returns up to limit documents whose top-level field matches key.
	QueryIndex(ctx context.Context, kind, field, key string, limit int) ([][]byte, error)
}
