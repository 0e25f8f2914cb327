// Package blockcache implements a byte-block cache. In this module it is
// consulted by blobstore.CachingStore for blob reads; the stream readers
// do not consult it.
package blockcache

import "context"

// Key identifies one cached decompressed block: a mark range within a
// named part.
type Key struct {
	PartName   string
	MarkBegin  int
	MarkEnd    int
}

// Cache is a byte-oriented cache for immutable, decompressed blocks.
// Returned slices must be treated as read-only.
type Cache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key Key) (b []byte, ok bool)
	// Set caches a block. Implementations may copy or retain; the caller
	// must treat b as immutable afterwards.
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate drops entries for a part, e.g. once it is no longer live.
	Invalidate(predicate func(key Key) bool)
}
