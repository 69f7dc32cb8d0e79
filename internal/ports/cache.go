package ports

import (
	"context"
	"time"
)

// Cache is a key→(payload, storedAt) store with lazy expiry.
// The freshness window belongs to the caller, not the entry: Get receives the
// ttl at read time, so two resource classes sharing a key schema can apply
// different windows without a schema change.
// Implementations MUST remove an entry on an expired read; a subsequent Get
// with any ttl misses until the entry is repopulated.
type Cache interface {
	// Get returns the stored payload if present and younger than ttl.
	// An entry that fails to load is treated as a miss and purged, never
	// surfaced as a fatal error.
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error)

	Set(ctx context.Context, key string, payload []byte) error

	// Clear removes every entry whose key starts with prefix.
	// An empty prefix removes everything.
	Clear(ctx context.Context, prefix string) error
}
