// Package localcache persists small per-device key-value state: the
// per-identity metadata snapshot, resolved remote object ids and the
// key-derivation salt. It is a cache of last resort, never the source of
// truth; losing it costs a round-trip, not data.
package localcache

import "context"

// Repository is a string-keyed durable KV store.
type Repository interface {
	// Get returns the stored value, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetMany stores several keys atomically.
	SetMany(ctx context.Context, values map[string][]byte) error

	// Delete removes key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key.
	Clear(ctx context.Context) error
}
