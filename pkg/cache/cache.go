// Package cache provides a generic, thread-safe cache used for place-group
// materialization. The cache has no eviction policy: place groups must stay
// resident for the whole configuration generation, so expiry or LRU eviction
// would break the populate-exactly-once contract.
//
// Statistics are always collected; Prometheus metrics are optional and
// enabled via functional options.
package cache

import (
	"github.com/xcube-dev/xcube-vdc-places/errors"
)

// Cache represents a generic cache interface parameterized by value type V.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found,
	// zero value and false otherwise.
	Get(key string) (V, bool)

	// Set stores a value with the given key. Returns true if a new entry was
	// created, false if an existing entry was updated.
	Set(key string, value V) (bool, error)

	// SetIfAbsent stores a value only when the key is not already present.
	// Returns the value now held under the key and true when the given value
	// was stored, or the pre-existing value and false otherwise.
	SetIfAbsent(key string, value V) (V, bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries in the cache.
	Size() int

	// Keys returns a slice of all keys currently in the cache.
	Keys() []string

	// Stats returns cache statistics.
	Stats() *Statistics
}

// EvictCallback is called when an entry is removed from the cache.
type EvictCallback[V any] func(key string, value V)

// NewSimple creates a cache without an eviction policy.
func NewSimple[V any](options ...Option[V]) (Cache[V], error) {
	return newSimpleCache(applyOptions(options...))
}

// validateKey validates a cache key for basic requirements.
// Returns a classified error if the key is invalid.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
