package cache

import "time"

// CacheService is the key/value cache used for reference data and lookups
// that are safe to serve slightly stale.
type CacheService interface {
	// Get returns the value and true when the key is present and unexpired.
	Get(key string) (interface{}, bool)

	// Set stores a value for the given duration. A zero duration uses the
	// cache default.
	Set(key string, value interface{}, duration time.Duration)

	Delete(key string)

	// Flush removes all items
	Flush()

	// Count returns the number of items, including expired ones not yet cleaned up.
	Count() int
}
