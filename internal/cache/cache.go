// Package cache provides a small byte-oriented cache abstraction.
//
// The grant engine uses it for short-lived federated login state (nonces
// keyed by hashed state tokens). Backends: memory (in-process, dev/test)
// and Redis (shared, production).
package cache

import "time"

// Cache is the minimal surface the engine needs.
type Cache interface {
	// Get returns the value and whether the key exists and is unexpired.
	Get(key string) ([]byte, bool)

	// Set stores a value with a TTL. ttl == 0 means the backend default.
	Set(key string, value []byte, ttl time.Duration)

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string)
}
