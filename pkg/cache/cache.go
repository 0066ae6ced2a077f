// Package cache stores parsed class records so repeated analyses of the
// same jars skip the class file parser.
//
// Two backends implement [Cache]: [FileCache] keeps entries below a local
// directory and [RedisCache] shares them between machines. [NullCache]
// disables caching. [RecordCache] sits between the analyzer and a backend:
//
//	c, _ := cache.NewFileCache(dir)
//	rc := cache.NewRecordCache(c, nil, nil)
//	a := analyzer.New(analyzer.Options{Parse: rc.Parse})
//
// Keys are content addressed. A class file is keyed by the SHA-256 of its
// bytes, so the same class found in two jars, or under two paths, is
// parsed once.
package cache

import (
	"context"
	"time"
)

// Cache is a byte oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value stored under key. A missing or expired entry
	// yields (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// TTLRecord is the lifetime of a cached class record. Records are derived
// from the bytes they are keyed by, so they only expire to bound the size
// of the store.
const TTLRecord = 30 * 24 * time.Hour

// Keyer builds cache keys.
type Keyer interface {
	// RecordKey returns the key of the record parsed from a class file
	// whose content hash is classHash.
	RecordKey(classHash string) string
}

// recordSchema changes whenever the JSON form of a record does, so stale
// entries are never decoded.
const recordSchema = 1

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RecordKey returns "class:<hash of schema and classHash>".
func (DefaultKeyer) RecordKey(classHash string) string {
	return hashKey("class", recordSchema, classHash)
}
