package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/matzehuels/bundlescope/pkg/classfile"
	"github.com/matzehuels/bundlescope/pkg/observability"
)

// keyTypeRecord labels record lookups in cache hooks.
const keyTypeRecord = "record"

// ParseFunc parses the class file data found at path.
type ParseFunc func(ctx context.Context, path string, data []byte) (*classfile.Record, error)

// RecordCache memoizes a ParseFunc. Its Parse method has the shape the
// analyzer expects for its Parse option.
type RecordCache struct {
	cache Cache
	keyer Keyer
	parse ParseFunc

	hits, misses atomic.Int64
}

// NewRecordCache caches records parsed by parse in c. A nil keyer uses the
// default keys, a nil parse uses [classfile.Parse].
func NewRecordCache(c Cache, keyer Keyer, parse ParseFunc) *RecordCache {
	if c == nil {
		c = NewNullCache()
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if parse == nil {
		parse = func(_ context.Context, path string, data []byte) (*classfile.Record, error) {
			return classfile.Parse(path, data)
		}
	}
	return &RecordCache{cache: c, keyer: keyer, parse: parse}
}

// Parse returns the cached record for data, or parses it and stores the
// result. Cache failures fall back to parsing; malformed classes are never
// cached. The returned record always carries path.
func (rc *RecordCache) Parse(ctx context.Context, path string, data []byte) (*classfile.Record, error) {
	key := rc.keyer.RecordKey(Hash(data))

	if raw, hit, err := rc.cache.Get(ctx, key); err == nil && hit {
		var rec classfile.Record
		if json.Unmarshal(raw, &rec) == nil {
			rc.hits.Add(1)
			observability.Cache().OnCacheHit(ctx, keyTypeRecord)
			rec.Path = path
			return &rec, nil
		}
	}
	rc.misses.Add(1)
	observability.Cache().OnCacheMiss(ctx, keyTypeRecord)

	rec, err := rc.parse(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(rec); err == nil {
		if rc.cache.Set(ctx, key, raw, TTLRecord) == nil {
			observability.Cache().OnCacheSet(ctx, keyTypeRecord, len(raw))
		}
	}
	return rec, nil
}

// Stats returns the number of hits and misses so far.
func (rc *RecordCache) Stats() (hits, misses int64) {
	return rc.hits.Load(), rc.misses.Load()
}
