package ristretto

import (
	"fmt"
	"time"

	"github.com/lwsgs/lwsgs/cache"
	"github.com/lwsgs/lwsgs/db"
	// https://pkg.go.dev/github.com/dgraph-io/ristretto/v2
	ristr "github.com/dgraph-io/ristretto/v2"
)

// Cache is a ristretto-backed cache.SessionCache. Every entry is one
// session row, so cost is fixed at 1 rather than exposed as a
// caller-supplied parameter the way a general-purpose wrapper would.
type Cache struct {
	c *ristr.Cache[string, *db.Session]
}

var _ cache.SessionCache = (*Cache)(nil)

// Get retrieves the cached session for id.
func (rc *Cache) Get(id string) (*db.Session, bool) {
	return rc.c.Get(id)
}

// Set caches sess for id. ttl <= 0 caches it with no expiry.
func (rc *Cache) Set(id string, sess *db.Session, ttl time.Duration) bool {
	if ttl <= 0 {
		return rc.c.Set(id, sess, 1)
	}
	return rc.c.SetWithTTL(id, sess, 1, ttl)
}

// Invalidate stores a nil tombstone for id.
func (rc *Cache) Invalidate(id string) bool {
	return rc.c.Set(id, nil, 1)
}

// New creates a session cache sized by a predefined level.
func New(level string) (cache.SessionCache, error) {
	params, ok := cacheLevels[level]
	if !ok {
		// This check is a safeguard; validation in the config should prevent this.
		return nil, fmt.Errorf("invalid cache level provided: %s", level)
	}

	ristrettoCache, err := ristr.NewCache[string, *db.Session](&ristr.Config[string, *db.Session]{
		NumCounters: params.NumCounters,
		MaxCost:     params.MaxCost,
		BufferItems: params.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	return &Cache{c: ristrettoCache}, nil
}

// CacheParams holds the configuration for a Ristretto cache instance.
type CacheParams struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// cacheLevels defines presets for different operational environments,
// mapping semantic VM sizes to Ristretto parameters.
var cacheLevels = map[string]CacheParams{
	"small": {
		NumCounters: 1e5,     // Track 100k keys, assumes ~10k active sessions
		MaxCost:     1 << 26, // 64MB
		BufferItems: 64,
	},
	"medium": {
		NumCounters: 1e6,     // Track 1M keys, assumes ~100k active sessions
		MaxCost:     1 << 28, // 256MB
		BufferItems: 128,
	},
	"large": {
		NumCounters: 1e7,     // Track 10M keys, assumes ~1M active sessions
		MaxCost:     1 << 30, // 1GB
		BufferItems: 256,
	},
	"very-large": {
		NumCounters: 4e7,     // Track 40M keys, assumes ~4M active sessions
		MaxCost:     1 << 32, // 4GB
		BufferItems: 512,
	},
}
