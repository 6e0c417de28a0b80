// Package cache provides the in-run result cache used by batch mode to skip
// re-parsing byte-identical inputs. It is memory-only: persisting results
// across runs would contradict the pipeline's stateless contract.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache stores serialized timelines keyed by content hash.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
}

// Key derives a cache key from raw source bytes.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return "claimline:v1:" + hex.EncodeToString(sum[:])
}

// Memory is a TTL-bounded in-memory cache.
type Memory struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewMemory creates a memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Memory{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get retrieves a cached value.
func (m *Memory) Get(key string) ([]byte, bool) {
	if v, found := m.store.Get(key); found {
		return v.([]byte), true
	}
	return nil, false
}

// Set stores a value under the cache's TTL.
func (m *Memory) Set(key string, value []byte) {
	m.store.Set(key, value, m.ttl)
}

// Clear drops every cached value.
func (m *Memory) Clear() {
	m.store.Flush()
}
