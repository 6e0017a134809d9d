package pandugo

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// Default TTLs: standard resources keep for 5 minutes, aggregation results
// for 2 minutes.
const (
	defaultResourceTTL    = 5 * time.Minute
	defaultAggregationTTL = 2 * time.Minute
)

// Entry is a cached response body. An entry is valid while
// now - Timestamp < TTL; expired entries are treated as absent and evicted
// lazily on the next lookup, never swept proactively.
type Entry struct {
	Data      []byte
	Timestamp time.Time
	TTL       time.Duration
	ETag      string
}

func (e *Entry) expired(now time.Time) bool {
	return now.Sub(e.Timestamp) >= e.TTL
}

// CacheStats summarizes cache usage.
type CacheStats struct {
	Entries     int
	Hits        uint64
	Misses      uint64
	Expirations uint64
}

// Cache is the response cache interface. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key string) (*Entry, bool)
	Set(key string, entry *Entry, ttl time.Duration)
	Delete(key string)
	Clear()
	Stats() CacheStats
}

const numShards = 16

// InMemoryCache is a sharded in-memory TTL cache.
type InMemoryCache struct {
	shards [numShards]*cacheShard

	hits        atomic.Uint64
	misses      atomic.Uint64
	expirations atomic.Uint64
}

type cacheShard struct {
	mu    sync.Mutex
	store map[string]*Entry
}

// NewInMemoryCache creates an empty cache.
func NewInMemoryCache() *InMemoryCache {
	c := &InMemoryCache{}
	for i := range c.shards {
		c.shards[i] = &cacheShard{store: make(map[string]*Entry)}
	}
	return c
}

func (c *InMemoryCache) getShard(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%numShards]
}

// Get returns the entry for key if present and unexpired. Expired entries are
// removed on the way out.
func (c *InMemoryCache) Get(key string) (*Entry, bool) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, exists := shard.store[key]
	if !exists {
		c.misses.Add(1)
		return nil, false
	}
	if entry.expired(time.Now()) {
		delete(shard.store, key)
		c.expirations.Add(1)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return entry, true
}

// Set stores an entry under key with the given TTL.
func (c *InMemoryCache) Set(key string, entry *Entry, ttl time.Duration) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry.Timestamp = time.Now()
	entry.TTL = ttl
	shard.store[key] = entry
}

// Delete removes an entry.
func (c *InMemoryCache) Delete(key string) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.store, key)
}

// Clear removes all entries.
func (c *InMemoryCache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[string]*Entry)
		shard.mu.Unlock()
	}
}

// Stats returns current usage counters. Entries counts stored entries,
// including any that have expired but not yet been looked up.
func (c *InMemoryCache) Stats() CacheStats {
	total := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		total += len(shard.store)
		shard.mu.Unlock()
	}
	return CacheStats{
		Entries:     total,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Expirations: c.expirations.Load(),
	}
}
