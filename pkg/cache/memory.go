package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often MemoryCache purges expired entries.
const DefaultCleanupInterval = 10 * time.Minute

// MemoryCache keeps entries in process memory.
type MemoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache creates an in-memory cache. Entries set with a zero TTL
// never expire.
func NewMemoryCache() Cache {
	return &MemoryCache{c: gocache.New(gocache.NoExpiration, DefaultCleanupInterval)}
}

// Get retrieves a value from the cache.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data.
func (m *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(key, append([]byte(nil), data...), ttl)
	return nil
}

// Delete removes a value from the cache.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Close drops all entries.
func (m *MemoryCache) Close() error {
	m.c.Flush()
	return nil
}

// Len returns the number of stored entries, expired ones included until
// the next cleanup.
func (m *MemoryCache) Len() int {
	return m.c.ItemCount()
}

var _ Cache = (*MemoryCache)(nil)
