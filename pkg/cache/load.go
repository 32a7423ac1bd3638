package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fetches a value on a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// Group loads values through a cache, collapsing concurrent misses for
// the same key into one call of the loader.
type Group struct {
	Cache Cache
	sf    singleflight.Group
}

// NewGroup creates a read-through group over c. A nil c disables caching.
func NewGroup(c Cache) *Group {
	if c == nil {
		c = NewNullCache()
	}
	return &Group{Cache: c}
}

// GetOrLoad returns the cached value for key, or calls load and stores its
// result for ttl. Cache read and write failures are not returned; the
// loader result is. hit reports whether the value came from the cache.
func (g *Group) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) (data []byte, hit bool, err error) {
	if data, ok, err := g.Cache.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	v, err, _ := g.sf.Do(key, func() (any, error) {
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = g.Cache.Set(ctx, key, data, ttl)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}
