package llm

import (
	"context"
	"time"

	"github.com/matzehuels/flyersmith/pkg/cache"
	"github.com/matzehuels/flyersmith/pkg/observability"
)

// CachedCompleter serves repeated prompts from a cache.
type CachedCompleter struct {
	Inner Completer
	Group *cache.Group
	// Key maps a prompt to its cache key.
	Key func(prompt string) string
	TTL time.Duration
	// KeyType labels cache hook events ("plan", "critique").
	KeyType string
}

// Complete returns the cached reply for prompt or asks Inner.
func (c *CachedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	data, err := load(ctx, c.Group, c.KeyType, c.Key(prompt), c.TTL, func(ctx context.Context) ([]byte, error) {
		s, err := c.Inner.Complete(ctx, prompt)
		return []byte(s), err
	})
	return string(data), err
}

// CachedImager serves repeated image prompts from a cache.
type CachedImager struct {
	Inner Imager
	Group *cache.Group
	Key   func(prompt string) string
	TTL   time.Duration
}

// Generate returns the cached image for prompt or asks Inner.
func (c *CachedImager) Generate(ctx context.Context, prompt string) ([]byte, error) {
	return load(ctx, c.Group, "image", c.Key(prompt), c.TTL, func(ctx context.Context) ([]byte, error) {
		return c.Inner.Generate(ctx, prompt)
	})
}

func load(ctx context.Context, g *cache.Group, keyType, key string, ttl time.Duration, fn cache.Loader) ([]byte, error) {
	hooks := observability.Cache()
	data, hit, err := g.GetOrLoad(ctx, key, ttl, fn)
	if err != nil {
		return nil, err
	}
	if hit {
		hooks.OnCacheHit(ctx, keyType)
	} else {
		hooks.OnCacheMiss(ctx, keyType)
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}

// NewCachedPlanner caches planning completions under keyer.PlanKey.
func NewCachedPlanner(inner Completer, g *cache.Group, keyer cache.Keyer, model string) *CachedCompleter {
	return &CachedCompleter{
		Inner:   inner,
		Group:   g,
		Key:     func(p string) string { return keyer.PlanKey(model, p) },
		TTL:     cache.TTLPlan,
		KeyType: "plan",
	}
}

// NewCachedCritic caches critique completions under keyer.CritiqueKey.
func NewCachedCritic(inner Completer, g *cache.Group, keyer cache.Keyer, model string) *CachedCompleter {
	return &CachedCompleter{
		Inner:   inner,
		Group:   g,
		Key:     func(p string) string { return keyer.CritiqueKey(model, p) },
		TTL:     cache.TTLCritique,
		KeyType: "critique",
	}
}

// NewCachedImager caches images under keyer.ImageKey.
func NewCachedImager(inner Imager, g *cache.Group, keyer cache.Keyer, model string, opts cache.ImageKeyOpts) *CachedImager {
	return &CachedImager{
		Inner: inner,
		Group: g,
		Key:   func(p string) string { return keyer.ImageKey(model, p, opts) },
		TTL:   cache.TTLImage,
	}
}
