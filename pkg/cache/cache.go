// Package cache stores model responses so repeated requests for the same
// prompt do not pay for another round-trip.
//
// Four backends share the [Cache] interface:
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [MemoryCache]: in-process, for tests and single-instance servers
//   - [RedisCache]: shared between server instances
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] so the key layout lives in one place.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// A miss is reported as hit=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live values.
const (
	TTLPlan     = 24 * time.Hour
	TTLImage    = 7 * 24 * time.Hour
	TTLCritique = 24 * time.Hour
)

// Keyer builds cache keys for each kind of cached response.
type Keyer interface {
	PlanKey(model, prompt string) string
	ImageKey(model, prompt string, opts ImageKeyOpts) string
	CritiqueKey(model, prompt string) string
}

// ImageKeyOpts holds the generation parameters that change the image.
type ImageKeyOpts struct {
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	Style   string `json:"style,omitempty"`
}

// DefaultKeyer hashes the inputs of each request into a prefixed key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlanKey keys a planning completion.
func (DefaultKeyer) PlanKey(model, prompt string) string {
	return hashKey("plan", model, prompt)
}

// ImageKey keys a generated image.
func (DefaultKeyer) ImageKey(model, prompt string, opts ImageKeyOpts) string {
	return hashKey("image", model, prompt, opts)
}

// CritiqueKey keys a critique completion.
func (DefaultKeyer) CritiqueKey(model, prompt string) string {
	return hashKey("critique", model, prompt)
}
