package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultImageInterval spaces image requests to stay under typical
// per-minute quotas.
const DefaultImageInterval = 5 * time.Second

// PacedImager limits how often Inner is called.
type PacedImager struct {
	Inner   Imager
	limiter *rate.Limiter
}

// NewPacedImager allows one call per interval with a burst of burst.
// A non-positive interval disables pacing.
func NewPacedImager(inner Imager, interval time.Duration, burst int) *PacedImager {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &PacedImager{Inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

// Generate waits for a slot and then calls Inner.
func (p *PacedImager) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.Inner.Generate(ctx, prompt)
}
