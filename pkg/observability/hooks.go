// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; main decides what
// receives them. The defaults are no-ops, so nothing is recorded unless a
// binary opts in.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnStageStart(ctx, observability.StagePlan)
//	// ... request the plan ...
//	observability.Pipeline().OnStageComplete(ctx, observability.StagePlan, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names a step of the flyer pipeline.
type Stage string

const (
	StagePlan        Stage = "plan"
	StageCompile     Stage = "compile"
	StageImage       Stage = "image"
	StageInject      Stage = "inject"
	StageRefine      Stage = "refine"
	StageMaterialize Stage = "materialize"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the flyer pipeline.
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage Stage)
	OnStageComplete(ctx context.Context, stage Stage, duration time.Duration, err error)

	// OnInject reports the outcome of one injection pass.
	OnInject(ctx context.Context, injected, missing int, degraded bool)

	// OnRefine reports one critique round.
	OnRefine(ctx context.Context, iteration int, accepted bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Model Hooks
// =============================================================================

// ModelHooks receives events from calls to the model service.
type ModelHooks interface {
	// OnRequest records an outgoing call. kind is "chat" or "image".
	OnRequest(ctx context.Context, kind, model string)

	// OnResponse records a completed call; err is nil on success.
	OnResponse(ctx context.Context, kind, model string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, Stage)                          {}
func (NoopPipelineHooks) OnStageComplete(context.Context, Stage, time.Duration, error) {}
func (NoopPipelineHooks) OnInject(context.Context, int, int, bool)                     {}
func (NoopPipelineHooks) OnRefine(context.Context, int, bool)                          {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopModelHooks is a no-op implementation of ModelHooks.
type NoopModelHooks struct{}

func (NoopModelHooks) OnRequest(context.Context, string, string)                        {}
func (NoopModelHooks) OnResponse(context.Context, string, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	modelHooks    ModelHooks    = NoopModelHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetModelHooks registers custom model service hooks.
func SetModelHooks(h ModelHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		modelHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Model returns the registered model service hooks.
func Model() ModelHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return modelHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	modelHooks = NoopModelHooks{}
}
