package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements
// PipelineHooks, CacheHooks and ModelHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

// Register installs h for all hook categories.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetModelHooks(h)
}

func (h *LogHooks) OnStageStart(_ context.Context, stage Stage) {
	h.logger.Debug("stage started", "stage", stage)
}

func (h *LogHooks) OnStageComplete(_ context.Context, stage Stage, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("stage failed", "stage", stage, "duration", d, "error", err)
		return
	}
	h.logger.Debug("stage complete", "stage", stage, "duration", d)
}

func (h *LogHooks) OnInject(_ context.Context, injected, missing int, degraded bool) {
	h.logger.Debug("injected", "images", injected, "missing", missing, "degraded", degraded)
}

func (h *LogHooks) OnRefine(_ context.Context, iteration int, accepted bool) {
	h.logger.Debug("refined", "iteration", iteration, "accepted", accepted)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, kind, model string) {
	h.logger.Debug("model request", "kind", kind, "model", model)
}

func (h *LogHooks) OnResponse(_ context.Context, kind, model string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("model error", "kind", kind, "model", model, "duration", d, "error", err)
		return
	}
	h.logger.Debug("model response", "kind", kind, "model", model, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ModelHooks    = (*LogHooks)(nil)
)
