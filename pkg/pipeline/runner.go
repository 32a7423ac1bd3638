package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flyersmith/pkg/cache"
	"github.com/matzehuels/flyersmith/pkg/llm"
	"github.com/matzehuels/flyersmith/pkg/observability"
	"github.com/matzehuels/flyersmith/pkg/summary"
)

// Runner executes runs against the model service.
//
// The Runner keeps no per-run state, so one Runner may serve concurrent
// runs; each run works on its own documents and asset list.
type Runner struct {
	Planner llm.Completer
	Imager  llm.Imager // nil disables image generation
	Critic  llm.Completer
	Cache   cache.Cache
	Logger  *log.Logger
}

// NewRunner creates a runner from its model collaborators.
// If logger is nil, output is discarded.
func NewRunner(planner llm.Completer, imager llm.Imager, critic llm.Completer, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Planner: planner,
		Imager:  imager,
		Critic:  critic,
		Cache:   cache.NewNullCache(),
		Logger:  logger,
	}
}

// CachedRunnerConfig configures NewCachedRunner.
type CachedRunnerConfig struct {
	Keyer cache.Keyer
	// ImageInterval spaces image requests. Zero disables pacing.
	ImageInterval time.Duration
	ImageBurst    int
}

// NewCachedRunner wires client behind a shared cache: plans, images and
// critiques are cached under keys from cfg.Keyer, and image requests are
// paced. If c is nil, caching is disabled.
func NewCachedRunner(client *llm.OpenAI, c cache.Cache, cfg CachedRunnerConfig, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	keyer := cfg.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	g := cache.NewGroup(c)
	mc := client.Config()

	var imager llm.Imager = client
	if cfg.ImageInterval > 0 {
		imager = llm.NewPacedImager(imager, cfg.ImageInterval, cfg.ImageBurst)
	}
	imager = llm.NewCachedImager(imager, g, keyer, mc.ImageModel, cache.ImageKeyOpts{
		Size:    mc.ImageSize,
		Quality: mc.ImageQuality,
	})

	r := NewRunner(
		llm.NewCachedPlanner(client, g, keyer, mc.ChatModel),
		imager,
		llm.NewCachedCritic(client, g, keyer, mc.ChatModel),
		logger,
	)
	r.Cache = c
	return r
}

// Execute runs every stage for opts.Prompt.
//
// The returned error is non-nil only for invalid options or a cancelled
// context. On cancellation the partial result is returned alongside the
// error.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	logger := opts.Logger

	res := &Result{ID: uuid.NewString()}

	p, err := r.Plan(ctx, res, opts)
	if err != nil {
		return res, err
	}
	if p == nil {
		res.Summary = summary.Generate(nil)
		return res, nil
	}

	r.Compile(ctx, res, opts)

	if err := r.GenerateImages(ctx, res, opts); err != nil {
		return res, err
	}
	r.Inject(ctx, res, opts)

	if err := r.Refine(ctx, res, opts); err != nil {
		return res, err
	}
	r.Materialize(ctx, res, opts)

	res.Summary = summary.Generate(res.Plan)
	logger.Info("flyer ready",
		"id", res.ID,
		"images", len(res.Assets),
		"rounds", len(res.Rounds),
		"warnings", len(res.Warnings))
	return res, nil
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func stage(ctx context.Context, s observability.Stage) func(error) time.Duration {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, s)
	start := time.Now()
	return func(err error) time.Duration {
		d := time.Since(start)
		hooks.OnStageComplete(ctx, s, d, err)
		return d
	}
}
