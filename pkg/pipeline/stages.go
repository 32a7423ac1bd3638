package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/flyersmith/pkg/assets"
	"github.com/matzehuels/flyersmith/pkg/compile"
	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/inject"
	"github.com/matzehuels/flyersmith/pkg/observability"
	"github.com/matzehuels/flyersmith/pkg/plan"
	"github.com/matzehuels/flyersmith/pkg/preview"
	"github.com/matzehuels/flyersmith/pkg/prompt"
	"github.com/matzehuels/flyersmith/pkg/refine"
)

// Plan requests and decodes the design plan. When no usable plan comes
// back, res is marked failed and given an error document, and Plan
// returns a nil plan with a nil error. Only cancellation is returned.
func (r *Runner) Plan(ctx context.Context, res *Result, opts Options) (*plan.Plan, error) {
	done := stage(ctx, observability.StagePlan)

	reply, err := r.Planner.Complete(ctx, prompt.Planning(opts.Prompt))
	if err == nil {
		res.Plan, err = plan.Decode([]byte(reply), plan.WithLogger(opts.Logger))
	}
	res.Stats.PlanTime = done(err)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		res.warn(opts.Logger, "no usable plan", "error", err)
		res.fail(fmt.Sprintf("Flyer could not be designed: %s", errors.UserMessage(err)))
		return nil, nil
	}

	opts.Logger.Info("received plan",
		"title", res.Plan.Title(),
		"texts", len(res.Plan.Texts),
		"shapes", len(res.Plan.Layout.Shapes),
		"images", len(res.Plan.Images),
		"duration", res.Stats.PlanTime)
	return res.Plan, nil
}

func (res *Result) fail(message string) {
	res.Failed = true
	res.Final = compile.ErrorDocument(message)
	res.Document = res.Final
	res.Preview = res.Final
}

// Compile lays out res.Plan into res.Final.
func (r *Runner) Compile(ctx context.Context, res *Result, opts Options) {
	done := stage(ctx, observability.StageCompile)

	var copts []compile.Option
	if opts.LegibilityCap {
		copts = append(copts, compile.WithLegibilityCap())
	}
	out := compile.Compile(res.Plan, copts...)
	res.Final = out.Document
	res.Document = out.Document
	res.Stats.CompileTime = done(nil)

	opts.Logger.Info("compiled layout",
		"nodes", len(out.Document.Find(func(*document.Node) bool { return true })),
		"placeholders", len(out.Placements),
		"duration", res.Stats.CompileTime)
}

// GenerateImages requests one image per plan image request, in order, and
// stores each under the run folder. A failed image is skipped with a
// warning. Only cancellation is returned.
func (r *Runner) GenerateImages(ctx context.Context, res *Result, opts Options) error {
	if opts.SkipImages || r.Imager == nil || len(res.Plan.Images) == 0 {
		return nil
	}
	done := stage(ctx, observability.StageImage)
	run, err := assets.OpenRun(opts.OutputDir, res.ID)
	if err != nil {
		res.warn(opts.Logger, "cannot store images", "error", err)
		done(err)
		return nil
	}

	tone := res.Plan.Tone()
	for i, req := range res.Plan.Images {
		if err := ctx.Err(); err != nil {
			res.Stats.ImageTime = done(err)
			return err
		}
		data, err := r.Imager.Generate(ctx, prompt.Image(req.Description.String(), tone))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				res.Stats.ImageTime = done(ctxErr)
				return ctxErr
			}
			res.warn(opts.Logger, fmt.Sprintf("image %d skipped", i), "description", req.Description, "error", err)
			continue
		}
		img, err := run.Save(i, req, data)
		if err != nil {
			res.warn(opts.Logger, fmt.Sprintf("image %d not saved", i), "error", err)
			continue
		}
		res.Assets = append(res.Assets, img)
	}
	res.Stats.Images = len(res.Assets)
	res.Stats.ImageTime = done(nil)

	opts.Logger.Info("generated images",
		"requested", len(res.Plan.Images),
		"generated", len(res.Assets),
		"duration", res.Stats.ImageTime)
	return nil
}

// Inject places res.Assets into res.Final.
func (r *Runner) Inject(ctx context.Context, res *Result, opts Options) {
	done := stage(ctx, observability.StageInject)
	res.Report = inject.Inject(res.Final, res.Assets, inject.WithLogger(opts.Logger))
	err := res.Report.Err()
	done(err)
	if err != nil {
		res.Warnings = append(res.Warnings, errors.UserMessage(err))
	}
	observability.Pipeline().OnInject(ctx, len(res.Report.Injected), len(res.Report.Missing), res.Report.Degraded)
}

// Refine runs the critique loop on a copy of res.Final. Only cancellation
// is returned.
func (r *Runner) Refine(ctx context.Context, res *Result, opts Options) error {
	if opts.SkipRefine || r.Critic == nil {
		return nil
	}
	done := stage(ctx, observability.StageRefine)

	loop := refine.Loop{Merger: refine.NewMerger(r.Critic, opts.Logger), MaxRounds: opts.Rounds}
	last, rounds := loop.Run(ctx, res.Final.Clone(), res.Assets)
	res.Rounds = rounds
	if len(rounds) > 0 {
		res.Document = last.Document
	}
	for _, o := range rounds {
		observability.Pipeline().OnRefine(ctx, o.Iteration, o.Accepted)
		if err := o.Err(); err != nil {
			res.Warnings = append(res.Warnings, errors.UserMessage(err))
		}
	}
	res.Stats.RefineTime = done(ctx.Err())

	opts.Logger.Info("refined document",
		"rounds", len(rounds),
		"accepted", refine.Accepted(rounds),
		"duration", res.Stats.RefineTime)
	return ctx.Err()
}

// Materialize builds res.Preview from res.Document.
func (r *Runner) Materialize(ctx context.Context, res *Result, opts Options) {
	done := stage(ctx, observability.StageMaterialize)
	out, st := preview.MaterializeStats(res.Document,
		preview.WithFS(opts.AssetFS()),
		preview.WithLogger(opts.Logger))
	res.Preview = out
	res.Stats.PreviewTime = done(nil)
	if len(st.Missing) > 0 {
		opts.Logger.Debug("preview kept unreadable assets as paths", "missing", st.Missing)
	}
}
