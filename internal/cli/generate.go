package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flyersmith/pkg/observability"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/refine"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output        string // directory for documents and images
	rounds        int    // critique rounds
	skipImages    bool   // compile without generating images
	skipRefine    bool   // skip the critique loop
	legibilityCap bool   // cap background shape opacity
	noCache       bool   // bypass the completion cache
	noArchive     bool   // do not store the record
}

// generateCommand creates the generate command, which runs the whole pipeline.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Design a flyer from a prompt",
		Long: `Design a flyer from a prompt.

The plan, the compiled document, the refined document and a self-contained
preview are written to the output directory; images go to
<output>/flyer_images/<id>/.`,
		Example: `  flyersmith generate "Summer tea festival, slogan: Refresh Your Soul"
  flyersmith generate -o out --rounds 1 "Jazz night at the harbour"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.rounds == 0 {
				opts.rounds = c.Config.Pipeline.Rounds
			}
			if opts.output == "" {
				opts.output = c.Config.Pipeline.OutputDir
			}
			opts.legibilityCap = opts.legibilityCap || c.Config.Pipeline.LegibilityCap
			return c.runGenerate(cmd.Context(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default from config, \"outputs\")")
	cmd.Flags().IntVarP(&opts.rounds, "rounds", "r", 0, "maximum critique rounds (default from config, 3)")
	cmd.Flags().BoolVar(&opts.skipImages, "skip-images", false, "do not generate images")
	cmd.Flags().BoolVar(&opts.skipRefine, "skip-refine", false, "do not run the critique loop")
	cmd.Flags().BoolVar(&opts.legibilityCap, "legibility-cap", false, "cap background shape opacity to keep text readable")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the completion cache")
	cmd.Flags().BoolVar(&opts.noArchive, "no-archive", false, "do not store the flyer record")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, prompt string, opts generateOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var st store.Store
	if !opts.noArchive {
		if st, err = c.newStore(ctx); err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
	}

	prog := newProgress(c.Logger)
	res, err := c.execute(ctx, runner, pipeline.Options{
		Prompt:        prompt,
		Rounds:        opts.rounds,
		SkipImages:    opts.skipImages,
		SkipRefine:    opts.skipRefine,
		LegibilityCap: opts.legibilityCap,
		OutputDir:     opts.output,
	})
	if err != nil {
		return err
	}

	out, err := c.saveRun(ctx, st, res, prompt, opts.output)
	if err != nil {
		return err
	}
	prog.done("Generated flyer " + res.ID)

	printResult(res, out)
	return nil
}

// execute runs the pipeline behind a spinner that follows the stages.
// With --verbose the stage log replaces the spinner.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	if c.verbose {
		return runner.Execute(ctx, opts)
	}

	spinner := newSpinnerWithContext(ctx, "Designing flyer...")
	observability.SetPipelineHooks(spinner.stageHooks())
	defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})

	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	return res, err
}

// printResult reports a finished run and the files it wrote.
func printResult(res *pipeline.Result, out store.Outputs) {
	if res.Failed {
		printWarning("No usable design plan; wrote an error document")
	} else {
		printSuccess("%s", res.Summary)
	}
	printRunStats(res.Stats.Images, len(res.Rounds), refine.Accepted(res.Rounds))
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}

	for _, p := range []string{out.Final, out.Refined, out.Preview, out.Plan, out.Record} {
		if p != "" {
			printFile(p)
		}
	}
	if out.Preview != "" {
		printNextStep("Open the preview", "open "+out.Preview)
	}
}
