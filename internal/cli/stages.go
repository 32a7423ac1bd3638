package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flyersmith/pkg/cache"
	"github.com/matzehuels/flyersmith/pkg/compile"
	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/inject"
	"github.com/matzehuels/flyersmith/pkg/llm"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/plan"
	"github.com/matzehuels/flyersmith/pkg/preview"
	"github.com/matzehuels/flyersmith/pkg/refine"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// =============================================================================
// compile
// =============================================================================

func (c *CLI) compileCommand() *cobra.Command {
	var output string
	var legibilityCap bool

	cmd := &cobra.Command{
		Use:   "compile [plan.json]",
		Short: "Lay out a saved design plan as HTML",
		Long: `Lay out a saved design plan as HTML without calling the model.

The document keeps one placeholder per image request; run inject to fill them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompile(args[0], output, legibilityCap || c.Config.Pipeline.LegibilityCap)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&legibilityCap, "legibility-cap", false, "cap background shape opacity to keep text readable")
	return cmd
}

func (c *CLI) runCompile(input, output string, legibilityCap bool) error {
	prog := newProgress(c.Logger)
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	p, err := plan.Decode(data, plan.WithLogger(c.Logger))
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	var opts []compile.Option
	if legibilityCap {
		opts = append(opts, compile.WithLegibilityCap())
	}
	res := compile.Compile(p, opts...)
	if err := writeOutput(output, []byte(document.Render(res.Document))); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Compiled %s: %d texts, %d shapes, %d image placeholders",
		input, len(p.Texts), len(p.Layout.Shapes), len(res.Placements)))
	return nil
}

// =============================================================================
// inject
// =============================================================================

func (c *CLI) injectCommand() *cobra.Command {
	var output, assetsPath string

	cmd := &cobra.Command{
		Use:   "inject [document.html]",
		Short: "Place generated images into a document",
		Long: `Place generated images into a document.

The assets file is a JSON list of generated images or a record.json written
by generate. Injection is idempotent: images already present are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInject(args[0], assetsPath, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&assetsPath, "assets", "a", "", "generated images (JSON list or record.json)")
	_ = cmd.MarkFlagRequired("assets")
	return cmd
}

func (c *CLI) runInject(input, assetsPath, output string) error {
	doc, err := readDocument(input)
	if err != nil {
		return err
	}
	assets, err := readAssets(assetsPath)
	if err != nil {
		return err
	}

	rep := inject.Inject(doc, assets, inject.WithLogger(c.Logger))
	if err := writeOutput(output, []byte(document.Render(doc))); err != nil {
		return err
	}
	c.Logger.Infof("Injected %d images, %d already present", len(rep.Injected), len(rep.Present))
	if err := rep.Err(); err != nil {
		c.Logger.Warn(errors.UserMessage(err), "missing", rep.Missing, "skipped", rep.Skipped)
	}
	return nil
}

// =============================================================================
// refine
// =============================================================================

func (c *CLI) refineCommand() *cobra.Command {
	var output, assetsPath string
	var rounds int
	var noCache bool

	cmd := &cobra.Command{
		Use:   "refine [document.html]",
		Short: "Run critique rounds on a document",
		Long: `Run critique rounds on a document.

Each round asks the critique model for a verdict and an edited document. An
edit is kept only when it is plausible; generated images are then placed
again so the edit cannot lose them. Rounds stop when the critic has no more
feedback.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rounds == 0 {
				rounds = c.Config.Pipeline.Rounds
			}
			if err := pipeline.ValidateRounds(rounds); err != nil {
				return err
			}
			return c.runRefine(cmd.Context(), args[0], assetsPath, output, rounds, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&assetsPath, "assets", "a", "", "generated images (JSON list or record.json)")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 0, "maximum critique rounds (default from config, 3)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the completion cache")
	return cmd
}

func (c *CLI) runRefine(ctx context.Context, input, assetsPath, output string, rounds int, noCache bool) error {
	doc, err := readDocument(input)
	if err != nil {
		return err
	}
	assets, err := readAssets(assetsPath)
	if err != nil {
		return err
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return err
	}
	defer ch.Close()
	critic := llm.NewCachedCritic(client, cache.NewGroup(ch), cache.NewDefaultKeyer(), client.Config().ChatModel)

	prog := newProgress(c.Logger)
	loop := refine.Loop{Merger: refine.NewMerger(critic, c.Logger), MaxRounds: rounds}
	last, outcomes := loop.Run(ctx, doc, assets)
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, o := range outcomes {
		printVerdict(o)
	}
	if err := writeOutput(output, []byte(document.Render(last.Document))); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Refined %s in %d rounds", input, len(outcomes)))
	return nil
}

// =============================================================================
// preview
// =============================================================================

func (c *CLI) previewCommand() *cobra.Command {
	var output, root string

	cmd := &cobra.Command{
		Use:   "preview [document.html]",
		Short: "Inline a document's images into a self-contained file",
		Long: `Inline a document's images into a self-contained file.

Image references under flyer_images/ are read relative to --root, which
defaults to the document's directory, and replaced by data: URIs. Missing
files keep their path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				root = filepath.Dir(args[0])
			}
			if output == "" {
				output = filepath.Join(filepath.Dir(args[0]), store.PreviewFile)
			}
			return c.runPreview(args[0], root, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default flyer_preview.html next to the document, - for stdout)")
	cmd.Flags().StringVar(&root, "root", "", "directory image paths are relative to")
	return cmd
}

func (c *CLI) runPreview(input, root, output string) error {
	doc, err := readDocument(input)
	if err != nil {
		return err
	}
	out, st := preview.MaterializeStats(doc,
		preview.WithFS(os.DirFS(root)),
		preview.WithLogger(c.Logger))
	if err := writeOutput(output, []byte(document.Render(out))); err != nil {
		return err
	}
	c.Logger.Infof("Inlined %d image references from %d files", st.Inlined, st.Reads)
	for _, m := range st.Missing {
		c.Logger.Warn("image not found, kept as path", "path", m)
	}
	if output != "-" {
		printFile(output)
	}
	return nil
}

// =============================================================================
// show
// =============================================================================

func (c *CLI) showCommand() *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:               "show [id]",
		Short:             "Print an archived flyer",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeFlyerIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShow(cmd.Context(), args[0], html)
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "print the document instead of the summary")
	return cmd
}

func (c *CLI) runShow(ctx context.Context, id string, html bool) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "archiving is disabled (store backend %q)", c.Config.Store.Backend)
	}
	defer st.Close()

	rec, err := st.Load(ctx, id)
	if err != nil {
		return err
	}
	if html {
		return writeOutput("", []byte(rec.Document()))
	}

	printTitle(rec.ID)
	printKeyValue("Prompt", rec.Prompt)
	printKeyValue("Created", rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	printKeyValue("Summary", rec.Summary)
	printRunStats(len(rec.Assets), rec.Iterations, rec.RefinedHTML != "" && rec.RefinedHTML != rec.FinalHTML)
	for _, w := range rec.Warnings {
		printWarning("%s", w)
	}
	return nil
}
