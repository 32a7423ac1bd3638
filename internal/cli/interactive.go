package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flyersmith/pkg/observability"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/store"
)

func (c *CLI) interactiveCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Generate flyers from a terminal prompt editor",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInteractive(cmd.Context(), noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the completion cache")
	return cmd
}

func (c *CLI) runInteractive(ctx context.Context, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	// Log lines would tear the full-screen view.
	if !c.verbose {
		c.SetLogLevel(log.ErrorLevel)
		defer c.SetLogLevel(LogInfo)
	}

	pc := c.Config.Pipeline
	run := func(ctx context.Context, prompt string) (*pipeline.Result, store.Outputs, error) {
		res, err := runner.Execute(ctx, pipeline.Options{
			Prompt:        prompt,
			Rounds:        pc.Rounds,
			LegibilityCap: pc.LegibilityCap,
			OutputDir:     pc.OutputDir,
		})
		if err != nil {
			return nil, store.Outputs{}, err
		}
		out, err := c.saveRun(ctx, st, res, prompt, pc.OutputDir)
		return res, out, err
	}

	p := tea.NewProgram(NewFlyerModel(ctx, run), tea.WithContext(ctx))
	observability.SetPipelineHooks(tuiHooks{send: p.Send})
	defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(FlyerModel); ok && len(m.History) > 0 {
		printSuccess("Generated %d flyers", len(m.History))
		for _, e := range m.History {
			if e.Preview != "" {
				printFile(e.Preview)
			}
		}
	}
	return nil
}
