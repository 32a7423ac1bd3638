package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flyersmith/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP front end",
		Long: `Run the HTTP front end.

POST /flyers with {"prompt": "..."} runs the pipeline; finished flyers are
archived and served under /flyers/{id}. The server stops gracefully on
interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.Config.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the completion cache")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
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

	sc := c.Config.Server
	srv := server.New(runner, st, server.Config{
		Addr:            sc.Addr,
		OutputDir:       c.Config.Pipeline.OutputDir,
		Rounds:          c.Config.Pipeline.Rounds,
		LegibilityCap:   c.Config.Pipeline.LegibilityCap,
		ReadTimeout:     sc.ReadTimeout,
		WriteTimeout:    sc.WriteTimeout,
		ShutdownTimeout: sc.ShutdownTimeout,
		MaxConcurrent:   sc.MaxConcurrent,
	}, c.Logger)

	printInfo("Serving flyers on %s", StyleLink.Render(sc.Addr))
	return srv.ListenAndServe(ctx)
}
