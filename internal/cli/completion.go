package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flyersmith/internal/config"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// maxCompletions bounds the archived flyers offered for completion.
const maxCompletions = 20

// completionCommand creates the completion command for generating shell completions.
// Completions are written to the command's output so they can be captured.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flyersmith.

To load completions:

Bash:
  $ source <(flyersmith completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ flyersmith completion bash > /etc/bash_completion.d/flyersmith
  # macOS:
  $ flyersmith completion bash > $(brew --prefix)/etc/bash_completion.d/flyersmith

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ flyersmith completion zsh > "${fpath[1]}/_flyersmith"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ flyersmith completion fish | source

  # To load completions for each session, execute once:
  $ flyersmith completion fish > ~/.config/fish/completions/flyersmith.fish

PowerShell:
  PS> flyersmith completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> flyersmith completion powershell > flyersmith.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeFlyerIDs offers the newest archived flyer IDs, described by their
// prompts. Completion runs without the persistent setup, so the
// configuration is loaded here when needed.
func (c *CLI) completeFlyerIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if c.Config == nil {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		c.Config = cfg
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := c.newStore(ctx)
	if err != nil || st == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer st.Close()

	lister, ok := st.(store.Lister)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	recs, err := lister.Recent(ctx, maxCompletions)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var ids []string
	for _, rec := range recs {
		ids = append(ids, rec.ID+"\t"+truncate(rec.Prompt, 40))
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
