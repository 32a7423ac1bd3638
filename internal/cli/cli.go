package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flyersmith/internal/config"
	"github.com/matzehuels/flyersmith/pkg/buildinfo"
	"github.com/matzehuels/flyersmith/pkg/cache"
	"github.com/matzehuels/flyersmith/pkg/llm"
	"github.com/matzehuels/flyersmith/pkg/observability"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flyersmith designs promotional flyers from a prompt",
		Long: `Flyersmith turns a short description of an event or product into a finished
flyer: a model plans the design, the layout is compiled to HTML, images are
generated and placed, and a critique model polishes the result.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/flyersmith/config.toml)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.interactiveCommand())
	root.AddCommand(c.compileCommand())
	root.AddCommand(c.injectCommand())
	root.AddCommand(c.refineCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies --verbose.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
		observability.NewLogHooks(c.Logger).Register()
	}
	if c.Config != nil {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newClient creates the model client from the configuration.
func (c *CLI) newClient() (*llm.OpenAI, error) {
	return llm.NewOpenAI(c.Config.LLM(), llm.WithLogger(c.Logger))
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	client, err := c.newClient()
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewCachedRunner(client, ch, pipeline.CachedRunnerConfig{
		ImageInterval: c.Config.OpenAI.ImageInterval,
	}, c.Logger), nil
}

// newCache opens the configured completion cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendRedis:
		cc := c.Config.Cache
		return cache.NewRedisCache(ctx, cc.RedisAddr, cc.RedisPassword, cc.RedisDB)
	default:
		dir, err := c.Config.CacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newStore opens the configured flyer archive. It returns nil when
// archiving is disabled.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	sc := c.Config.Store
	switch sc.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMongo:
		return store.NewMongoStore(ctx, sc.MongoURI, sc.Database, sc.Collection)
	default:
		dir, err := c.Config.StoreDir()
		if err != nil {
			return nil, err
		}
		return store.NewFileStore(dir)
	}
}
