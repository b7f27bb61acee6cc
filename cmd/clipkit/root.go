package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/config"
	"github.com/Veraticus/clipkit/pkg/environment"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// skipSetup marks commands that run without loading configuration.
const skipSetup = "skip-setup"

// app carries the streams and the collaborators shared by all commands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	stats      bool

	cfg     *config.Config
	env     clipboard.Environment
	client  *clipboard.Client
	metrics *clipboard.DefaultMetricsCollector

	// newEnvironment builds the clipboard environment from the loaded
	// configuration.
	newEnvironment func(cfg *config.Config, terminal io.Writer) clipboard.Environment
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:          stdin,
		stdout:         stdout,
		stderr:         stderr,
		newEnvironment: defaultEnvironment,
	}
}

// defaultEnvironment probes the real system. OSC52 sequences go to the
// terminal on stderr so stdout stays clean for pipes.
func defaultEnvironment(cfg *config.Config, terminal io.Writer) clipboard.Environment {
	opts := environment.FromConfig(cfg)
	opts.Output = terminal
	return environment.New(opts)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "clipkit",
		Short: "Copy, cut and read the clipboard anywhere",
		Long: `clipkit reads and writes the clipboard through whatever mechanism the
environment offers: the native OS clipboard, an OSC52 terminal sequence, or
the platform clipboard utilities. Failed mechanisms fall through to the next
one and the whole chain is retried with exponential backoff.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.stats && a.metrics != nil {
				printStats(a.stderr, a.metrics.GetMetrics())
			}
			return nil
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	defaults := config.NewConfig()
	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/clipkit/config.yaml)")
	flags.Int("retries", defaults.Retries, "Retries after the first attempt")
	flags.Duration("retry-delay", defaults.RetryDelay, "Initial backoff delay, doubled on every retry")
	flags.Duration("timeout", defaults.Timeout, "Deadline for the whole operation (0 for none)")
	flags.String("mode", string(defaults.Mode), "Environment mode: auto, interactive or headless")
	flags.String("log-level", defaults.Log.Level, "Log level: trace, debug, info, warn, error or disabled")
	flags.String("log-format", defaults.Log.Format, "Log format: console or json")
	flags.String("multiplexer", defaults.Terminal.Multiplexer, "OSC52 passthrough: auto, none, tmux or screen")
	flags.BoolVar(&a.stats, "stats", false, "Print operation statistics to stderr")

	root.AddCommand(
		newCopyCmd(a),
		newCutCmd(a),
		newPasteCmd(a),
		newImageCmd(a),
		newRichCmd(a),
		newPermissionCmd(a),
		newWatchCmd(a),
		newBindCmd(a),
		newCapabilitiesCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger, environment and client.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipSetup] == "true" {
		return nil
	}

	loader := config.NewLoader()
	loader.SetConfigFile(a.configFile)
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	a.cfg = cfg

	logCfg := cfg.LoggingConfig()
	logCfg.Output = a.stderr
	logger := logging.New(logCfg)
	ctx := logging.WithContext(cmd.Context(), logger)
	cmd.SetContext(ctx)

	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("loaded config file")
	}
	logger.Debug().Str("config", cfg.String()).Msg("configuration")

	a.env = a.newEnvironment(cfg, a.stderr)
	a.metrics = clipboard.NewDefaultMetricsCollector()
	a.client = clipboard.NewClient(a.env,
		clipboard.WithRetryConfig(cfg.RetryConfig()),
		clipboard.WithMetrics(a.metrics),
		clipboard.WithFetcher(clipboard.NewHTTPFetcher(&http.Client{Timeout: cfg.Fetch.Timeout})),
	)

	caps := a.client.Capabilities()
	logger.Debug().
		Str("context", caps.Context.String()).
		Str("mechanisms", caps.Mechanisms.String()).
		Msg("clipboard environment")
	return nil
}
