package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	adscfg "github.com/eimribar/ads-command-center/cli/internal/config"
	"github.com/eimribar/ads-command-center/cli/internal/prompt"
	"github.com/eimribar/ads-command-center/cli/internal/render"
	"github.com/eimribar/ads-command-center/pkg/config"
	"github.com/eimribar/ads-command-center/pkg/logging"
	"github.com/eimribar/ads-command-center/pkg/monitoring"
	"github.com/eimribar/ads-command-center/pkg/platform"
	"github.com/eimribar/ads-command-center/pkg/validation"
	"github.com/eimribar/ads-command-center/pkg/version"
)

// rootOptions carries the global flags and the seams tests replace.
type rootOptions struct {
	configPath  string
	output      string
	verbose     bool
	noColor     bool
	timeout     time.Duration
	metricsFile string

	// envFile is where set-secret writes; empty means ~/.adscc/.env.
	envFile string

	// env overrides the process environment layered over the .env files.
	env           config.Lookup
	now           func() time.Time
	buildRegistry func(app *App) (*platform.Registry, error)
	interactive   func(cmd *cobra.Command) bool

	app *App
}

func defaultRootOptions() *rootOptions {
	return &rootOptions{
		now:           time.Now,
		buildRegistry: defaultRegistry,
		interactive:   stdinIsTerminal,
	}
}

// NewRootCmd returns the root command for the ads CLI
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultRootOptions())
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ads",
		Short:         "Ads Command Center: one CLI for Meta, Google, TikTok, Reddit and GA4",
		Long:          "Ads Command Center: unified reporting, campaign control, conversion tracking and budget advice across ad platforms.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.interactive(cmd) {
				return runMainMenu(cmd, opts.app)
			}
			_ = cmd.Help()
			fmt.Fprintln(cmd.OutOrStdout(), "\nTip: run 'ads menu' for an interactive start.")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $HOME/.adscc/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.output, "output", "", "output format: json|text (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-platform request timeout (default from config)")
	rootCmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the command")

	rootCmd.AddCommand(newReportCmd(opts))
	rootCmd.AddCommand(newCampaignsCmd(opts))
	rootCmd.AddCommand(newConvertCmd(opts))
	rootCmd.AddCommand(newOptimizeCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newTrafficCmd(opts))
	rootCmd.AddCommand(newMenuCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	settings, settingsPath, err := adscfg.Load(o.configPath)
	if err != nil {
		return err
	}

	outputName := settings.Output
	if o.output != "" {
		outputName = o.output
	}
	format, err := render.ParseFormat(outputName)
	if err != nil {
		return err
	}

	logger := logging.NewCLILogger(cmd.ErrOrStderr(), o.verbose)
	if format == render.FormatJSON {
		logger = logging.NewLogger(cmd.ErrOrStderr(), o.verbose)
	}

	env := o.env
	if env == nil {
		files := []string{".env"}
		if p, err := adscfg.EnvFilePath(); err == nil {
			files = append(files, p)
		}
		env = config.Layered(config.LoadEnvFiles(logger, files...))
	}

	timeout := o.timeout
	if timeout <= 0 {
		timeout = time.Duration(settings.TimeoutSeconds) * time.Second
	}

	app := &App{
		Settings:     settings,
		SettingsPath: settingsPath,
		Env:          env,
		Logger:       logger,
		Metrics:      monitoring.NewMetricsCollector("adscc", version.Version, version.GitCommit),
		Render:       render.New(cmd.OutOrStdout(), format, o.noColor),
		Prompt:       prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr()),
		Validator:    validation.NewConversionValidator(),
		Timeout:      timeout,
		Now:          o.now,
	}
	reg, err := o.buildRegistry(app)
	if err != nil {
		return fmt.Errorf("build platform registry: %w", err)
	}
	app.Registry = reg
	o.app = app
	return nil
}

func (o *rootOptions) teardown() error {
	if o.metricsFile == "" || o.app == nil {
		return nil
	}
	if dir := filepath.Dir(o.metricsFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := o.app.Metrics.WriteTextfile(o.metricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	o.app.Logger.WithField("path", o.metricsFile).Debug("Wrote metrics textfile")
	return nil
}

func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
