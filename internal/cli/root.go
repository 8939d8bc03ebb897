// Package cli provides the command-line interface for yieldrank.
package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Skythrill256/yield-ranker-sub006/internal/config"
	"github.com/Skythrill256/yield-ranker-sub006/internal/logging"
	"github.com/Skythrill256/yield-ranker-sub006/internal/observability"
)

// Version information
const Version = "1.0.0"

// App holds the application dependencies.
// It is populated in PersistentPreRunE once flags are parsed.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Registry    *prometheus.Registry
	Metrics     *observability.Metrics
	UseFixtures bool
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "yieldrank",
		Short: "Dividend normalization, volatility and fund ranking",
		Long: `yieldrank turns raw dividend histories of income funds into split-adjusted,
annualized series, measures dividend volatility (DVI) and premium/discount
z-scores, and ranks funds by a weighted blend of yield, volatility and return.

Use --use-fixtures to run against a built-in demonstration universe.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./yieldrank.yaml or ~/.config/yieldrank/yieldrank.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("use-fixtures", false, "use in-memory stores seeded with demonstration data")

	addPipelineCommands(rootCmd, app)
	addServeCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	addIngestCommands(rootCmd, app)
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// init loads configuration and builds the logger and metrics.
func (a *App) init(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Handle debug flag
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
	}
	a.UseFixtures, _ = cmd.Flags().GetBool("use-fixtures")
	if a.UseFixtures {
		cfg.Storage.Mode = config.StorageMemory
	}

	a.Config = cfg
	a.Logger = logging.New(cfg.Logging)

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = observability.NewMetrics(a.Registry, "")

	a.Logger.Debug().
		Str("storage", cfg.Storage.Mode).
		Bool("fixtures", a.UseFixtures).
		Msg("Configuration loaded")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "yieldrank v%s\n", Version)
		},
	}
}
