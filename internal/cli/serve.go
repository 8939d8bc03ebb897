package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Skythrill256/yield-ranker-sub006/internal/orchestrator"
	"github.com/Skythrill256/yield-ranker-sub006/internal/server"
)

// addServeCommands adds serve.
func addServeCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newServeCmd(app))
}

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled batch and the HTTP status server",
		Long: `Serve runs the batch on the configured cron schedule, writes reports after
every successful run and exposes /health, /metrics, /status and
/rankings/{category} over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				app.Config.Server.Addr = addr
			}
			runNow, _ := cmd.Flags().GetBool("run-now")

			stores, err := app.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()

			ranker := app.newRanker(stores)
			srv := server.New(server.Options{
				Batch:    app.newOrchestrator(stores, ranker),
				Rankings: ranker,
				OnComplete: func(ctx context.Context, result *orchestrator.RunResult) error {
					_, err := app.writeReport(ctx, stores, result.Rankings, result.Failures)
					return err
				},
				Schedule:        app.Config.Server.Schedule,
				ShutdownTimeout: app.Config.Server.ShutdownTimeout,
				Gatherer:        app.Registry,
				Metrics:         app.Metrics,
				Logger:          app.Logger,
			})

			if runNow {
				if _, err := srv.RunBatch(ctx); err != nil {
					app.Logger.Error().Err(err).Msg("Initial batch failed")
				}
			}

			return srv.Start(ctx, app.Config.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from config)")
	cmd.Flags().Bool("run-now", false, "run the batch once before waiting for the schedule")
	return cmd
}
