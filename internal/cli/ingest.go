package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skythrill256/yield-ranker-sub006/internal/ingest"
)

// addIngestCommands adds ingest and its subcommands.
func addIngestCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import dividends, funds or prices from CSV",
		Long: `Ingest loads CSV exports into the configured stores. Malformed rows are
reported and skipped. Use storage.mode=db to persist the imported data.`,
	}

	type importFn func(ctx context.Context, im *ingest.Importer, r io.Reader, cmd *cobra.Command) (*ingest.Result, error)
	sub := func(use, short string, fn importFn) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <file.csv>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				stores, err := app.openStores(ctx)
				if err != nil {
					return err
				}
				defer stores.Close()

				im := ingest.NewImporter(stores.Raw, stores.Funds, stores.Prices, app.Logger)
				result, err := fn(ctx, im, f, cmd)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, r := range result.Rejected {
					fmt.Fprintf(out, "REJECTED %s\n", r.Error())
				}
				fmt.Fprintf(out, "%d imported, %d rejected\n", result.Imported, len(result.Rejected))
				return nil
			},
		}
	}

	dividends := sub("dividends", "Import raw dividend records", func(ctx context.Context, im *ingest.Importer, r io.Reader, cmd *cobra.Command) (*ingest.Result, error) {
		source, _ := cmd.Flags().GetString("source")
		return im.ImportDividends(ctx, r, source)
	})
	dividends.Flags().String("source", "csv", "source tag used in derived record ids")

	funds := sub("funds", "Import fund profiles", func(ctx context.Context, im *ingest.Importer, r io.Reader, _ *cobra.Command) (*ingest.Result, error) {
		return im.ImportFunds(ctx, r)
	})

	prices := sub("prices", "Import daily price and NAV closes", func(ctx context.Context, im *ingest.Importer, r io.Reader, _ *cobra.Command) (*ingest.Result, error) {
		return im.ImportPrices(ctx, r)
	})

	cmd.AddCommand(dividends, funds, prices)
	rootCmd.AddCommand(cmd)
}
