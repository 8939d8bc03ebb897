package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/orchestrator"
	"github.com/Skythrill256/yield-ranker-sub006/internal/ranking"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// addPipelineCommands adds process, rank and zscore.
func addPipelineCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newProcessCmd(app))
	rootCmd.AddCommand(newRankCmd(app))
	rootCmd.AddCommand(newZScoreCmd(app))
}

func newProcessCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the dividend chain, DVI and z-score for tickers, then rank",
		Long: `Process normalizes raw dividends (split chain, frequency, payment type,
annualization), computes the dividend volatility index and the premium/discount
z-score for every ticker, and ranks each configured category.

Per-ticker failures are reported and excluded from ranking; they never stop the batch.`,
		Example: `  yieldrank process --use-fixtures
  yieldrank process --ticker PDI --ticker UTG`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tickers, _ := cmd.Flags().GetStringSlice("ticker")
			for i := range tickers {
				tickers[i] = strings.ToUpper(tickers[i])
			}

			stores, err := app.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()

			result, err := app.newOrchestrator(stores, app.newRanker(stores)).Run(ctx, tickers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTickerResults(out, result)
			for _, snap := range result.Rankings {
				fmt.Fprintln(out)
				printRanking(out, snap)
			}
			if len(result.Failures) > 0 {
				return fmt.Errorf("%d ticker(s) failed", len(result.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("ticker", nil, "tickers to process (default: all tickers with raw data)")
	return cmd
}

func newRankCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a category by weighted yield, volatility and return",
		Example: `  yieldrank rank --use-fixtures --category CEF --weights 40,20,40
  yieldrank rank --category ETF --source zscore`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category, _ := cmd.Flags().GetString("category")
			weightsFlag, _ := cmd.Flags().GetString("weights")
			source, _ := cmd.Flags().GetString("source")
			exclude, _ := cmd.Flags().GetStringSlice("exclude")

			req := ranking.Request{Category: category, Exclude: exclude}
			if weightsFlag != "" {
				w, err := parseWeights(weightsFlag)
				if err != nil {
					return err
				}
				req.Weights = &w
			}
			switch storage.VolatilitySource(source) {
			case "":
			case storage.VolatilityFromDVI, storage.VolatilityFromZScore:
				app.Config.Ranking.VolatilitySource = source
			default:
				return fmt.Errorf("invalid --source %q: want dvi or zscore", source)
			}

			stores, err := app.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()

			if _, err := app.warmFixtures(ctx, stores); err != nil {
				return err
			}

			snap, err := app.newRanker(stores).RankCategory(ctx, req)
			if err != nil {
				return err
			}
			printRanking(cmd.OutOrStdout(), snap)
			return nil
		},
	}

	cmd.Flags().StringP("category", "c", "", "category to rank (default: whole universe)")
	cmd.Flags().StringP("weights", "w", "", "yield,volatility,return weights in percent, e.g. 50,0,50")
	cmd.Flags().String("source", "", "volatility source: dvi or zscore (default from config)")
	cmd.Flags().StringSlice("exclude", nil, "tickers to leave out")
	return cmd
}

func newZScoreCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zscore",
		Short: "Compute the premium/discount z-score of a fund",
		Example: `  yieldrank zscore --use-fixtures --ticker PDI
  yieldrank zscore --ticker PDI --nav XPDIX --as-of 2025-06-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ticker, _ := cmd.Flags().GetString("ticker")
			nav, _ := cmd.Flags().GetString("nav")
			asOfFlag, _ := cmd.Flags().GetString("as-of")

			var asOf time.Time
			if asOfFlag != "" {
				var err error
				asOf, err = time.ParseInLocation("2006-01-02", asOfFlag, time.UTC)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
			}

			stores, err := app.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()

			z, err := app.newZScore(stores).CalculateAndStore(ctx, strings.ToUpper(ticker), strings.ToUpper(nav), asOf)
			if err != nil {
				return err
			}
			app.Metrics.RecordMetricsWritten("zscore", 1)
			printZScore(cmd.OutOrStdout(), z)
			return nil
		},
	}

	cmd.Flags().StringP("ticker", "t", "", "fund ticker")
	cmd.Flags().String("nav", "", "NAV symbol (default: from the fund profile)")
	cmd.Flags().String("as-of", "", "as-of date YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("ticker")
	return cmd
}

// parseWeights parses "yield,volatility,return" percentages.
func parseWeights(s string) (domain.RankWeights, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return domain.RankWeights{}, fmt.Errorf("weights must be yield,volatility,return: %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.RankWeights{}, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		v[i] = f
	}
	return domain.RankWeights{Yield: v[0], Volatility: v[1], Return: v[2]}, nil
}

func printTickerResults(w io.Writer, result *orchestrator.RunResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tEVENTS\tREJECTED\tDVI CV%\tBUCKET\tZ-SCORE")
	for _, r := range result.Tickers {
		cv, bucket := "-", "-"
		if r.Volatility != nil {
			cv = fmt.Sprintf("%.2f", r.Volatility.CVPercent)
			bucket = string(r.Volatility.Bucket)
		}
		z := "-"
		if r.ZScore != nil {
			z = r.ZScore.Status
			if r.ZScore.ZScore != nil {
				z = fmt.Sprintf("%.3f", *r.ZScore.ZScore)
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n", r.Ticker, r.EventsWritten, len(r.Rejected), cv, bucket, z)
	}
	tw.Flush()

	for _, f := range result.Failures {
		fmt.Fprintf(w, "FAILED %s\n", f.Error())
	}
	fmt.Fprintf(w, "\n%d processed, %d failed in %s\n", len(result.Tickers), len(result.Failures), result.Duration)
}

func printRanking(w io.Writer, snap *domain.RankingSnapshot) {
	name := snap.Category
	if name == "" {
		name = "all funds"
	}
	fmt.Fprintf(w, "Ranking: %s (yield %.0f / volatility %.0f / return %.0f)\n",
		name, snap.Weights.Yield, snap.Weights.Volatility, snap.Weights.Return)
	if len(snap.Funds) == 0 {
		fmt.Fprintln(w, "No eligible funds.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTICKER\tYIELD\tVOLATILITY\tRETURN\tSCORE")
	for _, f := range snap.Funds {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.4f\n",
			f.Rank, f.Ticker, optFloat(f.YieldValue), optFloat(f.VolatilityValue), optFloat(f.ReturnValue), f.CompositeScore)
	}
	tw.Flush()
}

func printZScore(w io.Writer, z *domain.ZScoreResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Ticker\t%s\n", z.Ticker)
	fmt.Fprintf(tw, "Status\t%s\n", z.Status)
	fmt.Fprintf(tw, "Data points\t%d (required %d)\n", z.DataPoints, z.Required)
	if z.Status == domain.ZScoreStatusActive {
		fmt.Fprintf(tw, "Z-score\t%s\n", optFloat(z.ZScore))
		fmt.Fprintf(tw, "Current P/D\t%.2f%%\n", z.CurrentPDPct())
		fmt.Fprintf(tw, "Average P/D\t%.2f%%\n", z.AvgPDPct())
		fmt.Fprintf(tw, "Stddev P/D\t%.2f%%\n", z.StddevPDPct())
		fmt.Fprintf(tw, "Window\t%s to %s\n", z.StartDate.Format("2006-01-02"), z.EndDate.Format("2006-01-02"))
	}
	tw.Flush()
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
