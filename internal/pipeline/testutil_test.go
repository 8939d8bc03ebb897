package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/normalization"
	"github.com/Skythrill256/yield-ranker-sub006/internal/orchestrator"
	"github.com/Skythrill256/yield-ranker-sub006/internal/ranking"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/memory"
	"github.com/Skythrill256/yield-ranker-sub006/internal/zscore"
)

var fixedTime = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

type fixtureStores struct {
	raw       *memory.RawDividendStore
	dividends *memory.DividendStore
	metrics   *memory.MetricsStore
	funds     *memory.FundStore
	prices    *memory.PriceStore
	snapshots *memory.RankingSnapshotStore
}

// runFixtures loads fixtures into memory stores and runs the full batch over them.
func runFixtures(t *testing.T) (*fixtureStores, *orchestrator.RunResult) {
	t.Helper()
	ctx := context.Background()

	s := &fixtureStores{
		raw:       memory.NewRawDividendStore(),
		dividends: memory.NewDividendStore(),
		metrics:   memory.NewMetricsStore(),
		funds:     memory.NewFundStore(),
		prices:    memory.NewPriceStore(),
		snapshots: memory.NewRankingSnapshotStore(),
	}
	if err := LoadFixtures(ctx, s.raw, s.funds, s.prices); err != nil {
		t.Fatalf("Failed to load fixtures: %v", err)
	}

	clock := func() time.Time { return fixedTime }
	ranker := ranking.NewService(
		memory.NewUniverseReader(s.funds, s.metrics),
		s.snapshots,
		domain.RankWeights{Yield: 40, Volatility: 20, Return: 40},
		ranking.DefaultEpsilon,
		"",
	).WithClock(clock)

	cfg := normalization.DefaultConfig()
	cfg.KnownWeeklyPayers = []string{"ULTY"}

	orch := orchestrator.New(orchestrator.Options{
		RawStore:         s.raw,
		DividendStore:    s.dividends,
		MetricsStore:     s.metrics,
		ZScore:           zscore.NewCalculator(s.funds, s.prices, s.metrics, zscore.DefaultConfig()).WithClock(clock),
		Ranker:           ranker,
		Classifier:       cfg,
		VolatilityWindow: 12,
		Workers:          2,
		Categories:       []string{"CEF", "ETF"},
		Logger:           zerolog.Nop(),
	}).WithClock(clock)

	result, err := orch.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Batch run failed: %v", err)
	}
	return s, result
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
