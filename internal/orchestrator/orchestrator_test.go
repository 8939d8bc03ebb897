package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/normalization"
	"github.com/Skythrill256/yield-ranker-sub006/internal/observability"
	"github.com/Skythrill256/yield-ranker-sub006/internal/ranking"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/memory"
	"github.com/Skythrill256/yield-ranker-sub006/internal/zscore"
)

type testStores struct {
	raw       *memory.RawDividendStore
	dividends *memory.DividendStore
	metrics   *memory.MetricsStore
	history   *memory.VolatilityHistoryStore
	funds     *memory.FundStore
	prices    *memory.PriceStore
	snapshots *memory.RankingSnapshotStore
}

func createTestStores() *testStores {
	return &testStores{
		raw:       memory.NewRawDividendStore(),
		dividends: memory.NewDividendStore(),
		metrics:   memory.NewMetricsStore(),
		history:   memory.NewVolatilityHistoryStore(),
		funds:     memory.NewFundStore(),
		prices:    memory.NewPriceStore(),
		snapshots: memory.NewRankingSnapshotStore(),
	}
}

func monthlyRaw(ticker string, n int, amounts ...string) []*domain.RawDividend {
	out := make([]*domain.RawDividend, n)
	for i := 0; i < n; i++ {
		amount := amounts[i%len(amounts)]
		out[i] = &domain.RawDividend{
			ID:        fmt.Sprintf("%s-%02d", ticker, i),
			Ticker:    ticker,
			ExDate:    time.Date(2024, time.January+time.Month(i), 15, 0, 0, 0, 0, time.UTC),
			RawAmount: decimal.RequireFromString(amount),
		}
	}
	return out
}

func fp(v float64) *float64 { return &v }

// seedUniverse creates three CEF funds: STEADY (13 monthly payments),
// BROKEN (split without ex_date) and NEWBIE (a single payment).
func seedUniverse(t *testing.T, s *testStores) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.raw.InsertBulk(ctx, monthlyRaw("STEADY", 13, "0.10", "0.11")))
	require.NoError(t, s.raw.InsertBulk(ctx, monthlyRaw("NEWBIE", 1, "0.25")))

	broken := monthlyRaw("BROKEN", 4, "0.20")
	broken[2].ExDate = time.Time{}
	broken[2].SplitFactor = decimal.NewNullDecimal(decimal.RequireFromString("0.5"))
	require.NoError(t, s.raw.InsertBulk(ctx, broken))

	for _, f := range []*domain.FundProfile{
		{Ticker: "STEADY", Category: "CEF", Yield: fp(9.1), TotalReturn: fp(7.0)},
		{Ticker: "BROKEN", Category: "CEF", Yield: fp(12.0), TotalReturn: fp(3.0)},
		{Ticker: "NEWBIE", Category: "CEF", Yield: fp(6.0), TotalReturn: fp(10.0)},
	} {
		require.NoError(t, s.funds.Upsert(ctx, f))
	}
}

func newOrchestrator(s *testStores, reg *prometheus.Registry) *Orchestrator {
	ranker := ranking.NewService(memory.NewUniverseReader(s.funds, s.metrics), s.snapshots,
		domain.DefaultRankWeights(), ranking.DefaultEpsilon, storage.VolatilityFromDVI)

	return New(Options{
		RawStore:         s.raw,
		DividendStore:    s.dividends,
		MetricsStore:     s.metrics,
		HistoryStore:     s.history,
		ZScore:           zscore.NewCalculator(s.funds, s.prices, s.metrics, zscore.DefaultConfig()),
		Ranker:           ranker,
		Classifier:       normalization.DefaultConfig(),
		VolatilityWindow: 12,
		Workers:          2,
		Categories:       []string{"CEF"},
		Logger:           zerolog.Nop(),
		Metrics:          observability.NewMetrics(reg, "test"),
	})
}

func TestOrchestrator_Run_EmptyUniverse(t *testing.T) {
	s := createTestStores()
	orch := newOrchestrator(s, prometheus.NewRegistry())

	result, err := orch.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, result.Tickers)
	assert.Empty(t, result.Failures)
	require.Len(t, result.Rankings, 1)
	assert.Empty(t, result.Rankings[0].Funds)
}

func TestOrchestrator_Run_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	s := createTestStores()
	seedUniverse(t, s)
	orch := newOrchestrator(s, prometheus.NewRegistry())

	result, err := orch.Run(ctx, nil)
	require.NoError(t, err)

	// Successful tickers, ordered.
	require.Len(t, result.Tickers, 2)
	assert.Equal(t, "NEWBIE", result.Tickers[0].Ticker)
	assert.Equal(t, "STEADY", result.Tickers[1].Ticker)

	assert.Nil(t, result.Tickers[0].Volatility, "single payment has no DVI")
	require.NotNil(t, result.Tickers[1].Volatility)
	assert.Equal(t, 12, result.Tickers[1].Volatility.DataPoints)
	assert.Equal(t, 13, result.Tickers[1].EventsWritten)

	// Fatal failure reported with ticker and stage.
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "BROKEN", result.Failures[0].Ticker)
	assert.Equal(t, "split chain", result.Failures[0].Stage)
	assert.ErrorIs(t, result.Failures[0], normalization.ErrUnorderable)

	// Ranking excludes the failed ticker.
	require.Len(t, result.Rankings, 1)
	snap := result.Rankings[0]
	require.Len(t, snap.Funds, 2)
	for _, f := range snap.Funds {
		assert.NotEqual(t, "BROKEN", f.Ticker)
	}

	// Processed series and metrics persisted.
	events, err := s.dividends.GetByTicker(ctx, "STEADY")
	require.NoError(t, err)
	assert.Len(t, events, 13)
	assert.Equal(t, domain.PaymentInitial, events[0].PaymentType)

	m, err := s.metrics.GetByTicker(ctx, "STEADY")
	require.NoError(t, err)
	assert.NotNil(t, m.Volatility)

	latest, err := s.snapshots.GetLatest(ctx, "CEF")
	require.NoError(t, err)
	assert.Equal(t, snap.SnapshotID, latest.SnapshotID)
}

func TestOrchestrator_Run_Deterministic(t *testing.T) {
	var first []*domain.DividendEvent
	for run := 0; run < 3; run++ {
		s := createTestStores()
		seedUniverse(t, s)
		_, err := newOrchestrator(s, prometheus.NewRegistry()).Run(context.Background(), []string{"STEADY"})
		require.NoError(t, err)

		events, err := s.dividends.GetByTicker(context.Background(), "STEADY")
		require.NoError(t, err)
		if run == 0 {
			first = events
			continue
		}
		assert.Equal(t, first, events, "run %d differs", run)
	}
}

func TestOrchestrator_RetryTicker(t *testing.T) {
	ctx := context.Background()
	s := createTestStores()
	seedUniverse(t, s)
	orch := newOrchestrator(s, prometheus.NewRegistry())

	_, err := orch.RetryTicker(ctx, "BROKEN")
	var te *domain.TickerError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "BROKEN", te.Ticker)

	// Feed correction: the split record gets its ex_date.
	fixed := monthlyRaw("BROKEN", 4, "0.20")[2]
	fixed.SplitFactor = decimal.NewNullDecimal(decimal.RequireFromString("0.5"))
	require.NoError(t, s.raw.Upsert(ctx, fixed))

	res, err := orch.RetryTicker(ctx, "BROKEN")
	require.NoError(t, err)
	assert.Equal(t, 4, res.EventsWritten)

	snaps, err := orch.RankAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Len(t, snaps[0].Funds, 3)
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	s := createTestStores()
	seedUniverse(t, s)
	orch := newOrchestrator(s, prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Run(ctx, []string{"STEADY", "NEWBIE"})
	assert.ErrorIs(t, err, context.Canceled)
}
