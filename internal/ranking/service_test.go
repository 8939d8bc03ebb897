package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/memory"
)

func seedUniverse(t *testing.T) (*memory.FundStore, *memory.MetricsStore) {
	t.Helper()
	ctx := context.Background()
	funds := memory.NewFundStore()
	metrics := memory.NewMetricsStore()

	profiles := []*domain.FundProfile{
		{Ticker: "PDI", Category: "CEF", Yield: fp(14.1), TotalReturn: fp(9.5)},
		{Ticker: "UTG", Category: "CEF", Yield: fp(7.2), TotalReturn: fp(18.0)},
		{Ticker: "BST", Category: "CEF", Yield: fp(8.0), TotalReturn: fp(4.0)},
		{Ticker: "JEPI", Category: "ETF", Yield: fp(7.5), TotalReturn: fp(11.0)},
	}
	for _, p := range profiles {
		require.NoError(t, funds.Upsert(ctx, p))
	}

	_, err := metrics.WriteMetricsBatch(ctx, []*domain.VolatilitySummary{
		{Ticker: "PDI", CVPercent: 3.0, DataPoints: 12},
		{Ticker: "UTG", CVPercent: 25.0, DataPoints: 12},
	})
	require.NoError(t, err)

	return funds, metrics
}

func TestService_RankCategory(t *testing.T) {
	ctx := context.Background()
	funds, metrics := seedUniverse(t)
	snapshots := memory.NewRankingSnapshotStore()

	fixed := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewUniverseReader(funds, metrics), snapshots,
		domain.RankWeights{Yield: 40, Volatility: 20, Return: 40}, DefaultEpsilon, storage.VolatilityFromDVI).
		WithClock(func() time.Time { return fixed })

	snap, err := svc.RankCategory(ctx, Request{Category: "CEF"})
	require.NoError(t, err)
	require.Len(t, snap.Funds, 3)

	assert.Equal(t, "CEF", snap.Category)
	assert.Equal(t, fixed, snap.ComputedAt)
	assert.Len(t, snap.SnapshotID, 64)
	assert.Equal(t, 1, snap.Funds[0].Rank)

	// BST has no DVI: neutral volatility score.
	for _, f := range snap.Funds {
		if f.Ticker == "BST" {
			assert.Nil(t, f.VolatilityValue)
			assert.Equal(t, 0.5, f.VolatilityScore)
		}
	}

	latest, err := svc.Latest(ctx, "CEF")
	require.NoError(t, err)
	assert.Equal(t, snap.SnapshotID, latest.SnapshotID)
	assert.Equal(t, snap.Funds, latest.Funds)
}

func TestService_RankCategory_Exclude(t *testing.T) {
	ctx := context.Background()
	funds, metrics := seedUniverse(t)

	svc := NewService(memory.NewUniverseReader(funds, metrics), nil, domain.DefaultRankWeights(), DefaultEpsilon, "")

	snap, err := svc.RankCategory(ctx, Request{Category: "CEF", Exclude: []string{"UTG"}})
	require.NoError(t, err)
	require.Len(t, snap.Funds, 2)
	for _, f := range snap.Funds {
		assert.NotEqual(t, "UTG", f.Ticker)
	}
}

func TestService_RankCategory_EmptyNotStored(t *testing.T) {
	ctx := context.Background()
	funds, metrics := seedUniverse(t)
	snapshots := memory.NewRankingSnapshotStore()

	svc := NewService(memory.NewUniverseReader(funds, metrics), snapshots, domain.DefaultRankWeights(), DefaultEpsilon, storage.VolatilityFromDVI)

	snap, err := svc.RankCategory(ctx, Request{Category: "BDC"})
	require.NoError(t, err)
	assert.Empty(t, snap.Funds)

	_, err = svc.Latest(ctx, "BDC")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_RankCategory_InvalidWeights(t *testing.T) {
	funds, metrics := seedUniverse(t)
	svc := NewService(memory.NewUniverseReader(funds, metrics), nil, domain.DefaultRankWeights(), DefaultEpsilon, storage.VolatilityFromDVI)

	_, err := svc.RankCategory(context.Background(), Request{
		Category: "CEF",
		Weights:  &domain.RankWeights{Yield: 150},
	})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestService_ZScoreSource(t *testing.T) {
	ctx := context.Background()
	funds, metrics := seedUniverse(t)

	_, err := metrics.WriteZScoreBatch(ctx, []*domain.ZScoreResult{
		{Ticker: "PDI", Status: domain.ZScoreStatusActive, ZScore: fp(1.8)},
		{Ticker: "UTG", Status: domain.ZScoreStatusActive, ZScore: fp(-1.2)},
		{Ticker: "BST", Status: domain.ZScoreStatusActive, ZScore: fp(0.1)},
	})
	require.NoError(t, err)

	svc := NewService(memory.NewUniverseReader(funds, metrics), nil,
		domain.RankWeights{Volatility: 100}, DefaultEpsilon, storage.VolatilityFromZScore)

	snap, err := svc.RankCategory(ctx, Request{Category: "CEF"})
	require.NoError(t, err)
	require.Len(t, snap.Funds, 3)
	assert.Equal(t, "UTG", snap.Funds[0].Ticker)
	assert.Equal(t, "BST", snap.Funds[1].Ticker)
	assert.Equal(t, "PDI", snap.Funds[2].Ticker)
}
