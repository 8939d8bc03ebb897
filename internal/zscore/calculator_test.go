package zscore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/memory"
)

func TestCalculator_CalculateAndStore(t *testing.T) {
	ctx := context.Background()
	funds := memory.NewFundStore()
	prices := memory.NewPriceStore()
	metrics := memory.NewMetricsStore()

	require.NoError(t, funds.Upsert(ctx, &domain.FundProfile{Ticker: "PDI", Category: "CEF", NavSymbol: "XPDIX"}))
	require.NoError(t, prices.InsertBulk(ctx, series("PDI", base, 300, alternating(10))))
	require.NoError(t, prices.InsertBulk(ctx, series("XPDIX", base, 300, constant(10))))

	asOf := base.AddDate(0, 0, 299)
	calc := NewCalculator(funds, prices, metrics, DefaultConfig())

	got, err := calc.CalculateAndStore(ctx, "PDI", "", asOf)
	require.NoError(t, err)
	assert.Equal(t, domain.ZScoreStatusActive, got.Status)
	require.NotNil(t, got.ZScore)
	assert.InDelta(t, 1.0, *got.ZScore, 1e-6)

	m, err := metrics.GetByTicker(ctx, "PDI")
	require.NoError(t, err)
	require.NotNil(t, m.ZScore)
	assert.Equal(t, got.DataPoints, m.ZScore.DataPoints)
}

func TestCalculator_ExplicitNavSymbol(t *testing.T) {
	ctx := context.Background()
	prices := memory.NewPriceStore()
	require.NoError(t, prices.InsertBulk(ctx, series("UTG", base, 50, constant(10))))
	require.NoError(t, prices.InsertBulk(ctx, series("XUTGX", base, 50, constant(10))))

	calc := NewCalculator(memory.NewFundStore(), prices, memory.NewMetricsStore(), DefaultConfig())

	got, err := calc.Calculate(ctx, "UTG", "XUTGX", base.AddDate(0, 0, 49))
	require.NoError(t, err)
	assert.Equal(t, domain.ZScoreStatusInsufficientData, got.Status)
	assert.Equal(t, 50, got.DataPoints)
}

func TestCalculator_MissingFundOrNav(t *testing.T) {
	ctx := context.Background()
	funds := memory.NewFundStore()
	require.NoError(t, funds.Upsert(ctx, &domain.FundProfile{Ticker: "JEPI", Category: "ETF"}))

	calc := NewCalculator(funds, memory.NewPriceStore(), memory.NewMetricsStore(), DefaultConfig())

	_, err := calc.Calculate(ctx, "NOPE", "", base)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = calc.Calculate(ctx, "JEPI", "", base)
	assert.ErrorIs(t, err, ErrNoNavSymbol)
}
