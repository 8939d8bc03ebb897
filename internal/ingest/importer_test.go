package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub006/internal/idhash"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/memory"
)

func newTestImporter() (*Importer, *memory.RawDividendStore, *memory.FundStore, *memory.PriceStore) {
	raw := memory.NewRawDividendStore()
	funds := memory.NewFundStore()
	prices := memory.NewPriceStore()
	return NewImporter(raw, funds, prices, zerolog.Nop()), raw, funds, prices
}

func TestImportDividends(t *testing.T) {
	im, raw, _, _ := newTestImporter()
	ctx := context.Background()

	input := `ticker,ex_date,amount,adj_amount,split_factor
pdi,2024-01-12,0.2205,,
PDI,2024-02-12,0.2205,0.2205,
PDI,2024-03-12,2.205,,0.1
PDI,2024-04-12,not-a-number,,
PDI,,0.2205,,
`
	result, err := im.ImportDividends(ctx, strings.NewReader(input), "csv")
	require.NoError(t, err)

	assert.Equal(t, 4, result.Imported)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, ReasonParse, result.Rejected[0].Reason)
	assert.Equal(t, "line 5", result.Rejected[0].RecordID)

	records, err := raw.GetByTicker(ctx, "PDI")
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, "PDI", first.Ticker)
	assert.Equal(t, idhash.ComputeDividendID("PDI", first.ExDate, first.RawAmount, "csv"), first.ID)
	assert.False(t, first.AdjustedAmount.Valid)

	assert.True(t, records[1].AdjustedAmount.Valid)
	assert.True(t, records[2].HasSplit())

	// Missing ex_date is kept for the split chain to judge; it sorts last.
	assert.False(t, records[3].HasExDate())
}

func TestImportDividends_Idempotent(t *testing.T) {
	im, raw, _, _ := newTestImporter()
	ctx := context.Background()

	input := "ticker,ex_date,amount\nJEPI,2024-05-01,0.35\n"
	for i := 0; i < 2; i++ {
		_, err := im.ImportDividends(ctx, strings.NewReader(input), "csv")
		require.NoError(t, err)
	}

	records, err := raw.GetByTicker(ctx, "JEPI")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.True(t, records[0].RawAmount.Equal(decimal.RequireFromString("0.35")))
}

func TestImportDividends_MissingColumn(t *testing.T) {
	im, _, _, _ := newTestImporter()

	_, err := im.ImportDividends(context.Background(), strings.NewReader("ticker,amount\nPDI,0.1\n"), "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestImportDividends_ValidationRejectsMissingTicker(t *testing.T) {
	im, _, _, _ := newTestImporter()

	input := "ticker,ex_date,amount\n,2024-01-01,0.1\n"
	result, err := im.ImportDividends(context.Background(), strings.NewReader(input), "csv")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Imported)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, ReasonValidation, result.Rejected[0].Reason)
}

func TestImportFunds(t *testing.T) {
	im, _, funds, _ := newTestImporter()
	ctx := context.Background()

	input := `ticker,name,category,nav_symbol,yield,total_return
PDI,PIMCO Dynamic Income,CEF,xpdix,14.2,9.8
JEPI,JPMorgan Equity Premium,ETF,,7.6,
BAD,Broken,ETF,,abc,
`
	result, err := im.ImportFunds(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Len(t, result.Rejected, 1)

	pdi, err := funds.GetByTicker(ctx, "PDI")
	require.NoError(t, err)
	assert.Equal(t, "XPDIX", pdi.NavSymbol)
	require.NotNil(t, pdi.Yield)
	assert.InDelta(t, 14.2, *pdi.Yield, 1e-9)

	jepi, err := funds.GetByTicker(ctx, "JEPI")
	require.NoError(t, err)
	assert.Nil(t, jepi.TotalReturn)
}

func TestImportPrices(t *testing.T) {
	im, _, _, prices := newTestImporter()
	ctx := context.Background()

	input := `symbol,date,close
PDI,2024-01-02,19.10
XPDIX,2024-01-02,17.80
PDI,2024-01-03,
PDI,01/04/2024,19.2
`
	result, err := im.ImportPrices(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Len(t, result.Rejected, 2)

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points, err := prices.GetByRange(ctx, "PDI", day, day)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 19.10, points[0].Close, 1e-9)
}
