package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/idhash"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// FixtureSource is the source tag of fixture dividend ids.
const FixtureSource = "fixture"

// Fixture price history range.
var (
	fixturePriceStart = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	fixturePriceEnd   = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
)

// LoadFixtures populates stores with a small demonstration universe:
// three closed-end funds with NAV series and three ETFs, one of them a weekly payer
// with a reverse split.
func LoadFixtures(
	ctx context.Context,
	rawStore storage.RawDividendStore,
	fundStore storage.FundStore,
	priceStore storage.PriceStore,
) error {
	// Load funds
	if err := loadFunds(ctx, fundStore); err != nil {
		return err
	}

	// Load dividends
	if err := loadDividends(ctx, rawStore); err != nil {
		return err
	}

	// Load prices
	if err := loadPrices(ctx, priceStore); err != nil {
		return err
	}

	return nil
}

func loadFunds(ctx context.Context, store storage.FundStore) error {
	funds := []*domain.FundProfile{
		{Ticker: "BST", Name: "BlackRock Science and Technology Trust", Category: "CEF", NavSymbol: "XBSTX", Yield: fptr(8.9), TotalReturn: fptr(6.3)},
		{Ticker: "PDI", Name: "PIMCO Dynamic Income Fund", Category: "CEF", NavSymbol: "XPDIX", Yield: fptr(14.2), TotalReturn: fptr(9.8)},
		{Ticker: "UTG", Name: "Reaves Utility Income Fund", Category: "CEF", NavSymbol: "XUTGX", Yield: fptr(7.1), TotalReturn: fptr(12.4)},
		{Ticker: "JEPI", Name: "JPMorgan Equity Premium Income ETF", Category: "ETF", Yield: fptr(7.6), TotalReturn: fptr(11.0)},
		{Ticker: "QYLD", Name: "Global X NASDAQ 100 Covered Call ETF", Category: "ETF", Yield: fptr(11.8), TotalReturn: fptr(4.2)},
		{Ticker: "ULTY", Name: "YieldMax Ultra Option Income Strategy ETF", Category: "ETF", Yield: fptr(60.1), TotalReturn: fptr(-8.5)},
	}

	for _, f := range funds {
		if err := store.Upsert(ctx, f); err != nil {
			return fmt.Errorf("upsert fund %s: %w", f.Ticker, err)
		}
	}
	return nil
}

func loadDividends(ctx context.Context, store storage.RawDividendStore) error {
	var records []*domain.RawDividend

	monthly := func(ticker string, amount func(i int) string) {
		for i := 0; i < 24; i++ {
			exDate := time.Date(2023, time.January+time.Month(i), 15, 0, 0, 0, 0, time.UTC)
			records = append(records, fixtureRecord(ticker, exDate, amount(i)))
		}
	}

	monthly("PDI", func(int) string { return "0.2205" })
	monthly("UTG", func(int) string { return "0.19" })
	monthly("BST", func(i int) string {
		if i < 12 {
			return "0.25"
		}
		return "0.27"
	})
	monthly("JEPI", func(i int) string { return fmt.Sprintf("%.2f", 0.30+0.01*float64(i%7)) })
	monthly("QYLD", func(i int) string { return fmt.Sprintf("%.3f", 0.170+0.005*float64(i%3)) })

	// Year-end special distributions off the monthly anchor.
	records = append(records,
		fixtureRecord("UTG", time.Date(2023, 12, 28, 0, 0, 0, 0, time.UTC), "0.50"),
		fixtureRecord("UTG", time.Date(2024, 12, 27, 0, 0, 0, 0, time.UTC), "0.55"),
	)

	// Weekly payer with a 1-for-10 reverse split at week 30.
	firstFriday := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 52; i++ {
		amount := 0.10 + 0.002*float64(i%5)
		r := fixtureRecord("ULTY", firstFriday.AddDate(0, 0, 7*i), "")
		if i >= 30 {
			amount *= 10
		}
		r.RawAmount = decimal.NewFromFloat(amount).Round(4)
		if i == 30 {
			r.SplitFactor = decimal.NewNullDecimal(decimal.RequireFromString("0.1"))
		}
		r.ID = idhash.ComputeDividendID(r.Ticker, r.ExDate, r.RawAmount, FixtureSource)
		records = append(records, r)
	}

	if err := store.InsertBulk(ctx, records); err != nil {
		return fmt.Errorf("insert dividends: %w", err)
	}
	return nil
}

func fixtureRecord(ticker string, exDate time.Time, amount string) *domain.RawDividend {
	r := &domain.RawDividend{
		Ticker: ticker,
		ExDate: exDate,
	}
	if amount != "" {
		r.RawAmount = decimal.RequireFromString(amount)
		r.ID = idhash.ComputeDividendID(ticker, exDate, r.RawAmount, FixtureSource)
	}
	return r
}

// loadPrices writes business-day price and NAV closes for the closed-end funds.
// The premium/discount oscillates around a per-fund offset.
func loadPrices(ctx context.Context, store storage.PriceStore) error {
	series := []struct {
		ticker, nav string
		navBase     float64
		offset      float64
		period      float64
	}{
		{"BST", "XBSTX", 38.0, -0.04, 45},
		{"PDI", "XPDIX", 18.0, 0.08, 60},
		{"UTG", "XUTGX", 30.0, -0.02, 35},
	}

	var points []*domain.PricePoint
	for _, s := range series {
		i := 0
		for d := fixturePriceStart; !d.After(fixturePriceEnd); d = d.AddDate(0, 0, 1) {
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
				continue
			}
			nav := s.navBase * (1 + 0.0002*float64(i%250))
			pd := s.offset + 0.03*math.Sin(float64(i)/s.period)
			points = append(points,
				&domain.PricePoint{Symbol: s.nav, Date: d, Close: round4(nav)},
				&domain.PricePoint{Symbol: s.ticker, Date: d, Close: round4(nav * (1 + pd))},
			)
			i++
		}
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		return fmt.Errorf("insert prices: %w", err)
	}
	return nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func fptr(v float64) *float64 {
	return &v
}
