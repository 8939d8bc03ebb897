package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/memory"
)

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	funds := memory.NewFundStore()
	metrics := memory.NewMetricsStore()

	for _, f := range []*domain.FundProfile{
		{Ticker: "QYLD", Category: "ETF"},
		{Ticker: "JEPI", Category: "ETF"},
		{Ticker: "PDI", Category: "CEF", NavSymbol: "XPDIX"},
	} {
		if err := funds.Upsert(ctx, f); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if _, err := metrics.WriteMetricsBatch(ctx, []*domain.VolatilitySummary{
		{Ticker: "QYLD", DataPoints: 12, CVPercent: 4, Bucket: domain.BucketVeryLow, PeriodStart: mar, PeriodEnd: dec},
		{Ticker: "JEPI", DataPoints: 12, CVPercent: 12, Bucket: domain.BucketModerate, PeriodStart: jan, PeriodEnd: mar},
	}); err != nil {
		t.Fatalf("WriteMetricsBatch failed: %v", err)
	}
	z := 1.5
	if _, err := metrics.WriteZScoreBatch(ctx, []*domain.ZScoreResult{
		{Ticker: "PDI", Status: domain.ZScoreStatusActive, ZScore: &z, CurrentPD: 0.05},
		{Ticker: "QYLD", Status: domain.ZScoreStatusInsufficientData},
	}); err != nil {
		t.Fatalf("WriteZScoreBatch failed: %v", err)
	}

	snapshots := []*domain.RankingSnapshot{
		{Category: "ETF", SnapshotID: "etf", Funds: []domain.RankedFund{
			{Rank: 1, Ticker: "JEPI"},
			{Rank: 2, Ticker: "QYLD"},
		}},
		nil,
		{Category: "CEF", SnapshotID: "cef", Funds: []domain.RankedFund{{Rank: 1, Ticker: "PDI"}}},
	}

	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	report, err := NewGenerator(funds, metrics).
		WithClock(func() time.Time { return now }).
		Generate(ctx, snapshots)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(now) {
		t.Errorf("Expected GeneratedAt %v, got %v", now, report.GeneratedAt)
	}

	s := report.DataSummary
	if s.TotalFunds != 3 || s.FundsWithVolatility != 2 || s.FundsWithZScore != 1 || s.Categories != 2 {
		t.Errorf("Unexpected data summary: %+v", s)
	}
	if !s.PeriodStart.Equal(jan) || !s.PeriodEnd.Equal(dec) {
		t.Errorf("Expected period %v..%v, got %v..%v", jan, dec, s.PeriodStart, s.PeriodEnd)
	}

	if len(report.Rankings) != 2 {
		t.Fatalf("Expected 2 ranking sections, got %d", len(report.Rankings))
	}
	if report.Rankings[0].Category != "CEF" || report.Rankings[1].Category != "ETF" {
		t.Errorf("Expected sections sorted by category, got %s, %s",
			report.Rankings[0].Category, report.Rankings[1].Category)
	}
	etf := report.Rankings[1].Rows
	if etf[0].Bucket != domain.BucketModerate || etf[1].Bucket != domain.BucketVeryLow {
		t.Errorf("Expected buckets joined from metrics, got %s, %s", etf[0].Bucket, etf[1].Bucket)
	}
	if report.Rankings[0].Rows[0].Bucket != "" {
		t.Errorf("Expected no bucket for fund without DVI, got %s", report.Rankings[0].Rows[0].Bucket)
	}

	if len(report.Volatility) != 2 || report.Volatility[0].Ticker != "JEPI" {
		t.Errorf("Expected volatility rows sorted by ticker, got %+v", report.Volatility)
	}
	if len(report.ZScores) != 2 || report.ZScores[0].Ticker != "PDI" {
		t.Fatalf("Expected z-score rows sorted by ticker, got %+v", report.ZScores)
	}
	if report.ZScores[0].CurrentPDPct != 5 {
		t.Errorf("Expected current P/D 5%%, got %v", report.ZScores[0].CurrentPDPct)
	}
}
