package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	fundStore    storage.FundStore
	metricsStore storage.MetricsStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(fundStore storage.FundStore, metricsStore storage.MetricsStore) *Generator {
	return &Generator{
		fundStore:    fundStore,
		metricsStore: metricsStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report from stored metrics and the given ranking snapshots.
func (g *Generator) Generate(ctx context.Context, snapshots []*domain.RankingSnapshot) (*Report, error) {
	funds, err := g.fundStore.ListByCategory(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}

	all, err := g.metricsStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load metrics: %w", err)
	}

	volatility := generateVolatilityRows(all)
	zscores := generateZScoreRows(all)

	buckets := make(map[string]domain.VolatilityBucket, len(volatility))
	for _, v := range volatility {
		buckets[v.Ticker] = v.Bucket
	}

	return &Report{
		GeneratedAt: g.now(),
		DataSummary: generateDataSummary(funds, volatility, zscores),
		Rankings:    generateRankingSections(snapshots, buckets),
		Volatility:  volatility,
		ZScores:     zscores,
	}, nil
}

// generateDataSummary computes counts and the covered period.
func generateDataSummary(funds []*domain.FundProfile, volatility []VolatilityRow, zscores []ZScoreRow) DataSummary {
	categories := make(map[string]struct{})
	for _, f := range funds {
		categories[f.Category] = struct{}{}
	}

	summary := DataSummary{
		TotalFunds:          len(funds),
		FundsWithVolatility: len(volatility),
		Categories:          len(categories),
	}
	for _, z := range zscores {
		if z.Status == domain.ZScoreStatusActive {
			summary.FundsWithZScore++
		}
	}
	for i, v := range volatility {
		if i == 0 || v.PeriodStart.Before(summary.PeriodStart) {
			summary.PeriodStart = v.PeriodStart
		}
		if i == 0 || v.PeriodEnd.After(summary.PeriodEnd) {
			summary.PeriodEnd = v.PeriodEnd
		}
	}
	return summary
}

// generateRankingSections converts snapshots into report sections sorted by category.
func generateRankingSections(snapshots []*domain.RankingSnapshot, buckets map[string]domain.VolatilityBucket) []RankingSection {
	sections := make([]RankingSection, 0, len(snapshots))
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		rows := make([]RankingRow, len(s.Funds))
		for i, f := range s.Funds {
			rows[i] = RankingRow{
				Rank:            f.Rank,
				Ticker:          f.Ticker,
				Yield:           f.YieldValue,
				Volatility:      f.VolatilityValue,
				Return:          f.ReturnValue,
				YieldScore:      f.YieldScore,
				VolatilityScore: f.VolatilityScore,
				ReturnScore:     f.ReturnScore,
				CompositeScore:  f.CompositeScore,
				Bucket:          buckets[f.Ticker],
			}
		}
		sections = append(sections, RankingSection{
			Category:   s.Category,
			SnapshotID: s.SnapshotID,
			Weights:    s.Weights,
			ComputedAt: s.ComputedAt,
			Rows:       rows,
		})
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Category < sections[j].Category
	})
	return sections
}

func generateVolatilityRows(all []*domain.FundMetrics) []VolatilityRow {
	var rows []VolatilityRow
	for _, m := range all {
		v := m.Volatility
		if v == nil {
			continue
		}
		rows = append(rows, VolatilityRow{
			Ticker:       m.Ticker,
			DataPoints:   v.DataPoints,
			Mean:         v.Mean,
			SampleStddev: v.SampleStddev,
			CVPercent:    v.CVPercent,
			Bucket:       v.Bucket,
			PeriodStart:  v.PeriodStart,
			PeriodEnd:    v.PeriodEnd,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ticker < rows[j].Ticker })
	return rows
}

func generateZScoreRows(all []*domain.FundMetrics) []ZScoreRow {
	var rows []ZScoreRow
	for _, m := range all {
		z := m.ZScore
		if z == nil {
			continue
		}
		rows = append(rows, ZScoreRow{
			Ticker:       m.Ticker,
			Status:       z.Status,
			ZScore:       z.ZScore,
			CurrentPDPct: z.CurrentPDPct(),
			AvgPDPct:     z.AvgPDPct(),
			StddevPDPct:  z.StddevPDPct(),
			DataPoints:   z.DataPoints,
			EndDate:      z.EndDate,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ticker < rows[j].Ticker })
	return rows
}
