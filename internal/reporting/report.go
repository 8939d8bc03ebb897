package reporting

import (
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// Report represents the ranking report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Data Summary
	DataSummary DataSummary

	// Data Quality (coverage checks and failed tickers)
	DataQuality DataQualitySection

	// Rankings, one section per category (sorted by category)
	Rankings []RankingSection

	// Per-fund metrics (sorted by ticker)
	Volatility []VolatilityRow
	ZScores    []ZScoreRow

	// Reproducibility
	Reproducibility ReproducibilityMetadata
}

// DataSummary contains data description.
type DataSummary struct {
	TotalFunds          int
	FundsWithVolatility int
	FundsWithZScore     int
	Categories          int
	PeriodStart         time.Time // earliest DVI window start
	PeriodEnd           time.Time // latest DVI window end
}

// DataQualitySection contains coverage checks and per-ticker failures.
type DataQualitySection struct {
	CoverageChecks  []CoverageCheckRow
	Failures        []string
	AllChecksPassed bool
}

// CoverageCheckRow represents one coverage criterion.
type CoverageCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// RankingSection is the ranking of one category.
type RankingSection struct {
	Category   string
	SnapshotID string
	Weights    domain.RankWeights
	ComputedAt time.Time
	Rows       []RankingRow
}

// RankingRow represents one row in a ranking table.
type RankingRow struct {
	Rank            int
	Ticker          string
	Yield           *float64
	Volatility      *float64
	Return          *float64
	YieldScore      float64
	VolatilityScore float64
	ReturnScore     float64
	CompositeScore  float64
	Bucket          domain.VolatilityBucket // empty when DVI unavailable
}

// VolatilityRow represents one DVI summary.
type VolatilityRow struct {
	Ticker       string
	DataPoints   int
	Mean         float64
	SampleStddev float64
	CVPercent    float64
	Bucket       domain.VolatilityBucket
	PeriodStart  time.Time
	PeriodEnd    time.Time
}

// ZScoreRow represents one premium/discount z-score.
type ZScoreRow struct {
	Ticker       string
	Status       string
	ZScore       *float64
	CurrentPDPct float64
	AvgPDPct     float64
	StddevPDPct  float64
	DataPoints   int
	EndDate      time.Time
}

// ReproducibilityMetadata identifies the inputs of a report.
type ReproducibilityMetadata struct {
	ReportTimestamp  time.Time
	GeneratorVersion string
	DataVersion      string // short hash of report data
	ReplayCommitHash string
	ReplayCommand    string
}
