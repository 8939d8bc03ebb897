package storage

import (
	"context"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// VolatilitySource selects the metric used as the ranking volatility dimension.
type VolatilitySource string

// Volatility sources.
const (
	VolatilityFromDVI    VolatilitySource = "dvi"
	VolatilityFromZScore VolatilitySource = "zscore"
)

// RawDividendStore provides access to raw_dividends storage.
type RawDividendStore interface {
	// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate id.
	InsertBulk(ctx context.Context, records []*domain.RawDividend) error

	// Upsert inserts or replaces a record by id. Used for feed corrections.
	Upsert(ctx context.Context, r *domain.RawDividend) error

	// GetByTicker retrieves all records for a ticker, ordered by (ex_date ASC, id ASC).
	// Records without an ex_date sort last.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.RawDividend, error)

	// ListTickers returns all tickers with at least one record, sorted ASC.
	ListTickers(ctx context.Context) ([]string, error)
}

// DividendStore provides access to processed_dividends storage.
type DividendStore interface {
	// WriteDividendBatch replaces the processed series of a ticker with events.
	// Returns the number of rows written.
	WriteDividendBatch(ctx context.Context, ticker string, events []*domain.DividendEvent) (int, error)

	// GetByTicker retrieves the processed series of a ticker, ordered by ex_date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.DividendEvent, error)
}

// MetricsStore provides access to fund_metrics storage.
type MetricsStore interface {
	// WriteMetricsBatch upserts volatility summaries keyed by ticker.
	// Returns the number of rows updated.
	WriteMetricsBatch(ctx context.Context, summaries []*domain.VolatilitySummary) (int, error)

	// WriteZScoreBatch upserts premium/discount z-scores keyed by ticker.
	WriteZScoreBatch(ctx context.Context, results []*domain.ZScoreResult) (int, error)

	// ClearVolatility removes the stored volatility summary of a ticker,
	// leaving its z-score untouched. A ticker without metrics is a no-op.
	ClearVolatility(ctx context.Context, ticker string) error

	// GetByTicker retrieves the metrics of a ticker. Returns ErrNotFound if not exists.
	GetByTicker(ctx context.Context, ticker string) (*domain.FundMetrics, error)

	// GetAll retrieves metrics for every ticker, ordered by ticker ASC.
	GetAll(ctx context.Context) ([]*domain.FundMetrics, error)
}

// FundStore provides access to the funds table (ranking universe).
type FundStore interface {
	// Upsert inserts or replaces a fund profile by ticker.
	Upsert(ctx context.Context, f *domain.FundProfile) error

	// GetByTicker retrieves a fund. Returns ErrNotFound if not exists.
	GetByTicker(ctx context.Context, ticker string) (*domain.FundProfile, error)

	// ListByCategory retrieves funds of a category, ordered by ticker ASC.
	// An empty category returns the whole universe.
	ListByCategory(ctx context.Context, category string) ([]*domain.FundProfile, error)
}

// RankInputReader reads per-ticker ranking inputs for a named sub-universe.
type RankInputReader interface {
	// GetRankInputs joins fund profiles with their metrics, ordered by ticker ASC.
	GetRankInputs(ctx context.Context, category string, source VolatilitySource) ([]*domain.RankInput, error)
}

// PriceStore provides access to daily price and NAV closes.
type PriceStore interface {
	// InsertBulk upserts multiple points keyed by (symbol, date).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByRange retrieves points for a symbol within [start, end] (inclusive), ordered by date ASC.
	GetByRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PricePoint, error)
}

// VolatilityHistoryStore keeps every computed volatility summary.
type VolatilityHistoryStore interface {
	// InsertBulk appends summaries.
	InsertBulk(ctx context.Context, summaries []*domain.VolatilitySummary) error

	// GetByTicker retrieves the history of a ticker, ordered by computed_at ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.VolatilitySummary, error)
}

// RankingSnapshotStore keeps ranking runs.
type RankingSnapshotStore interface {
	// Insert adds a snapshot. Returns ErrDuplicateKey if snapshot_id exists.
	Insert(ctx context.Context, s *domain.RankingSnapshot) error

	// GetLatest retrieves the most recent snapshot of a category. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, category string) (*domain.RankingSnapshot, error)
}
