package normalization

import (
	"context"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// DividendEngine defines the per-ticker dividend chain over stores.
type DividendEngine interface {
	// NormalizeTicker rebuilds a ticker's processed series from its raw records.
	NormalizeTicker(ctx context.Context, ticker string) (*Result, error)
}

// Result is the output of one ticker's chain.
type Result struct {
	Ticker   string
	Events   []*domain.DividendEvent
	Rejected []*domain.RecordError
	Written  int
}

// Process runs split chain, classifier and normalizer on one ticker's raw
// records. It performs no I/O. Identical input yields identical events.
// A fatal error is returned as *domain.TickerError.
func Process(ticker string, records []*domain.RawDividend, cfg Config) (*Result, error) {
	accepted, rejected, err := ValidateRecords(ticker, records)
	if err != nil {
		return &Result{Ticker: ticker, Rejected: rejected}, &domain.TickerError{
			Ticker: ticker,
			Stage:  "split chain",
			Err:    err,
		}
	}

	sorted := make([]*domain.RawDividend, len(accepted))
	copy(sorted, accepted)
	SortRawDividends(sorted)

	events := ApplySplitChain(sorted)
	Classify(events, cfg)
	Normalize(events)

	return &Result{
		Ticker:   ticker,
		Events:   events,
		Rejected: rejected,
	}, nil
}

// Runner implements DividendEngine.
type Runner struct {
	rawStore      storage.RawDividendStore
	dividendStore storage.DividendStore
	cfg           Config
}

var _ DividendEngine = (*Runner)(nil)

// NewRunner creates a new dividend runner.
func NewRunner(rawStore storage.RawDividendStore, dividendStore storage.DividendStore, cfg Config) *Runner {
	return &Runner{
		rawStore:      rawStore,
		dividendStore: dividendStore,
		cfg:           cfg,
	}
}

// Config returns the thresholds the runner classifies with.
func (r *Runner) Config() Config {
	return r.cfg
}
