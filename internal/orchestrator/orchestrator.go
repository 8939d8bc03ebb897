// Package orchestrator provides batch pipeline orchestration.
// It coordinates: dividend chain → volatility → z-score per ticker, in
// parallel, then ranking over the full universe.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/metrics"
	"github.com/Skythrill256/yield-ranker-sub006/internal/normalization"
	"github.com/Skythrill256/yield-ranker-sub006/internal/observability"
	"github.com/Skythrill256/yield-ranker-sub006/internal/ranking"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
	"github.com/Skythrill256/yield-ranker-sub006/internal/zscore"
)

// Stage names reported in TickerError.
const (
	StageNormalize  = "normalize"
	StageVolatility = "volatility"
)

// Orchestrator coordinates the batch pipeline execution.
// Flow: per ticker (normalize → write dividends → DVI → write metrics) → ranking
type Orchestrator struct {
	rawStore   storage.RawDividendStore
	runner     *normalization.Runner
	aggregator *metrics.Aggregator
	zscore     *zscore.Calculator // optional
	ranker     *ranking.Service   // optional

	workers    int
	categories []string
	logger     zerolog.Logger
	metrics    *observability.Metrics
	clock      func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	RawStore      storage.RawDividendStore
	DividendStore storage.DividendStore
	MetricsStore  storage.MetricsStore

	// Optional stores and engines
	HistoryStore storage.VolatilityHistoryStore
	ZScore       *zscore.Calculator
	Ranker       *ranking.Service

	// Configs
	Classifier       normalization.Config
	VolatilityWindow int
	Workers          int
	Categories       []string // ranked after the barrier; empty ranks the whole universe

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	categories := opts.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}
	return &Orchestrator{
		rawStore:   opts.RawStore,
		runner:     normalization.NewRunner(opts.RawStore, opts.DividendStore, opts.Classifier),
		aggregator: metrics.NewAggregator(opts.DividendStore, opts.MetricsStore, opts.HistoryStore, opts.VolatilityWindow),
		zscore:     opts.ZScore,
		ranker:     opts.Ranker,
		workers:    workers,
		categories: categories,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets the clock used for timestamps and durations.
func (o *Orchestrator) WithClock(clock func() time.Time) *Orchestrator {
	o.clock = clock
	o.aggregator.WithClock(clock)
	return o
}

// TickerResult contains the outcome of one ticker's chain.
type TickerResult struct {
	Ticker        string
	EventsWritten int
	Rejected      []*domain.RecordError
	Volatility    *domain.VolatilitySummary // nil when unavailable
	ZScore        *domain.ZScoreResult      // nil when not computed
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Tickers  []*TickerResult       // successful tickers, ordered by ticker ASC
	Failures []*domain.TickerError // fatal per-ticker failures, ordered by ticker ASC
	Rankings []*domain.RankingSnapshot
	Duration time.Duration
}

// FailedTickers returns the tickers that failed fatally.
func (r *RunResult) FailedTickers() []string {
	out := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.Ticker
	}
	return out
}

// Run executes the batch pipeline.
// Phases:
//  1. Resolve tickers (all tickers with raw data when none given)
//  2. Run each ticker's chain on a bounded worker pool
//  3. Rank every configured category, excluding failed tickers
//
// A per-ticker failure never aborts the batch. Cancelling ctx does.
func (o *Orchestrator) Run(ctx context.Context, tickers []string) (*RunResult, error) {
	start := o.clock()
	result := &RunResult{}

	// Phase 1: Resolve tickers
	if len(tickers) == 0 {
		all, err := o.rawStore.ListTickers(ctx)
		if err != nil {
			return nil, fmt.Errorf("phase 1 (list tickers) failed: %w", err)
		}
		tickers = all
	}
	o.logger.Info().Int("tickers", len(tickers)).Int("workers", o.workers).Msg("Phase 1: tickers resolved")

	// Phase 2: Per-ticker chain
	phaseStart := o.clock()
	if err := o.runTickers(ctx, tickers, result); err != nil {
		o.metrics.RecordPipelineRun("process", "cancelled", o.clock().Sub(phaseStart).Seconds())
		return result, fmt.Errorf("phase 2 (process tickers) failed: %w", err)
	}
	o.metrics.RecordPipelineRun("process", "success", o.clock().Sub(phaseStart).Seconds())
	o.logger.Info().
		Int("succeeded", len(result.Tickers)).
		Int("failed", len(result.Failures)).
		Msg("Phase 2: tickers processed")

	// Phase 3: Ranking
	if o.ranker != nil {
		phaseStart = o.clock()
		snaps, err := o.RankAll(ctx, result.FailedTickers())
		if err != nil {
			o.metrics.RecordPipelineRun("rank", "error", o.clock().Sub(phaseStart).Seconds())
			return result, fmt.Errorf("phase 3 (ranking) failed: %w", err)
		}
		result.Rankings = snaps
		o.metrics.RecordPipelineRun("rank", "success", o.clock().Sub(phaseStart).Seconds())
	}

	result.Duration = o.clock().Sub(start)
	o.metrics.MarkSuccess(o.clock().Unix())
	o.logger.Info().Dur("duration", result.Duration).Msg("Pipeline completed")

	return result, nil
}

func (o *Orchestrator) runTickers(ctx context.Context, tickers []string, result *RunResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	var mu sync.Mutex
	for _, ticker := range tickers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := o.processTicker(gctx, ticker)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				result.Failures = append(result.Failures, asTickerError(ticker, err))
				return nil // Don't fail the group on individual tickers
			}
			result.Tickers = append(result.Tickers, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sort.Slice(result.Tickers, func(i, j int) bool { return result.Tickers[i].Ticker < result.Tickers[j].Ticker })
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Ticker < result.Failures[j].Ticker })
	return nil
}

// RetryTicker reruns one ticker's chain. Ranking is not rerun; call RankAll
// to rank the full current universe afterwards.
func (o *Orchestrator) RetryTicker(ctx context.Context, ticker string) (*TickerResult, error) {
	res, err := o.processTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, asTickerError(ticker, err)
	}
	return res, nil
}

// RankAll ranks every configured category over the current universe.
func (o *Orchestrator) RankAll(ctx context.Context, exclude []string) ([]*domain.RankingSnapshot, error) {
	if o.ranker == nil {
		return nil, nil
	}
	snaps := make([]*domain.RankingSnapshot, 0, len(o.categories))
	for _, category := range o.categories {
		snap, err := o.ranker.RankCategory(ctx, ranking.Request{Category: category, Exclude: exclude})
		if err != nil {
			o.metrics.RecordRanking(category, "error", 0)
			return nil, fmt.Errorf("rank category %q: %w", category, err)
		}
		o.metrics.RecordRanking(category, "success", len(snap.Funds))
		o.logger.Info().Str("category", category).Int("funds", len(snap.Funds)).Msg("Ranking computed")
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// processTicker runs one ticker's chain, strictly sequential.
func (o *Orchestrator) processTicker(ctx context.Context, ticker string) (*TickerResult, error) {
	log := o.logger.With().Str("ticker", ticker).Logger()

	norm, err := o.runner.NormalizeTicker(ctx, ticker)
	if norm != nil {
		o.recordRejections(log, norm.Rejected)
	}
	if err != nil {
		var te *domain.TickerError
		if !errors.As(err, &te) {
			err = &domain.TickerError{Ticker: ticker, Stage: StageNormalize, Err: err}
		}
		log.Warn().Err(err).Str("reason", reasonOf(err)).Msg("Ticker failed")
		o.metrics.RecordTickerFailure(stageOf(err))
		return nil, err
	}
	o.metrics.RecordEvents(len(norm.Events), nil)

	res := &TickerResult{
		Ticker:        ticker,
		EventsWritten: norm.Written,
		Rejected:      norm.Rejected,
	}

	summary, err := o.aggregator.ComputeAndStore(ctx, ticker)
	if err != nil {
		err = &domain.TickerError{Ticker: ticker, Stage: StageVolatility, Err: err}
		log.Warn().Err(err).Str("reason", reasonOf(err)).Msg("Ticker failed")
		o.metrics.RecordTickerFailure(StageVolatility)
		return nil, err
	}
	if summary == nil {
		log.Debug().Msg("Volatility unavailable: insufficient regular payments")
		o.metrics.RecordVolatilityUnavailable()
	} else {
		o.metrics.RecordMetricsWritten("dvi", 1)
	}
	res.Volatility = summary

	if o.zscore != nil {
		z, err := o.zscore.CalculateAndStore(ctx, ticker, "", time.Time{})
		switch {
		case err == nil:
			res.ZScore = z
			o.metrics.RecordMetricsWritten("zscore", 1)
		case errors.Is(err, zscore.ErrNoNavSymbol), errors.Is(err, zscore.ErrNoOverlap), errors.Is(err, storage.ErrNotFound):
			log.Debug().Err(err).Msg("Z-score skipped")
		default:
			// Z-score is supplementary: a failure here does not exclude the ticker.
			log.Warn().Err(err).Msg("Z-score failed")
		}
	}

	log.Debug().Int("events", norm.Written).Int("rejected", len(norm.Rejected)).Msg("Ticker processed")
	return res, nil
}

func (o *Orchestrator) recordRejections(log zerolog.Logger, rejected []*domain.RecordError) {
	if len(rejected) == 0 {
		return
	}
	reasons := make([]string, len(rejected))
	for i, r := range rejected {
		reasons[i] = r.Reason
		log.Debug().Str("record_id", r.RecordID).Str("reason", r.Reason).Msg("Record rejected")
	}
	o.metrics.RecordEvents(0, reasons)
}

func asTickerError(ticker string, err error) *domain.TickerError {
	var te *domain.TickerError
	if errors.As(err, &te) {
		return te
	}
	return &domain.TickerError{Ticker: ticker, Stage: StageNormalize, Err: err}
}

func stageOf(err error) string {
	var te *domain.TickerError
	if errors.As(err, &te) {
		return te.Stage
	}
	return StageNormalize
}

func reasonOf(err error) string {
	var te *domain.TickerError
	if errors.As(err, &te) && te.Err != nil {
		return te.Err.Error()
	}
	return err.Error()
}
