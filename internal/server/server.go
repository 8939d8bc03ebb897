// Package server runs the scheduled batch and exposes its status over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/observability"
	"github.com/Skythrill256/yield-ranker-sub006/internal/orchestrator"
)

// ErrBusy is returned when a batch is requested while another is running.
var ErrBusy = errors.New("batch already running")

// Batch is the pipeline the server schedules.
type Batch interface {
	Run(ctx context.Context, tickers []string) (*orchestrator.RunResult, error)
	RetryTicker(ctx context.Context, ticker string) (*orchestrator.TickerResult, error)
	RankAll(ctx context.Context, exclude []string) ([]*domain.RankingSnapshot, error)
}

// RankingReader serves the latest ranking of a category.
type RankingReader interface {
	Latest(ctx context.Context, category string) (*domain.RankingSnapshot, error)
}

// Options for creating Server.
type Options struct {
	Batch    Batch
	Rankings RankingReader

	// OnComplete runs after every successful batch, e.g. to write reports.
	OnComplete func(ctx context.Context, result *orchestrator.RunResult) error

	Schedule        string // cron expression, empty disables scheduling
	ShutdownTimeout time.Duration

	Gatherer prometheus.Gatherer
	Metrics  *observability.Metrics
	Logger   zerolog.Logger
}

// Server holds the scheduler, the HTTP surface and batch state.
type Server struct {
	opts   Options
	cron   *cron.Cron
	clock  func() time.Time
	logger zerolog.Logger

	// State
	mu          sync.Mutex
	started     time.Time
	running     bool
	lastRun     time.Time
	lastError   string
	lastSummary *RunSummary
	runs        int
	failed      map[string]bool // tickers excluded from ranking until recomputed
}

// RunSummary is the outcome of the last batch.
type RunSummary struct {
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed"`
	Rankings  int      `json:"rankings"`
	Duration  string   `json:"duration"`
}

// New creates a new Server.
func New(opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		opts:   opts,
		cron:   cron.New(),
		failed: make(map[string]bool),
		clock:  func() time.Time { return time.Now().UTC() },
		logger: opts.Logger.With().Str("component", "server").Logger(),
	}
}

// WithClock sets a custom clock function for deterministic status output.
func (s *Server) WithClock(clock func() time.Time) *Server {
	s.clock = clock
	return s
}

// Start runs the scheduler and the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.mu.Lock()
	s.started = s.clock()
	s.mu.Unlock()

	if s.opts.Schedule != "" {
		if _, err := s.cron.AddFunc(s.opts.Schedule, func() { s.runScheduled(ctx) }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", s.opts.Schedule, err)
		}
		s.cron.Start()
		s.logger.Info().Str("schedule", s.opts.Schedule).Msg("Scheduler started")
		defer func() {
			<-s.cron.Stop().Done()
			s.logger.Info().Msg("Scheduler stopped")
		}()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// RunBatch runs the full batch unless one is already running.
func (s *Server) RunBatch(ctx context.Context) (*orchestrator.RunResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.running = true
	s.mu.Unlock()

	result, err := s.opts.Batch.Run(ctx, nil)
	if err == nil && s.opts.OnComplete != nil {
		if hookErr := s.opts.OnComplete(ctx, result); hookErr != nil {
			err = fmt.Errorf("post-run: %w", hookErr)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastRun = s.clock()
	s.runs++
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	if result != nil {
		s.failed = make(map[string]bool, len(result.Failures))
		for _, t := range result.FailedTickers() {
			s.failed[t] = true
		}
		s.lastSummary = &RunSummary{
			Succeeded: len(result.Tickers),
			Failed:    result.FailedTickers(),
			Rankings:  len(result.Rankings),
			Duration:  result.Duration.String(),
		}
	}
	return result, err
}

func (s *Server) runScheduled(ctx context.Context) {
	s.logger.Info().Msg("Scheduled batch starting")
	result, err := s.RunBatch(ctx)
	switch {
	case errors.Is(err, ErrBusy):
		s.logger.Warn().Msg("Batch already running, skipping")
	case err != nil:
		s.logger.Error().Err(err).Msg("Scheduled batch failed")
	default:
		s.logger.Info().
			Int("succeeded", len(result.Tickers)).
			Int("failed", len(result.Failures)).
			Dur("duration", result.Duration).
			Msg("Scheduled batch completed")
	}
}

// markRecomputed updates the failed set after a single-ticker recompute
// and returns the tickers still excluded from ranking.
func (s *Server) markRecomputed(ticker string, ok bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok {
		delete(s.failed, ticker)
	} else {
		s.failed[ticker] = true
	}
	exclude := make([]string, 0, len(s.failed))
	for t := range s.failed {
		exclude = append(exclude, t)
	}
	sort.Strings(exclude)
	return exclude
}

// Status is the JSON response of /status.
type Status struct {
	Status    string      `json:"status"`
	Uptime    string      `json:"uptime"`
	Started   time.Time   `json:"started"`
	Running   bool        `json:"running"`
	Runs      int         `json:"runs"`
	LastRun   *time.Time  `json:"last_run,omitempty"`
	LastError string      `json:"last_error,omitempty"`
	LastBatch *RunSummary `json:"last_batch,omitempty"`
}

func (s *Server) status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Status:    "running",
		Uptime:    s.clock().Sub(s.started).String(),
		Started:   s.started,
		Running:   s.running,
		Runs:      s.runs,
		LastError: s.lastError,
		LastBatch: s.lastSummary,
	}
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	return st
}
