package cli

import (
	"context"
	"fmt"

	"github.com/Skythrill256/yield-ranker-sub006/internal/orchestrator"
	"github.com/Skythrill256/yield-ranker-sub006/internal/pipeline"
	"github.com/Skythrill256/yield-ranker-sub006/internal/ranking"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
	chstore "github.com/Skythrill256/yield-ranker-sub006/internal/storage/clickhouse"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/memory"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage/migrations"
	pgstore "github.com/Skythrill256/yield-ranker-sub006/internal/storage/postgres"
	"github.com/Skythrill256/yield-ranker-sub006/internal/zscore"
)

// Stores holds all storage implementations of one run.
type Stores struct {
	Raw       storage.RawDividendStore
	Dividends storage.DividendStore
	Metrics   storage.MetricsStore
	Funds     storage.FundStore
	Prices    storage.PriceStore
	Reader    storage.RankInputReader
	History   storage.VolatilityHistoryStore
	Snapshots storage.RankingSnapshotStore

	closers []func()
}

// Close releases database connections.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores creates stores for the configured mode.
// Memory mode is seeded with fixtures when --use-fixtures is set.
func (a *App) openStores(ctx context.Context) (*Stores, error) {
	if !a.Config.UsesDatabase() {
		return a.memoryStores(ctx)
	}
	return a.databaseStores(ctx)
}

func (a *App) memoryStores(ctx context.Context) (*Stores, error) {
	funds := memory.NewFundStore()
	metricsStore := memory.NewMetricsStore()
	s := &Stores{
		Raw:       memory.NewRawDividendStore(),
		Dividends: memory.NewDividendStore(),
		Metrics:   metricsStore,
		Funds:     funds,
		Prices:    memory.NewPriceStore(),
		Reader:    memory.NewUniverseReader(funds, metricsStore),
		History:   memory.NewVolatilityHistoryStore(),
		Snapshots: memory.NewRankingSnapshotStore(),
	}

	if a.UseFixtures {
		if err := pipeline.LoadFixtures(ctx, s.Raw, s.Funds, s.Prices); err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		a.Logger.Info().Msg("Fixtures loaded into memory stores")
	} else {
		a.Logger.Warn().Msg("Memory storage without fixtures: data is not persisted between runs")
	}
	return s, nil
}

func (a *App) databaseStores(ctx context.Context) (*Stores, error) {
	cfg := a.Config.Storage
	s := &Stores{}

	pool, err := pgstore.NewPoolWithOptions(ctx, cfg.PostgresDSN, pgstore.PoolOptions{MaxConns: cfg.MaxConns})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, pool.Close)

	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	if len(applied) > 0 {
		a.Logger.Info().Strs("files", applied).Msg("Postgres migrations applied")
	}

	funds := pgstore.NewFundStore(pool)
	s.Raw = pgstore.NewRawDividendStore(pool)
	s.Dividends = pgstore.NewDividendStore(pool)
	s.Metrics = pgstore.NewMetricsStore(pool)
	s.Funds = funds
	s.Reader = funds
	s.Prices = pgstore.NewPriceStore(pool)

	if cfg.ClickhouseDSN == "" {
		// Snapshots live for the process only; history is not kept.
		s.Snapshots = memory.NewRankingSnapshotStore()
		a.Logger.Info().Msg("ClickHouse not configured: ranking snapshots are not persisted")
		return s, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	s.closers = append(s.closers, func() { _ = conn.Close() })
	s.History = chstore.NewVolatilityHistoryStore(conn)
	s.Snapshots = chstore.NewRankingSnapshotStore(conn)
	return s, nil
}

// newRanker builds the ranking service from configuration.
func (a *App) newRanker(s *Stores) *ranking.Service {
	rc := a.Config.Ranking
	return ranking.NewService(s.Reader, s.Snapshots, rc.Weights, rc.Epsilon, storage.VolatilitySource(rc.VolatilitySource))
}

// newZScore builds the z-score calculator from configuration.
func (a *App) newZScore(s *Stores) *zscore.Calculator {
	return zscore.NewCalculator(s.Funds, s.Prices, s.Metrics, a.Config.ZScore)
}

// newOrchestrator wires the batch pipeline over s.
func (a *App) newOrchestrator(s *Stores, ranker *ranking.Service) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Options{
		RawStore:         s.Raw,
		DividendStore:    s.Dividends,
		MetricsStore:     s.Metrics,
		HistoryStore:     s.History,
		ZScore:           a.newZScore(s),
		Ranker:           ranker,
		Classifier:       a.Config.Classifier,
		VolatilityWindow: a.Config.Pipeline.VolatilityWindow,
		Workers:          a.Config.Pipeline.Workers,
		Categories:       a.Config.Ranking.Categories,
		Logger:           a.Logger,
		Metrics:          a.Metrics,
	})
}

// warmFixtures runs the batch once so memory stores hold metrics.
// Commands that read metrics call it; it is a no-op outside fixture mode.
func (a *App) warmFixtures(ctx context.Context, s *Stores) (*orchestrator.RunResult, error) {
	if !a.UseFixtures {
		return nil, nil
	}
	return a.newOrchestrator(s, a.newRanker(s)).Run(ctx, nil)
}
