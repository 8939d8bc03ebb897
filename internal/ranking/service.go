package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/idhash"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// ErrInvalidWeights is returned when a weight is outside [0,100].
var ErrInvalidWeights = errors.New("invalid ranking weights")

// Request describes one ranking run.
type Request struct {
	Category string
	Weights  *domain.RankWeights // nil uses the service default
	Exclude  []string            // tickers dropped before ranking
}

// Service ranks a category over the current universe and stores snapshots.
type Service struct {
	reader    storage.RankInputReader
	snapshots storage.RankingSnapshotStore // optional
	weights   domain.RankWeights
	epsilon   float64
	source    storage.VolatilitySource
	validate  *validator.Validate
	clock     func() time.Time
}

// NewService creates a ranking service.
// snapshots may be nil when ranking runs are not persisted.
func NewService(reader storage.RankInputReader, snapshots storage.RankingSnapshotStore, weights domain.RankWeights, epsilon float64, source storage.VolatilitySource) *Service {
	if source == "" {
		source = storage.VolatilityFromDVI
	}
	return &Service{
		reader:    reader,
		snapshots: snapshots,
		weights:   weights,
		epsilon:   epsilon,
		source:    source,
		validate:  validator.New(),
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets the clock used for ComputedAt.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Source returns the configured volatility source.
func (s *Service) Source() storage.VolatilitySource {
	return s.source
}

// RankCategory reads the universe of a category, ranks it and stores the
// snapshot. A run over zero funds returns an empty snapshot that is not stored.
func (s *Service) RankCategory(ctx context.Context, req Request) (*domain.RankingSnapshot, error) {
	weights := s.weights
	if req.Weights != nil {
		weights = *req.Weights
	}
	if err := s.validate.Struct(weights); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWeights, err)
	}

	inputs, err := s.reader.GetRankInputs(ctx, req.Category, s.source)
	if err != nil {
		return nil, fmt.Errorf("get rank inputs: %w", err)
	}

	if len(req.Exclude) > 0 {
		excluded := make(map[string]struct{}, len(req.Exclude))
		for _, t := range req.Exclude {
			excluded[t] = struct{}{}
		}
		kept := inputs[:0]
		for _, in := range inputs {
			if _, skip := excluded[in.Ticker]; !skip {
				kept = append(kept, in)
			}
		}
		inputs = kept
	}

	funds := Rank(inputs, weights, s.epsilon)
	computedAt := s.clock()

	tickers := make([]string, len(funds))
	for i, f := range funds {
		tickers[i] = f.Ticker
	}

	snap := &domain.RankingSnapshot{
		SnapshotID: idhash.ComputeSnapshotID(req.Category, weights.Yield, weights.Volatility, weights.Return, computedAt, tickers),
		Category:   req.Category,
		Weights:    weights,
		Funds:      funds,
		ComputedAt: computedAt,
	}

	if s.snapshots != nil && len(funds) > 0 {
		if err := s.snapshots.Insert(ctx, snap); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("store ranking snapshot: %w", err)
		}
	}

	return snap, nil
}

// Latest returns the most recent stored snapshot of a category.
// Returns storage.ErrNotFound if none exists or snapshots are not persisted.
func (s *Service) Latest(ctx context.Context, category string) (*domain.RankingSnapshot, error) {
	if s.snapshots == nil {
		return nil, storage.ErrNotFound
	}
	return s.snapshots.GetLatest(ctx, category)
}
