package postgres

import (
	"context"
	"fmt"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// FundStore implements storage.FundStore and storage.RankInputReader using PostgreSQL.
type FundStore struct {
	pool *Pool
}

// NewFundStore creates a new FundStore.
func NewFundStore(pool *Pool) *FundStore {
	return &FundStore{pool: pool}
}

// Compile-time interface checks.
var (
	_ storage.FundStore       = (*FundStore)(nil)
	_ storage.RankInputReader = (*FundStore)(nil)
)

// Upsert inserts or replaces a fund profile by ticker.
func (s *FundStore) Upsert(ctx context.Context, f *domain.FundProfile) error {
	if f == nil || f.Ticker == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO funds (ticker, name, category, nav_symbol, yield, total_return)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			nav_symbol = EXCLUDED.nav_symbol,
			yield = EXCLUDED.yield,
			total_return = EXCLUDED.total_return
	`

	_, err := s.pool.Exec(ctx, query, f.Ticker, f.Name, f.Category, f.NavSymbol, f.Yield, f.TotalReturn)
	if err != nil {
		return fmt.Errorf("upsert fund: %w", err)
	}
	return nil
}

// GetByTicker retrieves a fund. Returns ErrNotFound if not exists.
func (s *FundStore) GetByTicker(ctx context.Context, ticker string) (*domain.FundProfile, error) {
	query := `
		SELECT ticker, name, category, nav_symbol, yield, total_return
		FROM funds
		WHERE ticker = $1
	`

	var f domain.FundProfile
	err := s.pool.QueryRow(ctx, query, ticker).Scan(
		&f.Ticker, &f.Name, &f.Category, &f.NavSymbol, &f.Yield, &f.TotalReturn,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get fund: %w", err)
	}
	return &f, nil
}

// ListByCategory retrieves funds of a category, ordered by ticker ASC.
func (s *FundStore) ListByCategory(ctx context.Context, category string) ([]*domain.FundProfile, error) {
	query := `
		SELECT ticker, name, category, nav_symbol, yield, total_return
		FROM funds
		WHERE $1 = '' OR category = $1
		ORDER BY ticker ASC
	`

	rows, err := s.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("query funds: %w", err)
	}
	defer rows.Close()

	var result []*domain.FundProfile
	for rows.Next() {
		var f domain.FundProfile
		if err := rows.Scan(&f.Ticker, &f.Name, &f.Category, &f.NavSymbol, &f.Yield, &f.TotalReturn); err != nil {
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		result = append(result, &f)
	}
	return result, rows.Err()
}

// GetRankInputs joins fund profiles with their metrics, ordered by ticker ASC.
func (s *FundStore) GetRankInputs(ctx context.Context, category string, source storage.VolatilitySource) ([]*domain.RankInput, error) {
	volatilityColumn := "m.dvi_cv_percent"
	if source == storage.VolatilityFromZScore {
		volatilityColumn = "m.zscore_3yr"
	}

	query := fmt.Sprintf(`
		SELECT f.ticker, f.yield, %s, f.total_return
		FROM funds f
		LEFT JOIN fund_metrics m ON m.ticker = f.ticker
		WHERE $1 = '' OR f.category = $1
		ORDER BY f.ticker ASC
	`, volatilityColumn)

	rows, err := s.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("query rank inputs: %w", err)
	}
	defer rows.Close()

	var result []*domain.RankInput
	for rows.Next() {
		var in domain.RankInput
		if err := rows.Scan(&in.Ticker, &in.Yield, &in.Volatility, &in.Return); err != nil {
			return nil, fmt.Errorf("scan rank input: %w", err)
		}
		result = append(result, &in)
	}
	return result, rows.Err()
}
