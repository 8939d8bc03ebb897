package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// PriceStore implements storage.PriceStore using PostgreSQL.
type PriceStore struct {
	pool *Pool
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// InsertBulk upserts multiple points keyed by (symbol, date) using COPY into a
// temp table followed by a merge.
func (s *PriceStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.Symbol == "" || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE prices_stage (LIKE prices INCLUDING DEFAULTS) ON COMMIT DROP
	`); err != nil {
		return fmt.Errorf("create stage table: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"prices_stage"},
		[]string{"symbol", "date", "close"},
		pgx.CopyFromSlice(len(points), func(i int) ([]any, error) {
			p := points[i]
			return []any{p.Symbol, p.Date, p.Close}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy prices: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO prices (symbol, date, close)
		SELECT DISTINCT ON (symbol, date) symbol, date, close FROM prices_stage
		ON CONFLICT (symbol, date) DO UPDATE SET close = EXCLUDED.close
	`); err != nil {
		return fmt.Errorf("merge prices: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRange retrieves points for a symbol within [start, end] (inclusive), ordered by date ASC.
func (s *PriceStore) GetByRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PricePoint, error) {
	query := `
		SELECT symbol, date, close
		FROM prices
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var result []*domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		p.Date = p.Date.UTC()
		result = append(result, &p)
	}
	return result, rows.Err()
}
