package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// RawDividendStore implements storage.RawDividendStore using PostgreSQL.
type RawDividendStore struct {
	pool *Pool
}

// NewRawDividendStore creates a new RawDividendStore.
func NewRawDividendStore(pool *Pool) *RawDividendStore {
	return &RawDividendStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RawDividendStore = (*RawDividendStore)(nil)

const insertRawDividendSQL = `
	INSERT INTO raw_dividends (
		id, ticker, ex_date, raw_amount, adjusted_amount, scaled_amount, split_factor
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate id.
func (s *RawDividendStore) InsertBulk(ctx context.Context, records []*domain.RawDividend) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertRawDividendSQL,
			r.ID, r.Ticker, nullTime(r.ExDate), r.RawAmount,
			r.AdjustedAmount, r.ScaledAmount, r.SplitFactor,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert raw dividend in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Upsert inserts or replaces a record by id.
func (s *RawDividendStore) Upsert(ctx context.Context, r *domain.RawDividend) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	query := insertRawDividendSQL + `
		ON CONFLICT (id) DO UPDATE SET
			ticker = EXCLUDED.ticker,
			ex_date = EXCLUDED.ex_date,
			raw_amount = EXCLUDED.raw_amount,
			adjusted_amount = EXCLUDED.adjusted_amount,
			scaled_amount = EXCLUDED.scaled_amount,
			split_factor = EXCLUDED.split_factor
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.Ticker, nullTime(r.ExDate), r.RawAmount,
		r.AdjustedAmount, r.ScaledAmount, r.SplitFactor,
	)
	if err != nil {
		return fmt.Errorf("upsert raw dividend: %w", err)
	}
	return nil
}

// GetByTicker retrieves all records for a ticker, ordered by (ex_date ASC, id ASC).
func (s *RawDividendStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.RawDividend, error) {
	query := `
		SELECT id, ticker, ex_date, raw_amount, adjusted_amount, scaled_amount, split_factor
		FROM raw_dividends
		WHERE ticker = $1
		ORDER BY ex_date ASC NULLS LAST, id ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query raw dividends: %w", err)
	}
	defer rows.Close()

	return scanRawDividends(rows)
}

// ListTickers returns all tickers with at least one record, sorted ASC.
func (s *RawDividendStore) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT ticker FROM raw_dividends ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func scanRawDividends(rows pgx.Rows) ([]*domain.RawDividend, error) {
	var result []*domain.RawDividend
	for rows.Next() {
		var r domain.RawDividend
		var exDate *time.Time
		if err := rows.Scan(
			&r.ID, &r.Ticker, &exDate, &r.RawAmount,
			&r.AdjustedAmount, &r.ScaledAmount, &r.SplitFactor,
		); err != nil {
			return nil, fmt.Errorf("scan raw dividend: %w", err)
		}
		r.ExDate = timeOrZero(exDate)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw dividends: %w", err)
	}
	return result, nil
}
