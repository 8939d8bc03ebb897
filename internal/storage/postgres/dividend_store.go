package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// DividendStore implements storage.DividendStore using PostgreSQL.
type DividendStore struct {
	pool *Pool
}

// NewDividendStore creates a new DividendStore.
func NewDividendStore(pool *Pool) *DividendStore {
	return &DividendStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DividendStore = (*DividendStore)(nil)

// WriteDividendBatch replaces the processed series of a ticker in one
// transaction. Rows of the ticker not present in events are removed.
func (s *DividendStore) WriteDividendBatch(ctx context.Context, ticker string, events []*domain.DividendEvent) (int, error) {
	if ticker == "" {
		return 0, storage.ErrInvalidInput
	}
	for _, e := range events {
		if e == nil || e.ID == "" || e.Ticker != ticker {
			return 0, storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM processed_dividends WHERE ticker = $1`, ticker); err != nil {
		return 0, fmt.Errorf("clear processed dividends: %w", err)
	}

	query := `
		INSERT INTO processed_dividends (
			id, ticker, ex_date,
			raw_amount, split_factor, cumulative_factor, adjusted_amount,
			external_adjusted, external_scaled, effective_amount,
			days_since_prev, pmt_type, frequency,
			annualized, normalized_weekly, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13,
			$14, $15, now()
		)
		ON CONFLICT (id) DO UPDATE SET
			ticker = EXCLUDED.ticker,
			ex_date = EXCLUDED.ex_date,
			raw_amount = EXCLUDED.raw_amount,
			split_factor = EXCLUDED.split_factor,
			cumulative_factor = EXCLUDED.cumulative_factor,
			adjusted_amount = EXCLUDED.adjusted_amount,
			external_adjusted = EXCLUDED.external_adjusted,
			external_scaled = EXCLUDED.external_scaled,
			effective_amount = EXCLUDED.effective_amount,
			days_since_prev = EXCLUDED.days_since_prev,
			pmt_type = EXCLUDED.pmt_type,
			frequency = EXCLUDED.frequency,
			annualized = EXCLUDED.annualized,
			normalized_weekly = EXCLUDED.normalized_weekly,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(query,
			e.ID, e.Ticker, e.ExDate,
			e.RawAmount, e.SplitFactor, e.CumulativeFactor, e.AdjustedAmount,
			e.ExternalAdjusted, e.ExternalScaled, domain.BestAdjustedAmount(e),
			e.DaysSincePrev, string(e.PaymentType), int16(e.Frequency),
			e.Annualized, e.NormalizedWeekly,
		)
	}

	written := 0
	results := tx.SendBatch(ctx, batch)
	for range events {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("write processed dividend: %w", err)
		}
		written += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return written, nil
}

// GetByTicker retrieves the processed series of a ticker, ordered by ex_date ASC.
func (s *DividendStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.DividendEvent, error) {
	query := `
		SELECT
			id, ticker, ex_date,
			raw_amount, split_factor, cumulative_factor, adjusted_amount,
			external_adjusted, external_scaled,
			days_since_prev, pmt_type, frequency,
			annualized, normalized_weekly
		FROM processed_dividends
		WHERE ticker = $1
		ORDER BY ex_date ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query processed dividends: %w", err)
	}
	defer rows.Close()

	var result []*domain.DividendEvent
	for rows.Next() {
		var e domain.DividendEvent
		var pmtType string
		var frequency int16
		if err := rows.Scan(
			&e.ID, &e.Ticker, &e.ExDate,
			&e.RawAmount, &e.SplitFactor, &e.CumulativeFactor, &e.AdjustedAmount,
			&e.ExternalAdjusted, &e.ExternalScaled,
			&e.DaysSincePrev, &pmtType, &frequency,
			&e.Annualized, &e.NormalizedWeekly,
		); err != nil {
			return nil, fmt.Errorf("scan processed dividend: %w", err)
		}
		e.ExDate = e.ExDate.UTC()
		e.PaymentType = domain.PaymentType(pmtType)
		e.Frequency = domain.Frequency(frequency)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed dividends: %w", err)
	}
	return result, nil
}
