package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// VolatilityHistoryStore implements storage.VolatilityHistoryStore using ClickHouse.
type VolatilityHistoryStore struct {
	conn *Conn
}

// NewVolatilityHistoryStore creates a new VolatilityHistoryStore.
func NewVolatilityHistoryStore(conn *Conn) *VolatilityHistoryStore {
	return &VolatilityHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.VolatilityHistoryStore = (*VolatilityHistoryStore)(nil)

// InsertBulk appends summaries in one batch.
func (s *VolatilityHistoryStore) InsertBulk(ctx context.Context, summaries []*domain.VolatilitySummary) error {
	if len(summaries) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO volatility_history (
			ticker, computed_at, period_start, period_end,
			data_points, mean, sample_stddev, cv_percent, bucket, annualized
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, v := range summaries {
		if v == nil || v.Ticker == "" {
			return storage.ErrInvalidInput
		}
		values := v.Values
		if values == nil {
			values = []float64{}
		}
		err = batch.Append(
			v.Ticker, v.ComputedAt, v.PeriodStart, v.PeriodEnd,
			uint32(v.DataPoints), v.Mean, v.SampleStddev, v.CVPercent, string(v.Bucket), values,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTicker retrieves the history of a ticker, ordered by computed_at ASC.
func (s *VolatilityHistoryStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.VolatilitySummary, error) {
	query := `
		SELECT
			ticker, computed_at, period_start, period_end,
			data_points, mean, sample_stddev, cv_percent, bucket, annualized
		FROM volatility_history
		WHERE ticker = ?
		ORDER BY computed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query volatility history: %w", err)
	}
	defer rows.Close()

	var result []*domain.VolatilitySummary
	for rows.Next() {
		var (
			v          domain.VolatilitySummary
			dataPoints uint32
			bucket     string
			computedAt time.Time
		)
		if err := rows.Scan(
			&v.Ticker, &computedAt, &v.PeriodStart, &v.PeriodEnd,
			&dataPoints, &v.Mean, &v.SampleStddev, &v.CVPercent, &bucket, &v.Values,
		); err != nil {
			return nil, fmt.Errorf("scan volatility history: %w", err)
		}
		v.DataPoints = int(dataPoints)
		v.Bucket = domain.VolatilityBucket(bucket)
		v.ComputedAt = computedAt.UTC()
		v.PeriodStart = v.PeriodStart.UTC()
		v.PeriodEnd = v.PeriodEnd.UTC()
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volatility history: %w", err)
	}
	return result, nil
}
