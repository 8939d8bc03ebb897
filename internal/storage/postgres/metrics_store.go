package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// MetricsStore implements storage.MetricsStore using PostgreSQL.
type MetricsStore struct {
	pool *Pool
}

// NewMetricsStore creates a new MetricsStore.
func NewMetricsStore(pool *Pool) *MetricsStore {
	return &MetricsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MetricsStore = (*MetricsStore)(nil)

// WriteMetricsBatch upserts volatility summaries keyed by ticker.
func (s *MetricsStore) WriteMetricsBatch(ctx context.Context, summaries []*domain.VolatilitySummary) (int, error) {
	if len(summaries) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO fund_metrics (
			ticker,
			dvi_data_points, dvi_mean, dvi_sample_stddev, dvi_cv_percent, dvi_bucket,
			dvi_period_start, dvi_period_end, dvi_values, dvi_computed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (ticker) DO UPDATE SET
			dvi_data_points = EXCLUDED.dvi_data_points,
			dvi_mean = EXCLUDED.dvi_mean,
			dvi_sample_stddev = EXCLUDED.dvi_sample_stddev,
			dvi_cv_percent = EXCLUDED.dvi_cv_percent,
			dvi_bucket = EXCLUDED.dvi_bucket,
			dvi_period_start = EXCLUDED.dvi_period_start,
			dvi_period_end = EXCLUDED.dvi_period_end,
			dvi_values = EXCLUDED.dvi_values,
			dvi_computed_at = EXCLUDED.dvi_computed_at,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, v := range summaries {
		if v == nil || v.Ticker == "" {
			return 0, storage.ErrInvalidInput
		}
		batch.Queue(query,
			v.Ticker,
			v.DataPoints, v.Mean, v.SampleStddev, v.CVPercent, string(v.Bucket),
			v.PeriodStart, v.PeriodEnd, v.Values, nullTime(v.ComputedAt),
		)
	}

	return s.sendBatch(ctx, batch, len(summaries))
}

// WriteZScoreBatch upserts premium/discount z-scores keyed by ticker.
func (s *MetricsStore) WriteZScoreBatch(ctx context.Context, results []*domain.ZScoreResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO fund_metrics (
			ticker,
			zscore_status, zscore_3yr, zscore_current_pd, zscore_avg_pd, zscore_stddev_pd,
			zscore_data_points, zscore_required, zscore_start_date, zscore_end_date, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (ticker) DO UPDATE SET
			zscore_status = EXCLUDED.zscore_status,
			zscore_3yr = EXCLUDED.zscore_3yr,
			zscore_current_pd = EXCLUDED.zscore_current_pd,
			zscore_avg_pd = EXCLUDED.zscore_avg_pd,
			zscore_stddev_pd = EXCLUDED.zscore_stddev_pd,
			zscore_data_points = EXCLUDED.zscore_data_points,
			zscore_required = EXCLUDED.zscore_required,
			zscore_start_date = EXCLUDED.zscore_start_date,
			zscore_end_date = EXCLUDED.zscore_end_date,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, z := range results {
		if z == nil || z.Ticker == "" {
			return 0, storage.ErrInvalidInput
		}
		batch.Queue(query,
			z.Ticker,
			z.Status, z.ZScore, z.CurrentPD, z.AvgPD, z.StddevPD,
			z.DataPoints, z.Required, nullTime(z.StartDate), nullTime(z.EndDate),
		)
	}

	return s.sendBatch(ctx, batch, len(results))
}

// ClearVolatility nulls the dvi columns of a ticker.
func (s *MetricsStore) ClearVolatility(ctx context.Context, ticker string) error {
	query := `
		UPDATE fund_metrics SET
			dvi_data_points = NULL,
			dvi_mean = NULL,
			dvi_sample_stddev = NULL,
			dvi_cv_percent = NULL,
			dvi_bucket = NULL,
			dvi_period_start = NULL,
			dvi_period_end = NULL,
			dvi_values = NULL,
			dvi_computed_at = NULL,
			updated_at = now()
		WHERE ticker = $1 AND dvi_data_points IS NOT NULL
	`

	if _, err := s.pool.Exec(ctx, query, ticker); err != nil {
		return fmt.Errorf("clear volatility %s: %w", ticker, err)
	}
	return nil
}

func (s *MetricsStore) sendBatch(ctx context.Context, batch *pgx.Batch, n int) (int, error) {
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	updated := 0
	for i := 0; i < n; i++ {
		tag, err := results.Exec()
		if err != nil {
			return updated, fmt.Errorf("upsert fund metrics: %w", err)
		}
		updated += int(tag.RowsAffected())
	}
	return updated, nil
}

const selectMetricsSQL = `
	SELECT
		ticker,
		dvi_data_points, dvi_mean, dvi_sample_stddev, dvi_cv_percent, dvi_bucket,
		dvi_period_start, dvi_period_end, dvi_values, dvi_computed_at,
		zscore_status, zscore_3yr, zscore_current_pd, zscore_avg_pd, zscore_stddev_pd,
		zscore_data_points, zscore_required, zscore_start_date, zscore_end_date,
		updated_at
	FROM fund_metrics
`

// GetByTicker retrieves the metrics of a ticker. Returns ErrNotFound if not exists.
func (s *MetricsStore) GetByTicker(ctx context.Context, ticker string) (*domain.FundMetrics, error) {
	rows, err := s.pool.Query(ctx, selectMetricsSQL+` WHERE ticker = $1`, ticker)
	if err != nil {
		return nil, fmt.Errorf("query fund metrics: %w", err)
	}
	defer rows.Close()

	result, err := scanMetrics(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result[0], nil
}

// GetAll retrieves metrics for every ticker, ordered by ticker ASC.
func (s *MetricsStore) GetAll(ctx context.Context) ([]*domain.FundMetrics, error) {
	rows, err := s.pool.Query(ctx, selectMetricsSQL+` ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("query fund metrics: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

func scanMetrics(rows pgx.Rows) ([]*domain.FundMetrics, error) {
	var result []*domain.FundMetrics
	for rows.Next() {
		var (
			m domain.FundMetrics

			dviPoints                   *int
			dviMean, dviStddev, dviCV   *float64
			dviBucket                   *string
			dviStart, dviEnd, dviAt     *time.Time
			dviValues                   []float64
			zStatus                     *string
			zScore, zCur, zAvg, zStddev *float64
			zPoints, zRequired          *int
			zStart, zEnd                *time.Time
		)
		if err := rows.Scan(
			&m.Ticker,
			&dviPoints, &dviMean, &dviStddev, &dviCV, &dviBucket,
			&dviStart, &dviEnd, &dviValues, &dviAt,
			&zStatus, &zScore, &zCur, &zAvg, &zStddev,
			&zPoints, &zRequired, &zStart, &zEnd,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fund metrics: %w", err)
		}

		if dviPoints != nil {
			m.Volatility = &domain.VolatilitySummary{
				Ticker:       m.Ticker,
				PeriodStart:  timeOrZero(dviStart),
				PeriodEnd:    timeOrZero(dviEnd),
				Values:       dviValues,
				DataPoints:   *dviPoints,
				Mean:         deref(dviMean),
				SampleStddev: deref(dviStddev),
				CVPercent:    deref(dviCV),
				Bucket:       domain.VolatilityBucket(derefString(dviBucket)),
				ComputedAt:   timeOrZero(dviAt),
			}
		}
		if zStatus != nil {
			m.ZScore = &domain.ZScoreResult{
				Ticker:     m.Ticker,
				Status:     *zStatus,
				ZScore:     zScore,
				CurrentPD:  deref(zCur),
				AvgPD:      deref(zAvg),
				StddevPD:   deref(zStddev),
				DataPoints: derefInt(zPoints),
				Required:   derefInt(zRequired),
				StartDate:  timeOrZero(zStart),
				EndDate:    timeOrZero(zEnd),
			}
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fund metrics: %w", err)
	}
	return result, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
