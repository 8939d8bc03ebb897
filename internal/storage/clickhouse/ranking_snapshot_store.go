package clickhouse

import (
	"context"
	"fmt"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// RankingSnapshotStore implements storage.RankingSnapshotStore using ClickHouse.
// A snapshot is stored as one row per ranked fund.
type RankingSnapshotStore struct {
	conn *Conn
}

// NewRankingSnapshotStore creates a new RankingSnapshotStore.
func NewRankingSnapshotStore(conn *Conn) *RankingSnapshotStore {
	return &RankingSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RankingSnapshotStore = (*RankingSnapshotStore)(nil)

// Insert adds a snapshot. Returns ErrDuplicateKey if snapshot_id exists.
// A snapshot with no funds has no rows and is not recorded.
func (s *RankingSnapshotStore) Insert(ctx context.Context, snap *domain.RankingSnapshot) error {
	if snap == nil || snap.SnapshotID == "" {
		return storage.ErrInvalidInput
	}
	if len(snap.Funds) == 0 {
		return nil
	}

	// MergeTree does not enforce keys; check explicitly for append-only semantics.
	exists, err := s.exists(ctx, snap.SnapshotID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ranking_snapshots (
			snapshot_id, category, computed_at,
			weight_yield, weight_volatility, weight_return,
			ticker, position, rank,
			yield_value, volatility_value, return_value,
			yield_score, volatility_score, return_score, composite_score
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, f := range snap.Funds {
		err = batch.Append(
			snap.SnapshotID, snap.Category, snap.ComputedAt,
			snap.Weights.Yield, snap.Weights.Volatility, snap.Weights.Return,
			f.Ticker, uint32(i), uint32(f.Rank),
			f.YieldValue, f.VolatilityValue, f.ReturnValue,
			f.YieldScore, f.VolatilityScore, f.ReturnScore, f.CompositeScore,
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

// GetLatest retrieves the most recent snapshot of a category. Returns ErrNotFound if none.
func (s *RankingSnapshotStore) GetLatest(ctx context.Context, category string) (*domain.RankingSnapshot, error) {
	query := `
		SELECT
			snapshot_id, category, computed_at,
			weight_yield, weight_volatility, weight_return,
			ticker, rank,
			yield_value, volatility_value, return_value,
			yield_score, volatility_score, return_score, composite_score
		FROM ranking_snapshots FINAL
		WHERE category = ? AND snapshot_id = (
			SELECT snapshot_id FROM ranking_snapshots
			WHERE category = ?
			ORDER BY computed_at DESC, snapshot_id DESC
			LIMIT 1
		)
		ORDER BY position ASC
	`

	rows, err := s.conn.Query(ctx, query, category, category)
	if err != nil {
		return nil, fmt.Errorf("query ranking snapshot: %w", err)
	}
	defer rows.Close()

	var snap *domain.RankingSnapshot
	for rows.Next() {
		var (
			cur  domain.RankingSnapshot
			f    domain.RankedFund
			rank uint32
		)
		if err := rows.Scan(
			&cur.SnapshotID, &cur.Category, &cur.ComputedAt,
			&cur.Weights.Yield, &cur.Weights.Volatility, &cur.Weights.Return,
			&f.Ticker, &rank,
			&f.YieldValue, &f.VolatilityValue, &f.ReturnValue,
			&f.YieldScore, &f.VolatilityScore, &f.ReturnScore, &f.CompositeScore,
		); err != nil {
			return nil, fmt.Errorf("scan ranking snapshot: %w", err)
		}
		if snap == nil {
			cur.ComputedAt = cur.ComputedAt.UTC()
			snap = &cur
		}
		f.Rank = int(rank)
		snap.Funds = append(snap.Funds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranking snapshot: %w", err)
	}
	if snap == nil {
		return nil, storage.ErrNotFound
	}
	return snap, nil
}

func (s *RankingSnapshotStore) exists(ctx context.Context, snapshotID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM ranking_snapshots WHERE snapshot_id = ?`, snapshotID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
