package memory

import (
	"context"
	"sync"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// RankingSnapshotStore is an in-memory implementation of storage.RankingSnapshotStore.
type RankingSnapshotStore struct {
	mu     sync.RWMutex
	byID   map[string]struct{}
	latest map[string]*domain.RankingSnapshot // keyed by category
}

// NewRankingSnapshotStore creates a new in-memory ranking snapshot store.
func NewRankingSnapshotStore() *RankingSnapshotStore {
	return &RankingSnapshotStore{
		byID:   make(map[string]struct{}),
		latest: make(map[string]*domain.RankingSnapshot),
	}
}

// Insert adds a snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *RankingSnapshotStore) Insert(_ context.Context, snap *domain.RankingSnapshot) error {
	if snap == nil || snap.SnapshotID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[snap.SnapshotID]; exists {
		return storage.ErrDuplicateKey
	}
	s.byID[snap.SnapshotID] = struct{}{}

	if cur, ok := s.latest[snap.Category]; !ok || !snap.ComputedAt.Before(cur.ComputedAt) {
		s.latest[snap.Category] = copySnapshot(snap)
	}
	return nil
}

// GetLatest retrieves the most recent snapshot of a category. Returns ErrNotFound if none.
func (s *RankingSnapshotStore) GetLatest(_ context.Context, category string) (*domain.RankingSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.latest[category]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(snap), nil
}

func copySnapshot(s *domain.RankingSnapshot) *domain.RankingSnapshot {
	copy := *s
	copy.Funds = append([]domain.RankedFund(nil), s.Funds...)
	return &copy
}

var _ storage.RankingSnapshotStore = (*RankingSnapshotStore)(nil)
