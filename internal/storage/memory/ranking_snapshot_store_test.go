package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

func TestRankingSnapshotStore_Latest(t *testing.T) {
	store := NewRankingSnapshotStore()
	ctx := context.Background()

	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	older := &domain.RankingSnapshot{SnapshotID: "s1", Category: "ETF", ComputedAt: t0, Funds: []domain.RankedFund{{Ticker: "A", Rank: 1}}}
	newer := &domain.RankingSnapshot{SnapshotID: "s2", Category: "ETF", ComputedAt: t0.Add(time.Hour), Funds: []domain.RankedFund{{Ticker: "B", Rank: 1}}}

	if err := store.Insert(ctx, newer); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, older); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetLatest(ctx, "ETF")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.SnapshotID != "s2" {
		t.Errorf("Expected s2, got %s", got.SnapshotID)
	}

	if err := store.Insert(ctx, newer); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetLatest(ctx, "CEF"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
