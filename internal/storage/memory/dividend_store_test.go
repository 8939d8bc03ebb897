package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

func TestDividendStore_WriteReplacesSeries(t *testing.T) {
	store := NewDividendStore()
	ctx := context.Background()

	gap := 30
	first := []*domain.DividendEvent{
		{ID: "a", Ticker: "JEPI", ExDate: day(2024, 1, 2), PaymentType: domain.PaymentInitial},
		{ID: "b", Ticker: "JEPI", ExDate: day(2024, 2, 1), DaysSincePrev: &gap, PaymentType: domain.PaymentRegular},
	}
	n, err := store.WriteDividendBatch(ctx, "JEPI", first)
	if err != nil {
		t.Fatalf("WriteDividendBatch failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 written, got %d", n)
	}

	rebuilt := []*domain.DividendEvent{
		{ID: "a", Ticker: "JEPI", ExDate: day(2024, 1, 2), Annualized: decimal.NewFromInt(4)},
	}
	if _, err := store.WriteDividendBatch(ctx, "JEPI", rebuilt); err != nil {
		t.Fatalf("WriteDividendBatch failed: %v", err)
	}

	got, err := store.GetByTicker(ctx, "JEPI")
	if err != nil {
		t.Fatalf("GetByTicker failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected rebuilt series of 1, got %d", len(got))
	}
	if !got[0].Annualized.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected annualized 4, got %s", got[0].Annualized)
	}
}

func TestDividendStore_CopiesDaysSincePrev(t *testing.T) {
	store := NewDividendStore()
	ctx := context.Background()

	gap := 30
	_, _ = store.WriteDividendBatch(ctx, "JEPI", []*domain.DividendEvent{
		{ID: "b", Ticker: "JEPI", DaysSincePrev: &gap},
	})
	gap = 1

	got, _ := store.GetByTicker(ctx, "JEPI")
	if *got[0].DaysSincePrev != 30 {
		t.Errorf("Expected stored gap 30, got %d", *got[0].DaysSincePrev)
	}
}

func TestDividendStore_RejectsForeignTicker(t *testing.T) {
	store := NewDividendStore()

	_, err := store.WriteDividendBatch(context.Background(), "JEPI", []*domain.DividendEvent{
		{ID: "x", Ticker: "QYLD"},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
