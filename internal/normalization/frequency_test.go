package normalization

import (
	"testing"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

func TestDetectFrequency_Buckets(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		gap  *int
		want domain.Frequency
	}{
		{nil, domain.FrequencyMonthly},
		{intPtr(0), domain.FrequencyWeekly},
		{intPtr(7), domain.FrequencyWeekly},
		{intPtr(10), domain.FrequencyWeekly},
		{intPtr(11), domain.FrequencyMonthly},
		{intPtr(30), domain.FrequencyMonthly},
		{intPtr(45), domain.FrequencyMonthly},
		{intPtr(46), domain.FrequencyQuarterly},
		{intPtr(91), domain.FrequencyQuarterly},
		{intPtr(135), domain.FrequencyQuarterly},
		{intPtr(136), domain.FrequencyAnnual},
		{intPtr(365), domain.FrequencyAnnual},
	}

	for _, tt := range tests {
		got := DetectFrequency(tt.gap, cfg)
		if got != tt.want {
			t.Errorf("DetectFrequency(%v) = %d, want %d", derefOr(tt.gap, -1), got, tt.want)
		}
	}
}

func derefOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func TestDetectForTicker_KnownWeekly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KnownWeeklyPayers = []string{"ULTY"}

	if got := detectForTicker("ULTY", 14, cfg); got != domain.FrequencyWeekly {
		t.Errorf("known weekly payer, gap 14: got %d, want 52", got)
	}
	if got := detectForTicker("ulty", 17, cfg); got != domain.FrequencyWeekly {
		t.Errorf("known weekly payer (case-insensitive), gap 17: got %d, want 52", got)
	}
	if got := detectForTicker("ULTY", 18, cfg); got != domain.FrequencyMonthly {
		t.Errorf("known weekly payer, gap 18: got %d, want 12", got)
	}
	if got := detectForTicker("JEPI", 14, cfg); got != domain.FrequencyMonthly {
		t.Errorf("other ticker, gap 14: got %d, want 12", got)
	}
}

func TestResolveFrequency(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		gapPrev *int
		gapNext *int
		want    domain.Frequency
	}{
		{"single event", nil, nil, domain.FrequencyMonthly},
		{"first event uses next gap", nil, intPtr(7), domain.FrequencyWeekly},
		{"last event uses prev gap", intPtr(91), nil, domain.FrequencyQuarterly},
		{"steady monthly", intPtr(30), intPtr(31), domain.FrequencyMonthly},
		{"monthly to weekly keeps old cadence", intPtr(31), intPtr(7), domain.FrequencyMonthly},
		{"weekly to monthly keeps old cadence", intPtr(7), intPtr(28), domain.FrequencyWeekly},
		{"jitter on prev side uses next", intPtr(3), intPtr(30), domain.FrequencyMonthly},
		{"jitter on next side uses prev", intPtr(30), intPtr(2), domain.FrequencyMonthly},
		{"jitter after quarterly keeps quarterly", intPtr(91), intPtr(2), domain.FrequencyQuarterly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFrequency("T", tt.gapPrev, tt.gapNext, cfg)
			if got != tt.want {
				t.Errorf("ResolveFrequency() = %d, want %d", got, tt.want)
			}
		})
	}
}
