package ranking

import (
	"fmt"
	"math"
	"testing"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

func fp(v float64) *float64 { return &v }

func TestRank_ScenarioD_TiesShareRank(t *testing.T) {
	// Twelve funds ranked on yield alone; F03 and F04 tie.
	yields := []float64{12, 11, 10, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	inputs := make([]*domain.RankInput, len(yields))
	for i, y := range yields {
		inputs[i] = &domain.RankInput{Ticker: fmt.Sprintf("F%02d", i+1), Yield: fp(y)}
	}

	funds := Rank(inputs, domain.RankWeights{Yield: 100}, DefaultEpsilon)

	wantRanks := []int{1, 2, 3, 3, 5, 6, 7, 8, 9, 10, 11, 12}
	if len(funds) != len(wantRanks) {
		t.Fatalf("expected %d funds, got %d", len(wantRanks), len(funds))
	}
	for i, f := range funds {
		if f.Rank != wantRanks[i] {
			t.Errorf("position %d (%s): rank = %d, want %d", i, f.Ticker, f.Rank, wantRanks[i])
		}
	}
	if funds[2].Ticker != "F03" || funds[3].Ticker != "F04" {
		t.Errorf("tie should be broken by ticker ASC, got %s, %s", funds[2].Ticker, funds[3].Ticker)
	}
}

func TestRank_CompositeAndMissingValues(t *testing.T) {
	inputs := []*domain.RankInput{
		{Ticker: "A", Yield: fp(10), Volatility: fp(5), Return: fp(20)},
		{Ticker: "B", Yield: fp(5), Volatility: fp(15), Return: fp(10)},
		{Ticker: "C", Return: fp(15)},
	}

	funds := Rank(inputs, domain.RankWeights{Yield: 40, Volatility: 20, Return: 40}, DefaultEpsilon)

	want := []struct {
		ticker    string
		yield     float64
		vol       float64
		ret       float64
		composite float64
		rank      int
	}{
		{"A", 1, 1, 1, 1.0, 1},
		{"C", 0, 0.5, 0.5, 0.3, 2},
		{"B", 0, 0, 0, 0, 3},
	}

	for i, w := range want {
		f := funds[i]
		if f.Ticker != w.ticker {
			t.Fatalf("position %d: ticker = %s, want %s", i, f.Ticker, w.ticker)
		}
		if math.Abs(f.YieldScore-w.yield) > 1e-9 || math.Abs(f.VolatilityScore-w.vol) > 1e-9 || math.Abs(f.ReturnScore-w.ret) > 1e-9 {
			t.Errorf("%s: scores = (%f, %f, %f), want (%f, %f, %f)",
				f.Ticker, f.YieldScore, f.VolatilityScore, f.ReturnScore, w.yield, w.vol, w.ret)
		}
		if math.Abs(f.CompositeScore-w.composite) > 1e-9 {
			t.Errorf("%s: composite = %f, want %f", f.Ticker, f.CompositeScore, w.composite)
		}
		if f.Rank != w.rank {
			t.Errorf("%s: rank = %d, want %d", f.Ticker, f.Rank, w.rank)
		}
	}
	if funds[1].YieldValue != nil {
		t.Error("missing yield should stay nil in output")
	}
}

func TestRank_NoSpreadIsNeutral(t *testing.T) {
	inputs := []*domain.RankInput{
		{Ticker: "ONLY", Yield: fp(8), Volatility: fp(12), Return: fp(4)},
	}

	funds := Rank(inputs, domain.DefaultRankWeights(), DefaultEpsilon)
	if len(funds) != 1 {
		t.Fatalf("expected 1 fund, got %d", len(funds))
	}
	f := funds[0]
	if f.YieldScore != 0.5 || f.VolatilityScore != 0.5 || f.ReturnScore != 0.5 {
		t.Errorf("expected neutral scores, got (%f, %f, %f)", f.YieldScore, f.VolatilityScore, f.ReturnScore)
	}
	if f.CompositeScore != 0.5 || f.Rank != 1 {
		t.Errorf("expected composite 0.5 rank 1, got %f rank %d", f.CompositeScore, f.Rank)
	}
}

func TestRank_NaNTreatedAsMissing(t *testing.T) {
	inputs := []*domain.RankInput{
		{Ticker: "A", Yield: fp(math.NaN())},
		{Ticker: "B", Yield: fp(4)},
		{Ticker: "C", Yield: fp(2)},
	}

	funds := Rank(inputs, domain.RankWeights{Yield: 100}, DefaultEpsilon)
	if funds[0].Ticker != "B" || funds[2].Ticker != "A" {
		t.Errorf("unexpected order: %s, %s, %s", funds[0].Ticker, funds[1].Ticker, funds[2].Ticker)
	}
	if funds[2].YieldValue != nil || funds[2].YieldScore != 0 {
		t.Errorf("NaN yield should be missing, got value %v score %f", funds[2].YieldValue, funds[2].YieldScore)
	}
}

func TestRank_EmptyUniverse(t *testing.T) {
	funds := Rank(nil, domain.DefaultRankWeights(), DefaultEpsilon)
	if funds == nil || len(funds) != 0 {
		t.Errorf("expected empty non-nil list, got %v", funds)
	}
}

func TestAssignRanks_Epsilon(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []int
	}{
		{"distinct", []float64{0.9, 0.8, 0.7}, []int{1, 2, 3}},
		{"within epsilon", []float64{0.9, 0.89995, 0.8}, []int{1, 1, 3}},
		{"beyond epsilon", []float64{0.9, 0.8998, 0.8}, []int{1, 2, 3}},
		{"two groups", []float64{0.9, 0.9, 0.8, 0.8, 0.7}, []int{1, 1, 3, 3, 5}},
		{"empty", nil, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assignRanks(tt.values, DefaultEpsilon)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ranks = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestRankByMetric_LowerIsBetter(t *testing.T) {
	values := map[string]*float64{
		"A": fp(-1.5),
		"B": fp(0.3),
		"C": fp(-1.5),
		"D": nil,
		"E": fp(math.NaN()),
	}

	rows := RankByMetric(values, true, DefaultEpsilon)

	want := []MetricRank{
		{Ticker: "A", Value: -1.5, Rank: 1},
		{Ticker: "C", Value: -1.5, Rank: 1},
		{Ticker: "B", Value: 0.3, Rank: 3},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestRankByMetric_HigherIsBetter(t *testing.T) {
	rows := RankByMetric(map[string]*float64{"A": fp(1), "B": fp(3), "C": fp(2)}, false, DefaultEpsilon)
	if rows[0].Ticker != "B" || rows[1].Ticker != "C" || rows[2].Ticker != "A" {
		t.Errorf("unexpected order: %+v", rows)
	}
}
