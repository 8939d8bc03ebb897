package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir()) // no stray yieldrank.yaml
	t.Setenv("YIELDRANK_LOGGING_LEVEL", "error")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "yieldrank v"+Version)
}

func TestProcess_Fixtures(t *testing.T) {
	out, err := execute(t, "process", "--use-fixtures")
	require.NoError(t, err)

	for _, ticker := range []string{"BST", "JEPI", "PDI", "QYLD", "ULTY", "UTG"} {
		assert.Contains(t, out, ticker)
	}
	assert.Contains(t, out, "6 processed, 0 failed")
	assert.Contains(t, out, "Ranking: all funds")
}

func TestProcess_SelectedTickers(t *testing.T) {
	out, err := execute(t, "process", "--use-fixtures", "--ticker", "pdi")
	require.NoError(t, err)
	assert.Contains(t, out, "1 processed, 0 failed")
}

func TestRank_Fixtures(t *testing.T) {
	out, err := execute(t, "rank", "--use-fixtures", "--category", "CEF", "--weights", "40,20,40")
	require.NoError(t, err)

	assert.Contains(t, out, "Ranking: CEF (yield 40 / volatility 20 / return 40)")
	assert.Contains(t, out, "PDI")
	assert.NotContains(t, out, "JEPI")
}

func TestRank_InvalidInput(t *testing.T) {
	_, err := execute(t, "rank", "--use-fixtures", "--weights", "50,50")
	assert.Error(t, err)

	_, err = execute(t, "rank", "--use-fixtures", "--weights", "150,0,0")
	assert.Error(t, err)

	_, err = execute(t, "rank", "--use-fixtures", "--source", "beta")
	assert.Error(t, err)
}

func TestZScore_Fixtures(t *testing.T) {
	out, err := execute(t, "zscore", "--use-fixtures", "--ticker", "PDI")
	require.NoError(t, err)

	assert.Contains(t, out, domain.ZScoreStatusActive)
	assert.Contains(t, out, "Z-score")
}

func TestZScore_RequiresTicker(t *testing.T) {
	_, err := execute(t, "zscore", "--use-fixtures")
	assert.Error(t, err)
}

func TestReport_Fixtures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	out, err := execute(t, "report", "--use-fixtures", "--output-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "data version")

	for _, f := range []string{"rankings.csv", "volatility.csv", "RANKINGS.md", "rankings.xlsx"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "missing %s", f)
	}
}

func TestIngest_Dividends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dividends.csv")
	require.NoError(t, os.WriteFile(path, []byte("ticker,ex_date,amount\nPDI,2024-01-12,0.2205\nPDI,2024-02-12,bad\n"), 0644))

	out, err := execute(t, "ingest", "dividends", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 imported, 1 rejected")
	assert.True(t, strings.Contains(out, "REJECTED"))
}

func TestConfig_InvalidFile(t *testing.T) {
	_, err := execute(t, "version", "--config", "/nonexistent/yieldrank.yaml")
	assert.Error(t, err)
}

func TestParseWeights(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.RankWeights
		wantErr bool
	}{
		{"50,0,50", domain.RankWeights{Yield: 50, Volatility: 0, Return: 50}, false},
		{" 40, 20 ,40", domain.RankWeights{Yield: 40, Volatility: 20, Return: 40}, false},
		{"33.3,33.3,33.4", domain.RankWeights{Yield: 33.3, Volatility: 33.3, Return: 33.4}, false},
		{"50,50", domain.RankWeights{}, true},
		{"a,b,c", domain.RankWeights{}, true},
	}

	for _, tt := range tests {
		got, err := parseWeights(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
