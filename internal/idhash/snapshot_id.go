package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ComputeSnapshotID computes a deterministic snapshot_id for a ranking run.
// Formula: SHA256(category|w_yield|w_volatility|w_return|computed_at_ms|sorted tickers)
// Returns hex-encoded hash (64 characters).
func ComputeSnapshotID(
	category string,
	weightYield, weightVolatility, weightReturn float64,
	computedAt time.Time,
	tickers []string,
) string {
	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)

	data := fmt.Sprintf("%s|%g|%g|%g|%d|%s",
		category,
		weightYield,
		weightVolatility,
		weightReturn,
		computedAt.UnixMilli(),
		strings.Join(sorted, ","),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
