package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ComputeDividendID computes a deterministic id for a raw dividend record
// that arrives without one (e.g. CSV imports).
// Formula: SHA256(TICKER|ex_date|raw_amount|source)
// Ticker is upper-cased; ex_date is formatted as YYYY-MM-DD (empty if zero);
// raw_amount uses its canonical decimal string so 0.10 and 0.1 match.
// Returns hex-encoded hash (64 characters).
func ComputeDividendID(
	ticker string,
	exDate time.Time,
	rawAmount decimal.Decimal,
	source string,
) string {
	dateStr := ""
	if !exDate.IsZero() {
		dateStr = exDate.UTC().Format("2006-01-02")
	}

	data := fmt.Sprintf("%s|%s|%s|%s",
		strings.ToUpper(ticker),
		dateStr,
		rawAmount.String(),
		source,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
