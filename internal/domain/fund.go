package domain

import "time"

// FundProfile describes a fund in the ranking universe.
type FundProfile struct {
	Ticker      string
	Name        string
	Category    string // sub-universe name, e.g. "CEF" or "ETF"
	NavSymbol   string // ticker of the NAV series, empty if none
	Yield       *float64
	TotalReturn *float64
}

// PricePoint is one daily close.
type PricePoint struct {
	Symbol string
	Date   time.Time
	Close  float64
}

// FundMetrics is the persisted metric row for one ticker.
// Corresponds to the fund_metrics table.
type FundMetrics struct {
	Ticker     string
	Volatility *VolatilitySummary
	ZScore     *ZScoreResult
	UpdatedAt  time.Time
}
