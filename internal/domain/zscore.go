package domain

import "time"

// Z-score status values.
const (
	ZScoreStatusActive           = "active"
	ZScoreStatusInsufficientData = "insufficient_data"
)

// ZScoreResult is the premium/discount z-score of a fund.
type ZScoreResult struct {
	Ticker     string
	Status     string
	ZScore     *float64 // nil when Status is insufficient_data
	CurrentPD  float64  // price/nav - 1 at EndDate
	AvgPD      float64
	StddevPD   float64 // population stddev
	DataPoints int
	Required   int
	StartDate  time.Time
	EndDate    time.Time
}

// CurrentPDPct returns the current premium/discount in percent.
func (z *ZScoreResult) CurrentPDPct() float64 { return z.CurrentPD * 100 }

// AvgPDPct returns the average premium/discount in percent.
func (z *ZScoreResult) AvgPDPct() float64 { return z.AvgPD * 100 }

// StddevPDPct returns the stddev of the premium/discount in percent.
func (z *ZScoreResult) StddevPDPct() float64 { return z.StddevPD * 100 }
