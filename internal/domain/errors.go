package domain

import "fmt"

// RecordError reports a single rejected input record.
// The rest of the ticker's history is still processed.
type RecordError struct {
	RecordID string
	Ticker   string
	Reason   string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s (%s): %s: %v", e.RecordID, e.Ticker, e.Reason, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// TickerError reports a failure that stops processing of one ticker.
// The ticker is excluded from ranking.
type TickerError struct {
	Ticker string
	Stage  string
	Err    error
}

func (e *TickerError) Error() string {
	return fmt.Sprintf("ticker %s: %s: %v", e.Ticker, e.Stage, e.Err)
}

func (e *TickerError) Unwrap() error { return e.Err }
