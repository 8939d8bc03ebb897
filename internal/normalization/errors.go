package normalization

import "errors"

// Data-quality errors. Each rejects one record unless noted.
var (
	// ErrMissingExDate is returned for a record without an ex-date.
	ErrMissingExDate = errors.New("missing ex_date")

	// ErrMissingTicker is returned for a record without a ticker.
	ErrMissingTicker = errors.New("missing ticker")

	// ErrMissingID is returned for a record without an id.
	ErrMissingID = errors.New("missing record id")

	// ErrContractViolation is returned for any other failed field constraint.
	ErrContractViolation = errors.New("record contract violation")

	// ErrTickerMismatch is returned for a record filed under another ticker.
	ErrTickerMismatch = errors.New("ticker mismatch")

	// ErrInvalidAmount is returned for a negative amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDuplicateRecord is returned for a repeated record id.
	ErrDuplicateRecord = errors.New("duplicate record id")

	// ErrUnorderable is fatal for the ticker: a split-bearing record has no
	// ex-date, so the cumulative factor of every later event is unknown.
	ErrUnorderable = errors.New("unorderable split chain")

	// ErrInvalidSplitFactor is fatal for the ticker: a zero or negative split.
	ErrInvalidSplitFactor = errors.New("non-positive split factor")
)
