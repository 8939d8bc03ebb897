package normalization

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRecords splits a ticker's raw records into accepted ones and
// rejected ones. A non-nil error is fatal for the whole ticker.
func ValidateRecords(ticker string, records []*domain.RawDividend) ([]*domain.RawDividend, []*domain.RecordError, error) {
	accepted := make([]*domain.RawDividend, 0, len(records))
	var rejected []*domain.RecordError

	reject := func(r *domain.RawDividend, reason string, err error) {
		rejected = append(rejected, &domain.RecordError{
			RecordID: r.ID,
			Ticker:   ticker,
			Reason:   reason,
			Err:      err,
		})
	}

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		if err := validate.Struct(r); err != nil {
			reject(r, "contract violation", fmt.Errorf("%w: %v", contractError(err), err))
			continue
		}
		if r.Ticker != ticker {
			reject(r, "contract violation", fmt.Errorf("%w: got %s", ErrTickerMismatch, r.Ticker))
			continue
		}
		if r.SplitFactor.Valid && !r.SplitFactor.Decimal.IsPositive() {
			return nil, rejected, fmt.Errorf("record %s: %w: %s", r.ID, ErrInvalidSplitFactor, r.SplitFactor.Decimal)
		}
		if !r.HasExDate() {
			if r.HasSplit() {
				return nil, rejected, fmt.Errorf("record %s: %w", r.ID, ErrUnorderable)
			}
			reject(r, "data quality", ErrMissingExDate)
			continue
		}
		if r.RawAmount.IsNegative() {
			reject(r, "data quality", fmt.Errorf("%w: %s", ErrInvalidAmount, r.RawAmount))
			continue
		}
		if _, dup := seen[r.ID]; dup {
			reject(r, "data quality", ErrDuplicateRecord)
			continue
		}
		seen[r.ID] = struct{}{}
		accepted = append(accepted, r)
	}

	return accepted, rejected, nil
}

// contractError maps a validator failure to the sentinel of its first failing field.
func contractError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrContractViolation
	}
	switch verrs[0].Field() {
	case "Ticker":
		return ErrMissingTicker
	case "ID":
		return ErrMissingID
	default:
		return ErrContractViolation
	}
}
