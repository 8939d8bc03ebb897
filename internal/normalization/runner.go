package normalization

import (
	"context"
	"fmt"
)

// NormalizeTicker rebuilds one ticker's processed series.
// Steps:
//  1. Load raw records from the store
//  2. Validate, order, split chain, classify, normalize
//  3. Replace the ticker's processed series in the store
func (r *Runner) NormalizeTicker(ctx context.Context, ticker string) (*Result, error) {
	records, err := r.rawStore.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load raw dividends: %w", err)
	}

	result, err := Process(ticker, records, r.cfg)
	if err != nil {
		return result, err
	}

	written, err := r.dividendStore.WriteDividendBatch(ctx, ticker, result.Events)
	if err != nil {
		return result, fmt.Errorf("write dividends: %w", err)
	}
	result.Written = written

	return result, nil
}
