package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/idhash"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// Result summarizes one import.
type Result struct {
	Imported int
	Rejected []*domain.RecordError
}

// Importer writes CSV rows into the stores.
// Malformed rows are rejected individually; the rest of the file is imported.
type Importer struct {
	rawStore   storage.RawDividendStore
	fundStore  storage.FundStore
	priceStore storage.PriceStore
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewImporter creates an importer. Any store may be nil if the matching
// import is never used.
func NewImporter(raw storage.RawDividendStore, funds storage.FundStore, prices storage.PriceStore, logger zerolog.Logger) *Importer {
	return &Importer{
		rawStore:   raw,
		fundStore:  funds,
		priceStore: prices,
		validate:   validator.New(),
		logger:     logger,
	}
}

// ImportDividends reads raw dividends with columns
// ticker, ex_date, amount and optional id, adj_amount, scaled_amount, split_factor.
// Rows without an id get a content-derived id tagged with source.
// Records are upserted so re-importing a corrected feed replaces earlier rows.
func (im *Importer) ImportDividends(ctx context.Context, r io.Reader, source string) (*Result, error) {
	t, err := newTable(r, "ticker", "ex_date", "amount")
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("line %d: %w", t.line+1, err)
		}

		rec, err := parseDividend(row, source)
		if err != nil {
			result.reject(rowID(row), row.get("ticker"), ReasonParse, err)
			continue
		}
		if err := im.validate.Struct(rec); err != nil {
			result.reject(rec.ID, rec.Ticker, ReasonValidation, err)
			continue
		}
		if err := im.rawStore.Upsert(ctx, rec); err != nil {
			return result, fmt.Errorf("upsert %s: %w", rec.ID, err)
		}
		result.Imported++
	}

	im.logger.Info().
		Str("source", source).
		Int("imported", result.Imported).
		Int("rejected", len(result.Rejected)).
		Msg("Dividends imported")
	return result, nil
}

func parseDividend(row row, source string) (*domain.RawDividend, error) {
	exDate, err := row.date("ex_date")
	if err != nil {
		return nil, err
	}
	amount, err := row.decimal("amount")
	if err != nil {
		return nil, err
	}

	rec := &domain.RawDividend{
		ID:        row.get("id"),
		Ticker:    strings.ToUpper(row.get("ticker")),
		ExDate:    exDate,
		RawAmount: amount,
	}
	if rec.AdjustedAmount, err = row.nullDecimal("adj_amount"); err != nil {
		return nil, err
	}
	if rec.ScaledAmount, err = row.nullDecimal("scaled_amount"); err != nil {
		return nil, err
	}
	if rec.SplitFactor, err = row.nullDecimal("split_factor"); err != nil {
		return nil, err
	}

	if rec.ID == "" && rec.Ticker != "" {
		rec.ID = idhash.ComputeDividendID(rec.Ticker, rec.ExDate, rec.RawAmount, source)
	}
	return rec, nil
}

// ImportFunds reads fund profiles with columns
// ticker, category and optional name, nav_symbol, yield, total_return.
func (im *Importer) ImportFunds(ctx context.Context, r io.Reader) (*Result, error) {
	t, err := newTable(r, "ticker", "category")
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("line %d: %w", t.line+1, err)
		}

		f, err := parseFund(row)
		if err != nil {
			result.reject(rowID(row), row.get("ticker"), ReasonParse, err)
			continue
		}
		if err := im.fundStore.Upsert(ctx, f); err != nil {
			return result, fmt.Errorf("upsert fund %s: %w", f.Ticker, err)
		}
		result.Imported++
	}

	im.logger.Info().Int("imported", result.Imported).Int("rejected", len(result.Rejected)).Msg("Funds imported")
	return result, nil
}

func parseFund(row row) (*domain.FundProfile, error) {
	f := &domain.FundProfile{
		Ticker:    strings.ToUpper(row.get("ticker")),
		Name:      row.get("name"),
		Category:  row.get("category"),
		NavSymbol: strings.ToUpper(row.get("nav_symbol")),
	}
	if f.Ticker == "" {
		return nil, errors.New("ticker: empty")
	}
	var err error
	if f.Yield, err = row.optFloat("yield"); err != nil {
		return nil, err
	}
	if f.TotalReturn, err = row.optFloat("total_return"); err != nil {
		return nil, err
	}
	return f, nil
}

// ImportPrices reads daily closes with columns symbol, date, close.
// Points are written in one batch.
func (im *Importer) ImportPrices(ctx context.Context, r io.Reader) (*Result, error) {
	t, err := newTable(r, "symbol", "date", "close")
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var points []*domain.PricePoint
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("line %d: %w", t.line+1, err)
		}

		p, err := parsePrice(row)
		if err != nil {
			result.reject(rowID(row), row.get("symbol"), ReasonParse, err)
			continue
		}
		points = append(points, p)
	}

	if len(points) > 0 {
		if err := im.priceStore.InsertBulk(ctx, points); err != nil {
			return result, fmt.Errorf("insert prices: %w", err)
		}
	}
	result.Imported = len(points)

	im.logger.Info().Int("imported", result.Imported).Int("rejected", len(result.Rejected)).Msg("Prices imported")
	return result, nil
}

func parsePrice(row row) (*domain.PricePoint, error) {
	symbol := strings.ToUpper(row.get("symbol"))
	if symbol == "" {
		return nil, errors.New("symbol: empty")
	}
	date, err := row.date("date")
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, errors.New("date: empty")
	}
	closeValue, err := strconv.ParseFloat(row.get("close"), 64)
	if err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	return &domain.PricePoint{Symbol: symbol, Date: date, Close: closeValue}, nil
}

func (r *Result) reject(id, ticker, reason string, err error) {
	r.Rejected = append(r.Rejected, &domain.RecordError{
		RecordID: id,
		Ticker:   ticker,
		Reason:   reason,
		Err:      err,
	})
}

// rowID identifies a rejected row that has no usable id.
func rowID(r row) string {
	if id := r.get("id"); id != "" {
		return id
	}
	return fmt.Sprintf("line %d", r.line)
}
