// Package ingest loads dividend, fund and price histories from CSV exports.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rejection reasons reported in domain.RecordError.
const (
	ReasonParse      = "parse error"
	ReasonValidation = "validation"
)

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing column")

const dateLayout = "2006-01-02"

// table is a header-indexed CSV reader.
type table struct {
	reader  *csv.Reader
	columns map[string]int
	line    int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	return &table{reader: reader, columns: columns, line: 1}, nil
}

// next returns the next row, or io.EOF.
func (t *table) next() (row, error) {
	record, err := t.reader.Read()
	if err != nil {
		return row{}, err
	}
	t.line++
	return row{fields: record, columns: t.columns, line: t.line}, nil
}

type row struct {
	fields  []string
	columns map[string]int
	line    int
}

// get returns the trimmed value of a column, empty when absent.
func (r row) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) date(name string) (time.Time, error) {
	s := r.get(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func (r row) decimal(name string) (decimal.Decimal, error) {
	s := r.get(name)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%s: empty", name)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func (r row) nullDecimal(name string) (decimal.NullDecimal, error) {
	if r.get(name) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := r.decimal(name)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func (r row) optFloat(name string) (*float64, error) {
	s := r.get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &v, nil
}
