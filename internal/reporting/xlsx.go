package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetRankings   = "Rankings"
	sheetVolatility = "Volatility"
	sheetZScore     = "ZScore"
)

// WriteWorkbook writes the report as an XLSX workbook with one sheet per table.
func WriteWorkbook(r *Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetRankings); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rankRows := [][]interface{}{{
		"Category", "Rank", "Ticker", "Yield", "Volatility", "Return",
		"Yield Score", "Volatility Score", "Return Score", "Composite", "Bucket",
	}}
	for _, s := range r.Rankings {
		for _, row := range s.Rows {
			rankRows = append(rankRows, []interface{}{
				s.Category, row.Rank, row.Ticker,
				cellFloat(row.Yield), cellFloat(row.Volatility), cellFloat(row.Return),
				row.YieldScore, row.VolatilityScore, row.ReturnScore, row.CompositeScore,
				string(row.Bucket),
			})
		}
	}
	if err := writeRows(f, sheetRankings, rankRows); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetVolatility); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetVolatility, err)
	}
	volRows := [][]interface{}{{
		"Ticker", "Data Points", "Mean", "Sample Stddev", "CV %", "Bucket", "Period Start", "Period End",
	}}
	for _, v := range r.Volatility {
		volRows = append(volRows, []interface{}{
			v.Ticker, v.DataPoints, v.Mean, v.SampleStddev, v.CVPercent, string(v.Bucket),
			v.PeriodStart.Format("2006-01-02"), v.PeriodEnd.Format("2006-01-02"),
		})
	}
	if err := writeRows(f, sheetVolatility, volRows); err != nil {
		return err
	}

	if len(r.ZScores) > 0 {
		if _, err := f.NewSheet(sheetZScore); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheetZScore, err)
		}
		zRows := [][]interface{}{{
			"Ticker", "Status", "Z-Score", "Current PD %", "Avg PD %", "Stddev PD %", "Data Points",
		}}
		for _, z := range r.ZScores {
			zRows = append(zRows, []interface{}{
				z.Ticker, z.Status, cellFloat(z.ZScore), z.CurrentPDPct, z.AvgPDPct, z.StddevPDPct, z.DataPoints,
			})
		}
		if err := writeRows(f, sheetZScore, zRows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cellFloat returns an empty cell for missing values.
func cellFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
