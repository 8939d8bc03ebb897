package reporting

import (
	"fmt"
	"strings"
)

// RenderRankingsCSV renders ranking sections as CSV string.
// Missing values are empty cells.
func RenderRankingsCSV(sections []RankingSection) string {
	var sb strings.Builder

	// Header
	sb.WriteString("category,rank,ticker,yield,volatility,return,")
	sb.WriteString("yield_score,volatility_score,return_score,composite_score,bucket\n")

	// Rows
	for _, s := range sections {
		for _, r := range s.Rows {
			sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%s\n",
				s.Category,
				r.Rank,
				r.Ticker,
				optFloat(r.Yield, "%.6f"),
				optFloat(r.Volatility, "%.6f"),
				optFloat(r.Return, "%.6f"),
				r.YieldScore,
				r.VolatilityScore,
				r.ReturnScore,
				r.CompositeScore,
				r.Bucket,
			))
		}
	}

	return sb.String()
}

// RenderVolatilityCSV renders DVI summaries as CSV string.
func RenderVolatilityCSV(rows []VolatilityRow) string {
	var sb strings.Builder

	sb.WriteString("ticker,data_points,mean,sample_stddev,cv_percent,bucket,period_start,period_end\n")
	for _, v := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%.6f,%.6f,%.4f,%s,%s,%s\n",
			v.Ticker,
			v.DataPoints,
			v.Mean,
			v.SampleStddev,
			v.CVPercent,
			v.Bucket,
			v.PeriodStart.Format("2006-01-02"),
			v.PeriodEnd.Format("2006-01-02"),
		))
	}

	return sb.String()
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(format, *v)
}
