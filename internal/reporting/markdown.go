package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Fund Rankings\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Funds | %d |\n", r.DataSummary.TotalFunds))
	sb.WriteString(fmt.Sprintf("| Categories | %d |\n", r.DataSummary.Categories))
	sb.WriteString(fmt.Sprintf("| Funds with DVI | %d |\n", r.DataSummary.FundsWithVolatility))
	sb.WriteString(fmt.Sprintf("| Funds with Z-Score | %d |\n", r.DataSummary.FundsWithZScore))
	sb.WriteString(fmt.Sprintf("| Period Start | %s |\n", formatDate(r.DataSummary.PeriodStart)))
	sb.WriteString(fmt.Sprintf("| Period End | %s |\n", formatDate(r.DataSummary.PeriodEnd)))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.CoverageChecks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.CoverageChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")
	} else if len(r.DataQuality.Failures) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Failed tickers (always shown if present)
	if len(r.DataQuality.Failures) > 0 {
		sb.WriteString("### Failed Tickers\n\n")
		for _, f := range r.DataQuality.Failures {
			sb.WriteString(fmt.Sprintf("- %s\n", f))
		}
		sb.WriteString("\n")
	}

	// Rankings
	for _, s := range r.Rankings {
		name := s.Category
		if name == "" {
			name = "All Funds"
		}
		sb.WriteString(fmt.Sprintf("## Ranking: %s\n\n", name))
		sb.WriteString(fmt.Sprintf("Weights: yield %.0f%% | volatility %.0f%% | return %.0f%%\n\n",
			s.Weights.Yield, s.Weights.Volatility, s.Weights.Return))
		if len(s.Rows) == 0 {
			sb.WriteString("No eligible funds.\n\n")
			continue
		}
		sb.WriteString("| Rank | Ticker | Yield | Volatility | Return | Composite | Bucket |\n")
		sb.WriteString("|------|--------|-------|------------|--------|-----------|--------|\n")
		for _, row := range s.Rows {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %.4f | %s |\n",
				row.Rank, row.Ticker,
				orDash(optFloat(row.Yield, "%.2f")),
				orDash(optFloat(row.Volatility, "%.2f")),
				orDash(optFloat(row.Return, "%.2f")),
				row.CompositeScore,
				orDash(string(row.Bucket))))
		}
		sb.WriteString("\n")
	}

	// Volatility
	sb.WriteString("## Dividend Volatility\n\n")
	if len(r.Volatility) > 0 {
		sb.WriteString("| Ticker | Points | Mean | Stddev | CV% | Bucket |\n")
		sb.WriteString("|--------|--------|------|--------|-----|--------|\n")
		for _, v := range r.Volatility {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.2f | %s |\n",
				v.Ticker, v.DataPoints, v.Mean, v.SampleStddev, v.CVPercent, v.Bucket))
		}
	} else {
		sb.WriteString("No volatility data available.\n")
	}
	sb.WriteString("\n")

	// Z-scores
	if len(r.ZScores) > 0 {
		sb.WriteString("## Premium/Discount Z-Score\n\n")
		sb.WriteString("| Ticker | Status | Z | Current% | Avg% | Stddev% | Points |\n")
		sb.WriteString("|--------|--------|---|----------|------|---------|--------|\n")
		for _, z := range r.ZScores {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.2f | %.2f | %.2f | %d |\n",
				z.Ticker, z.Status, orDash(optFloat(z.ZScore, "%.3f")),
				z.CurrentPDPct, z.AvgPDPct, z.StddevPDPct, z.DataPoints))
		}
		sb.WriteString("\n")
	}

	// Reproducibility
	rep := r.Reproducibility
	if rep.DataVersion != "" {
		sb.WriteString("## Reproducibility\n\n")
		sb.WriteString(fmt.Sprintf("- Report timestamp: %s\n", rep.ReportTimestamp.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("- Generator version: %s\n", rep.GeneratorVersion))
		sb.WriteString(fmt.Sprintf("- Data version: %s\n", rep.DataVersion))
		sb.WriteString(fmt.Sprintf("- Commit: %s\n", rep.ReplayCommitHash))
		sb.WriteString(fmt.Sprintf("- Replay: `%s`\n", rep.ReplayCommand))
	}

	return sb.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
