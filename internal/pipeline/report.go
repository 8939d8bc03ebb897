package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/reporting"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// GeneratorVersion is recorded in every report for reproducibility.
const GeneratorVersion = "1.0.0"

// Output file names.
const (
	RankingsCSVFile   = "rankings.csv"
	VolatilityCSVFile = "volatility.csv"
	RankingsMDFile    = "RANKINGS.md"
	RankingsXLSXFile  = "rankings.xlsx"
)

// ReportPipeline renders ranking snapshots and stored metrics into output files.
type ReportPipeline struct {
	reportGen       *reporting.Generator
	coverageChecker *CoverageChecker // optional
	outputDir       string
	clock           func() time.Time
	failures        []string // per-ticker failures of the preceding batch
	dataSource      string   // "fixtures" or "db" for replay command
	postgresDSN     string
	clickhouseDSN   string
}

// NewReportPipeline creates a new pipeline.
func NewReportPipeline(fundStore storage.FundStore, metricsStore storage.MetricsStore, outputDir string) *ReportPipeline {
	return &ReportPipeline{
		reportGen: reporting.NewGenerator(fundStore, metricsStore),
		outputDir: outputDir,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithCoverageChecker adds data coverage checks to the report.
func (p *ReportPipeline) WithCoverageChecker(c *CoverageChecker) *ReportPipeline {
	p.coverageChecker = c
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReportPipeline) WithClock(clock func() time.Time) *ReportPipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithFailures adds per-ticker failures to include in the data quality section.
func (p *ReportPipeline) WithFailures(failures []*domain.TickerError) *ReportPipeline {
	for _, f := range failures {
		p.failures = append(p.failures, f.Error())
	}
	return p
}

// WithDataSource sets the data source for reproducibility metadata.
// Use "fixtures" for fixture mode. For DB mode, use WithDBSource instead.
func (p *ReportPipeline) WithDataSource(source string) *ReportPipeline {
	p.dataSource = source
	return p
}

// WithDBSource sets the data source to DB mode with DSN values for the replay command.
func (p *ReportPipeline) WithDBSource(postgresDSN, clickhouseDSN string) *ReportPipeline {
	p.dataSource = "db"
	p.postgresDSN = postgresDSN
	p.clickhouseDSN = clickhouseDSN
	return p
}

// Run generates the report and writes output files:
// - rankings.csv
// - volatility.csv
// - RANKINGS.md
// - rankings.xlsx
func (p *ReportPipeline) Run(ctx context.Context, snapshots []*domain.RankingSnapshot) (*reporting.Report, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, err
	}

	report, err := p.reportGen.Generate(ctx, snapshots)
	if err != nil {
		return nil, err
	}

	dataQuality := reporting.DataQualitySection{AllChecksPassed: true}
	if p.coverageChecker != nil {
		result, err := p.coverageChecker.Check(ctx)
		if err != nil {
			return nil, fmt.Errorf("coverage check: %w", err)
		}
		dataQuality = convertToDataQuality(result)
	}
	if len(p.failures) > 0 {
		failures := append([]string(nil), p.failures...)
		sort.Strings(failures)
		dataQuality.Failures = append(dataQuality.Failures, failures...)
		dataQuality.AllChecksPassed = false
	}
	report.DataQuality = dataQuality

	p.populateReproducibility(report)

	rankingsCSV := reporting.RenderRankingsCSV(report.Rankings)
	if err := p.writeFile(RankingsCSVFile, rankingsCSV); err != nil {
		return nil, err
	}

	volCSV := reporting.RenderVolatilityCSV(report.Volatility)
	if err := p.writeFile(VolatilityCSVFile, volCSV); err != nil {
		return nil, err
	}

	if err := p.writeFile(RankingsMDFile, reporting.RenderMarkdown(report)); err != nil {
		return nil, err
	}

	if err := reporting.WriteWorkbook(report, filepath.Join(p.outputDir, RankingsXLSXFile)); err != nil {
		return nil, err
	}

	return report, nil
}

func (p *ReportPipeline) writeFile(name, content string) error {
	path := filepath.Join(p.outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// populateReproducibility fills in reproducibility metadata.
func (p *ReportPipeline) populateReproducibility(report *reporting.Report) {
	report.Reproducibility = reporting.ReproducibilityMetadata{
		ReportTimestamp:  p.clock(),
		GeneratorVersion: GeneratorVersion,
		DataVersion:      computeDataVersion(report),
		ReplayCommitHash: getGitCommitHash(),
		ReplayCommand:    p.buildReplayCommand(),
	}
}

// buildReplayCommand returns the command to reproduce this report.
func (p *ReportPipeline) buildReplayCommand() string {
	switch p.dataSource {
	case "db":
		cmd := fmt.Sprintf("YIELDRANK_STORAGE_MODE=db YIELDRANK_STORAGE_POSTGRES_DSN=%q", redactDSN(p.postgresDSN))
		if p.clickhouseDSN != "" {
			cmd += fmt.Sprintf(" YIELDRANK_STORAGE_CLICKHOUSE_DSN=%q", redactDSN(p.clickhouseDSN))
		}
		return cmd + " yieldrank report"
	default:
		return "yieldrank report --use-fixtures"
	}
}

// redactDSN masks the password of a URL-style DSN. Anything else is
// masked whole since key=value DSNs can carry a password anywhere.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "<redacted>"
	}
	return u.Redacted()
}

// computeDataVersion computes a SHA256 short hash of the report data.
// The hash covers rankings, volatility and z-scores but not timestamps,
// so recomputing unchanged inputs yields the same version.
func computeDataVersion(report *reporting.Report) string {
	h := sha256.New()

	var rankParts []string
	for _, s := range report.Rankings {
		for _, r := range s.Rows {
			rankParts = append(rankParts, fmt.Sprintf("%s|%s|%d|%.6f",
				s.Category, r.Ticker, r.Rank, r.CompositeScore))
		}
	}
	sort.Strings(rankParts)
	h.Write([]byte("RANKINGS\n"))
	h.Write([]byte(strings.Join(rankParts, "\n")))

	var volParts []string
	for _, v := range report.Volatility {
		volParts = append(volParts, fmt.Sprintf("%s|%d|%.6f|%.6f",
			v.Ticker, v.DataPoints, v.Mean, v.CVPercent))
	}
	sort.Strings(volParts)
	h.Write([]byte("\nVOLATILITY\n"))
	h.Write([]byte(strings.Join(volParts, "\n")))

	var zParts []string
	for _, z := range report.ZScores {
		zParts = append(zParts, fmt.Sprintf("%s|%s|%d|%s",
			z.Ticker, z.Status, z.DataPoints, formatOptional(z.ZScore)))
	}
	sort.Strings(zParts)
	h.Write([]byte("\nZSCORE\n"))
	h.Write([]byte(strings.Join(zParts, "\n")))

	return hex.EncodeToString(h.Sum(nil))[:12] // short hash
}

func formatOptional(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%.6f", *v)
}

// getGitCommitHash returns current git commit hash or "unknown" if not in git repo.
func getGitCommitHash() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}

// convertToDataQuality converts CoverageResult to reporting.DataQualitySection.
func convertToDataQuality(result *CoverageResult) reporting.DataQualitySection {
	checks := make([]reporting.CoverageCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.CoverageCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataQualitySection{
		CoverageChecks:  checks,
		Failures:        append([]string(nil), result.Errors...),
		AllChecksPassed: result.AllPass,
	}
}
