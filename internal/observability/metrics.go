// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Dividend chain metrics
	EventsProcessed prometheus.Counter
	EventsRejected  *prometheus.CounterVec
	TickersFailed   *prometheus.CounterVec

	// Metric engines
	MetricsWritten    *prometheus.CounterVec
	VolatilitySkipped prometheus.Counter

	// Ranking metrics
	RankingRuns   *prometheus.CounterVec
	FundsRanked   *prometheus.GaugeVec
	RankingLength prometheus.Histogram

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ReportsGenerated  prometheus.Counter

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "yieldrank"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Dividend chain metrics
		EventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dividends",
			Name:      "events_processed_total",
			Help:      "Total number of dividend events normalized",
		}),
		EventsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dividends",
			Name:      "events_rejected_total",
			Help:      "Total number of raw dividend records rejected by reason",
		}, []string{"reason"}),
		TickersFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dividends",
			Name:      "tickers_failed_total",
			Help:      "Total number of tickers that failed a stage",
		}, []string{"stage"}),

		// Metric engines
		MetricsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metrics",
			Name:      "rows_written_total",
			Help:      "Total number of fund metric rows written by kind",
		}, []string{"kind"}),
		VolatilitySkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metrics",
			Name:      "volatility_unavailable_total",
			Help:      "Total number of tickers with insufficient data for DVI",
		}),

		// Ranking metrics
		RankingRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "runs_total",
			Help:      "Total number of ranking runs by status",
		}, []string{"category", "status"}),
		FundsRanked: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "funds",
			Help:      "Number of funds in the latest ranking of a category",
		}, []string{"category"}),
		RankingLength: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "universe_size",
			Help:      "Distribution of ranked universe sizes",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500},
		}),

		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful batch run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordEvents records normalized and rejected dividend records.
func (m *Metrics) RecordEvents(processed int, rejectedReasons []string) {
	if m == nil {
		return
	}
	m.EventsProcessed.Add(float64(processed))
	for _, reason := range rejectedReasons {
		m.EventsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordTickerFailure records a fatal per-ticker failure.
func (m *Metrics) RecordTickerFailure(stage string) {
	if m == nil {
		return
	}
	m.TickersFailed.WithLabelValues(stage).Inc()
}

// RecordMetricsWritten records fund metric rows written.
func (m *Metrics) RecordMetricsWritten(kind string, n int) {
	if m == nil {
		return
	}
	m.MetricsWritten.WithLabelValues(kind).Add(float64(n))
}

// RecordVolatilityUnavailable records a ticker without enough data for DVI.
func (m *Metrics) RecordVolatilityUnavailable() {
	if m == nil {
		return
	}
	m.VolatilitySkipped.Inc()
}

// RecordRanking records a ranking run over size funds.
func (m *Metrics) RecordRanking(category, status string, size int) {
	if m == nil {
		return
	}
	m.RankingRuns.WithLabelValues(category, status).Inc()
	if status == "success" {
		m.FundsRanked.WithLabelValues(category).Set(float64(size))
		m.RankingLength.Observe(float64(size))
	}
}

// RecordPipelineRun records a pipeline phase.
func (m *Metrics) RecordPipelineRun(phase, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	m.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordReport records a generated report.
func (m *Metrics) RecordReport() {
	if m == nil {
		return
	}
	m.ReportsGenerated.Inc()
}

// MarkSuccess sets the last successful run timestamp.
func (m *Metrics) MarkSuccess(unixSeconds int64) {
	if m == nil {
		return
	}
	m.LastSuccessfulRun.Set(float64(unixSeconds))
}
