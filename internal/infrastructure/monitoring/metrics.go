package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// MetricsCollector records pipeline metrics on its own Prometheus registry
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	stageRemovedTotal  *prometheus.CounterVec
	completionAttempts *prometheus.CounterVec
	fallbacksTotal     *prometheus.CounterVec
	scoringFailures    prometheus.Counter
}

var _ outbound.MetricsRecorder = (*MetricsCollector)(nil)

// NewMetricsCollector creates a new metrics collector. Process and Go runtime
// collectors are registered alongside the pipeline metrics.
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: reg,

		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendation_requests_total",
				Help: "Total number of recommendation operations by outcome",
			},
			[]string{"operation", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recommendation_duration_seconds",
				Help:    "Recommendation operation duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		stageRemovedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filter_stage_removed_total",
				Help: "Candidates removed by each hard filter stage",
			},
			[]string{"stage"},
		),
		completionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "completion_attempts_total",
				Help: "Text completion attempts by outcome",
			},
			[]string{"outcome"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "explanation_fallbacks_total",
				Help: "Template explanations used in place of generated text",
			},
			[]string{"reason"},
		),
		scoringFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "scoring_failures_total",
				Help: "Candidates skipped because scoring failed",
			},
		),
	}
}

// RecordRequest records one operation outcome and its latency
func (m *MetricsCollector) RecordRequest(operation, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(operation, status).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordStageRemoved adds the number of candidates a filter stage removed
func (m *MetricsCollector) RecordStageRemoved(stage string, removed int) {
	if removed <= 0 {
		return
	}
	m.stageRemovedTotal.WithLabelValues(stage).Add(float64(removed))
}

func (m *MetricsCollector) RecordCompletionAttempt(outcome string) {
	m.completionAttempts.WithLabelValues(outcome).Inc()
}

func (m *MetricsCollector) RecordFallback(reason string) {
	m.fallbacksTotal.WithLabelValues(reason).Inc()
}

func (m *MetricsCollector) RecordScoringFailure() {
	m.scoringFailures.Inc()
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler for this collector
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
}
