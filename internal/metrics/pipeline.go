// Package metrics provides Prometheus metrics for the extraction pipeline.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics contains the counters and histograms updated by the pipeline.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	ExtractionsTotal   *prometheus.CounterVec // by outcome (failure kind or "none")
	RecordsTotal       *prometheus.CounterVec // by initial status
	ReviewsTotal       *prometheus.CounterVec // by action label
	ExtractionDuration prometheus.Histogram
}

// NewPipelineMetrics creates the metrics and registers them on registry.
func NewPipelineMetrics(registry prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		ExtractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pricetracker",
				Name:      "extractions_total",
				Help:      "Vision extraction calls by outcome",
			},
			[]string{"outcome"},
		),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pricetracker",
				Name:      "records_total",
				Help:      "Records saved by initial status",
			},
			[]string{"status"},
		),
		ReviewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pricetracker",
				Name:      "reviews_total",
				Help:      "Reviews applied by action",
			},
			[]string{"action"},
		),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricetracker",
			Name:      "extraction_duration_seconds",
			Help:      "Time spent in the vision call",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ExtractionsTotal.Describe(ch)
	m.RecordsTotal.Describe(ch)
	m.ReviewsTotal.Describe(ch)
	m.ExtractionDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ExtractionsTotal.Collect(ch)
	m.RecordsTotal.Collect(ch)
	m.ReviewsTotal.Collect(ch)
	m.ExtractionDuration.Collect(ch)
}

func (m *PipelineMetrics) ObserveExtraction(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(outcome).Inc()
	m.ExtractionDuration.Observe(elapsed.Seconds())
}

func (m *PipelineMetrics) AddRecords(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(status).Add(float64(n))
}

func (m *PipelineMetrics) ObserveReview(action string) {
	if m == nil {
		return
	}
	m.ReviewsTotal.WithLabelValues(action).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
