// Package metrics provides Prometheus metrics collection for the inflation dashboard.
// It defines the counters, gauges and histograms exposed on the metrics endpoint
// for page renders, model predictions, uploads and degraded dashboard sections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload outcomes used as label values.
const (
	UploadAccepted = "accepted"
	UploadRejected = "rejected"
	UploadFailed   = "failed"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Page metrics
	PageRenders      prometheus.Counter     // Total number of dashboard renders
	RenderDuration   prometheus.Histogram   // Pipeline run plus template render time
	DegradedSections *prometheus.CounterVec // Sections shown as a notice instead of content
	NarrativeStreams prometheus.Counter     // Typing-effect streams served

	// Data and model metrics
	DatasetLoads      prometheus.Counter // Successful loads of the merged dataset
	DatasetLoadErrors prometheus.Counter // Failed loads of the merged dataset
	ModelLoadFailures prometheus.Counter // Failed model artifact loads
	ModelAge          prometheus.Gauge   // Seconds since the model artifact was loaded

	// Prediction metrics
	Predictions        prometheus.Counter   // Successful prediction calls
	PredictionFailures prometheus.Counter   // Failed prediction calls
	PredictionLatency  prometheus.Histogram // Prediction latency in seconds
	PredictedRows      prometheus.Counter   // Rows scored across all calls

	// Upload metrics
	Uploads       *prometheus.CounterVec // Uploads by outcome
	UploadRows    prometheus.Counter     // Rows received in accepted uploads
	StoredUploads prometheus.Gauge       // Upload results currently cached
	PurgedUploads prometheus.Counter     // Upload results removed by the purge job

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered

	gatherer prometheus.Gatherer
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		PageRenders: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_renders_total",
			Help: "Total number of dashboard renders",
		}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_render_duration_seconds",
			Help:    "Time to run the pipeline and render the page in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		DegradedSections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_degraded_sections_total",
			Help: "Sections rendered as a notice instead of content",
		}, []string{"section"}),
		NarrativeStreams: factory.NewCounter(prometheus.CounterOpts{
			Name: "narrative_streams_total",
			Help: "Total number of narrative typing streams served",
		}),
		DatasetLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_loads_total",
			Help: "Total number of successful dataset loads",
		}),
		DatasetLoadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_load_errors_total",
			Help: "Total number of failed dataset loads",
		}),
		ModelLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_load_failures_total",
			Help: "Total number of failed model artifact loads",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Seconds since the model artifact was loaded",
		}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of successful prediction calls",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed prediction calls",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PredictedRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "predicted_rows_total",
			Help: "Total number of rows scored",
		}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total number of user uploads by outcome",
		}, []string{"outcome"}),
		UploadRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "upload_rows_total",
			Help: "Total number of rows received in accepted uploads",
		}),
		StoredUploads: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stored_uploads",
			Help: "Number of upload results currently cached",
		}),
		PurgedUploads: factory.NewCounter(prometheus.CounterOpts{
			Name: "purged_uploads_total",
			Help: "Total number of upload results removed by the purge job",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// UpdateModelAge sets the model age gauge relative to now.
func (m *Metrics) UpdateModelAge(loadedAt, now time.Time) {
	if loadedAt.IsZero() {
		m.ModelAge.Set(0)
		return
	}
	m.ModelAge.Set(now.Sub(loadedAt).Seconds())
}

// GetErrorRate returns prediction failures over all prediction calls, or 0
// when nothing has been predicted yet.
func (m *Metrics) GetErrorRate() float64 {
	if m.gatherer == nil {
		return 0
	}

	metricFamilies, err := m.gatherer.Gather()
	if err != nil {
		return 0
	}

	var ok, failed float64
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "predictions_total":
			for _, metric := range mf.GetMetric() {
				ok = metric.GetCounter().GetValue()
			}
		case "prediction_failures_total":
			for _, metric := range mf.GetMetric() {
				failed = metric.GetCounter().GetValue()
			}
		}
	}

	if ok+failed == 0 {
		return 0
	}
	return failed / (ok + failed)
}
