package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Interfaces for metrics to avoid circular imports
type MetricsCounter interface {
	Inc()
}

type MetricsGauge interface {
	Set(float64)
	Add(float64)
}

type MetricsHistogram interface {
	Observe(float64)
}

// MetricsWrapper adapts Metrics to the narrow interfaces used by the
// predictor and the pipeline. A nil wrapper is a no-op.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) enabled() bool {
	return w != nil && w.m != nil
}

func (w *MetricsWrapper) PredictionsInc() {
	if w.enabled() {
		w.m.Predictions.Inc()
	}
}

func (w *MetricsWrapper) PredictionFailuresInc() {
	if w.enabled() {
		w.m.PredictionFailures.Inc()
		w.m.ErrorsTotal.Inc()
	}
}

func (w *MetricsWrapper) PredictionLatencyObserve(v float64) {
	if w.enabled() {
		w.m.PredictionLatency.Observe(v)
	}
}

func (w *MetricsWrapper) PredictedRowsAdd(v float64) {
	if w.enabled() {
		w.m.PredictedRows.Add(v)
	}
}

func (w *MetricsWrapper) DatasetLoaded(err error) {
	if !w.enabled() {
		return
	}
	if err != nil {
		w.m.DatasetLoadErrors.Inc()
		w.m.ErrorsTotal.Inc()
		return
	}
	w.m.DatasetLoads.Inc()
}

func (w *MetricsWrapper) ModelLoadFailed() {
	if w.enabled() {
		w.m.ModelLoadFailures.Inc()
		w.m.ErrorsTotal.Inc()
	}
}

// ModelServed refreshes the model age gauge each time a loaded model is used.
func (w *MetricsWrapper) ModelServed(loadedAt time.Time) {
	if w.enabled() {
		w.m.UpdateModelAge(loadedAt, time.Now())
	}
}

func (w *MetricsWrapper) SectionDegraded(section string) {
	if w.enabled() {
		w.m.DegradedSections.WithLabelValues(section).Inc()
	}
}

func (w *MetricsWrapper) UploadObserved(outcome string, rows int) {
	if !w.enabled() {
		return
	}
	w.m.Uploads.WithLabelValues(outcome).Inc()
	if outcome == UploadAccepted {
		w.m.UploadRows.Add(float64(rows))
	}
}

func (w *MetricsWrapper) PageRenders() MetricsCounter {
	if !w.enabled() {
		return noop{}
	}
	return &CounterWrapper{w.m.PageRenders}
}

func (w *MetricsWrapper) NarrativeStreams() MetricsCounter {
	if !w.enabled() {
		return noop{}
	}
	return &CounterWrapper{w.m.NarrativeStreams}
}

func (w *MetricsWrapper) RenderDuration() MetricsHistogram {
	if !w.enabled() {
		return noop{}
	}
	return &HistogramWrapper{w.m.RenderDuration}
}

func (w *MetricsWrapper) StoredUploads() MetricsGauge {
	if !w.enabled() {
		return noop{}
	}
	return &GaugeWrapper{w.m.StoredUploads}
}

func (w *MetricsWrapper) PurgedUploads(n int) {
	if w.enabled() {
		w.m.PurgedUploads.Add(float64(n))
	}
}

type CounterWrapper struct {
	c prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.c.Inc()
}

type GaugeWrapper struct {
	g prometheus.Gauge
}

func (gw *GaugeWrapper) Set(v float64) {
	gw.g.Set(v)
}

func (gw *GaugeWrapper) Add(v float64) {
	gw.g.Add(v)
}

type HistogramWrapper struct {
	h prometheus.Histogram
}

func (hw *HistogramWrapper) Observe(v float64) {
	hw.h.Observe(v)
}

type noop struct{}

func (noop) Inc()            {}
func (noop) Set(float64)     {}
func (noop) Add(float64)     {}
func (noop) Observe(float64) {}
