package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) (*Metrics, *MetricsWrapper) {
	t.Helper()
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	return metrics, NewWrapper(metrics)
}

func TestNewWrapper(t *testing.T) {
	metrics, wrapper := newTestMetrics(t)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_PredictionCounters(t *testing.T) {
	metrics, wrapper := newTestMetrics(t)

	wrapper.PredictionsInc()
	wrapper.PredictionsInc()
	wrapper.PredictionFailuresInc()
	wrapper.PredictedRowsAdd(12)

	if v := testutil.ToFloat64(metrics.Predictions); v != 2 {
		t.Errorf("Expected 2 predictions, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.PredictionFailures); v != 1 {
		t.Errorf("Expected 1 failure, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ErrorsTotal); v != 1 {
		t.Errorf("Expected failure to count as error, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.PredictedRows); v != 12 {
		t.Errorf("Expected 12 predicted rows, got %f", v)
	}
}

func TestMetricsWrapper_LatencyHistogram(t *testing.T) {
	metrics, wrapper := newTestMetrics(t)

	for _, v := range []float64{0.0002, 0.003, 0.2} {
		wrapper.PredictionLatencyObserve(v)
	}

	if count := testutil.CollectAndCount(metrics.PredictionLatency); count != 1 {
		t.Errorf("Expected 1 histogram metric, got %d", count)
	}
}

func TestMetricsWrapper_DatasetAndModel(t *testing.T) {
	metrics, wrapper := newTestMetrics(t)

	wrapper.DatasetLoaded(nil)
	wrapper.DatasetLoaded(errors.New("missing file"))
	wrapper.ModelLoadFailed()

	if v := testutil.ToFloat64(metrics.DatasetLoads); v != 1 {
		t.Errorf("Expected 1 dataset load, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.DatasetLoadErrors); v != 1 {
		t.Errorf("Expected 1 dataset load error, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ModelLoadFailures); v != 1 {
		t.Errorf("Expected 1 model load failure, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ErrorsTotal); v != 2 {
		t.Errorf("Expected 2 errors, got %f", v)
	}
}

func TestMetricsWrapper_LabelledCounters(t *testing.T) {
	metrics, wrapper := newTestMetrics(t)

	wrapper.SectionDegraded("importance")
	wrapper.SectionDegraded("importance")
	wrapper.SectionDegraded("trend")
	wrapper.UploadObserved(UploadAccepted, 4)
	wrapper.UploadObserved(UploadRejected, 9)

	if v := testutil.ToFloat64(metrics.DegradedSections.WithLabelValues("importance")); v != 2 {
		t.Errorf("Expected 2 degraded importance sections, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.DegradedSections.WithLabelValues("trend")); v != 1 {
		t.Errorf("Expected 1 degraded trend section, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.Uploads.WithLabelValues(UploadAccepted)); v != 1 {
		t.Errorf("Expected 1 accepted upload, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.UploadRows); v != 4 {
		t.Errorf("Expected rejected upload rows to be ignored, got %f", v)
	}
}

func TestMetricsWrapper_Accessors(t *testing.T) {
	metrics, wrapper := newTestMetrics(t)

	wrapper.PageRenders().Inc()
	wrapper.NarrativeStreams().Inc()
	wrapper.RenderDuration().Observe(0.01)
	wrapper.StoredUploads().Set(3)
	wrapper.StoredUploads().Add(-1)
	wrapper.PurgedUploads(5)

	if v := testutil.ToFloat64(metrics.PageRenders); v != 1 {
		t.Errorf("Expected 1 render, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.NarrativeStreams); v != 1 {
		t.Errorf("Expected 1 stream, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.StoredUploads); v != 2 {
		t.Errorf("Expected 2 stored uploads, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.PurgedUploads); v != 5 {
		t.Errorf("Expected 5 purged uploads, got %f", v)
	}
}

func TestMetricsWrapper_NilIsNoop(t *testing.T) {
	var wrapper *MetricsWrapper

	wrapper.PredictionsInc()
	wrapper.PredictionFailuresInc()
	wrapper.PredictionLatencyObserve(1)
	wrapper.PredictedRowsAdd(1)
	wrapper.DatasetLoaded(nil)
	wrapper.ModelLoadFailed()
	wrapper.SectionDegraded("x")
	wrapper.UploadObserved(UploadFailed, 1)
	wrapper.PageRenders().Inc()
	wrapper.RenderDuration().Observe(1)
	wrapper.StoredUploads().Set(1)
	wrapper.PurgedUploads(1)

	NewWrapper(nil).PredictionsInc()
}

func TestMetrics_ErrorRate(t *testing.T) {
	metrics, wrapper := newTestMetrics(t)

	if rate := metrics.GetErrorRate(); rate != 0 {
		t.Errorf("Expected 0 error rate with no calls, got %f", rate)
	}

	wrapper.PredictionsInc()
	wrapper.PredictionsInc()
	wrapper.PredictionsInc()
	wrapper.PredictionFailuresInc()

	if rate := metrics.GetErrorRate(); rate != 0.25 {
		t.Errorf("Expected 0.25 error rate, got %f", rate)
	}
}

func TestMetrics_UpdateModelAge(t *testing.T) {
	metrics, _ := newTestMetrics(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	metrics.UpdateModelAge(now.Add(-90*time.Second), now)
	if v := testutil.ToFloat64(metrics.ModelAge); v != 90 {
		t.Errorf("Expected model age 90, got %f", v)
	}

	metrics.UpdateModelAge(time.Time{}, now)
	if v := testutil.ToFloat64(metrics.ModelAge); v != 0 {
		t.Errorf("Expected model age 0 for unloaded model, got %f", v)
	}
}

func TestMetricsWrapper_ModelServed(t *testing.T) {
	metrics, wrapper := newTestMetrics(t)

	wrapper.ModelServed(time.Now().Add(-time.Hour))
	if v := testutil.ToFloat64(metrics.ModelAge); v < 3600 {
		t.Errorf("Expected model age of at least an hour, got %f", v)
	}

	wrapper.ModelServed(time.Now())
	if v := testutil.ToFloat64(metrics.ModelAge); v > 60 {
		t.Errorf("Expected model age reset after reload, got %f", v)
	}

	NewWrapper(nil).ModelServed(time.Now())
}
