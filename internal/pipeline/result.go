// Package pipeline runs the dashboard top to bottom and returns an immutable
// Result. Each section carries its own error so a failure in one section
// never removes content from another.
package pipeline

import (
	"math"
	"time"

	"inflation-dashboard/internal/charts"
	"inflation-dashboard/internal/ml"
	"inflation-dashboard/internal/narrative"
)

// Section names used in logs, metrics and the summary endpoint.
const (
	SectionData         = "data"
	SectionTrend        = "trend"
	SectionCorrelation  = "correlation"
	SectionDistribution = "distribution"
	SectionModel        = "model"
	SectionEvaluation   = "evaluation"
	SectionImportance   = "importance"
	SectionUpload       = "upload"
)

// Result is one complete pass over the dashboard. It is not modified after
// Run returns.
type Result struct {
	GeneratedAt time.Time
	Content     narrative.Content

	Data     DataSection
	Analysis charts.Analysis
	Model    ModelSection

	// Nil when the model could not be loaded.
	Evaluation *EvaluationSection
	Importance *ImportanceSection

	// Nil when nothing was uploaded or the model could not be loaded.
	Upload *UploadSection

	Degraded []string
}

// DataSection describes the merged dataset.
type DataSection struct {
	Err       error
	Rows      int
	Columns   []string
	HasPeriod bool
	Warning   string
	Preview   [][]string
}

// ModelSection describes the loaded artifact.
type ModelSection struct {
	Err        error
	Kind       string
	Estimator  string
	Features   []string
	BestParams string
	Info       ml.ModelInfo
}

// Halted reports whether model-dependent sections were skipped.
func (m ModelSection) Halted() bool {
	return m.Err != nil
}

// EvaluationSection compares test-set predictions with true values.
type EvaluationSection struct {
	Err     error
	Rows    int
	Preview [][]string
	MAE     float64
	RMSE    float64
	R2      float64
}

// ImportanceSection is the ranked importance chart and table. When the model
// has no importance capability Available is false and Notice explains why.
type ImportanceSection struct {
	Available bool
	Notice    string
	Err       error
	Ranked    []ml.FeatureScore
	Rows      [][]string
	Chart     *charts.BarChart
}

// UploadSection is the outcome of scoring a user file.
type UploadSection struct {
	Name        string
	Rows        int
	Preview     [][]string
	Err         error
	Predicted   int
	Predictions []float64
	Results     [][]string
	DownloadID  string
}

// Succeeded reports whether the upload was scored.
func (u *UploadSection) Succeeded() bool {
	return u != nil && u.Err == nil
}

// Summary is the JSON view of a Result.
type Summary struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Rows        int               `json:"rows"`
	Columns     []string          `json:"columns"`
	HasPeriod   bool              `json:"has_period"`
	Charts      []string          `json:"charts"`
	Model       *ModelSummary     `json:"model,omitempty"`
	Importance  []ml.FeatureScore `json:"importance,omitempty"`
	Degraded    []string          `json:"degraded"`
	Errors      map[string]string `json:"errors,omitempty"`
}

type ModelSummary struct {
	Kind       string   `json:"kind"`
	Estimator  string   `json:"estimator"`
	Features   []string `json:"features"`
	BestParams string   `json:"best_params"`
	TestRows   int      `json:"test_rows"`
	MAE        *float64 `json:"mae,omitempty"`
	RMSE       *float64 `json:"rmse,omitempty"`
}

// Summary condenses the result for the API.
func (r *Result) Summary() Summary {
	s := Summary{
		GeneratedAt: r.GeneratedAt,
		Rows:        r.Data.Rows,
		Columns:     r.Data.Columns,
		HasPeriod:   r.Data.HasPeriod,
		Charts:      []string{},
		Degraded:    append([]string{}, r.Degraded...),
		Errors:      map[string]string{},
	}

	if r.Analysis.Trend != nil {
		s.Charts = append(s.Charts, SectionTrend)
	}
	if r.Analysis.Correlation != nil {
		s.Charts = append(s.Charts, SectionCorrelation)
	}
	for _, h := range r.Analysis.Distributions {
		s.Charts = append(s.Charts, SectionDistribution+":"+h.Column)
	}

	if r.Data.Err != nil {
		s.Errors[SectionData] = r.Data.Err.Error()
	}
	if r.Model.Err != nil {
		s.Errors[SectionModel] = r.Model.Err.Error()
	} else {
		ms := &ModelSummary{
			Kind:       r.Model.Kind,
			Estimator:  r.Model.Estimator,
			Features:   r.Model.Features,
			BestParams: r.Model.BestParams,
		}
		if e := r.Evaluation; e != nil {
			if e.Err != nil {
				s.Errors[SectionEvaluation] = e.Err.Error()
			} else {
				ms.TestRows = e.Rows
				ms.MAE = finite(e.MAE)
				ms.RMSE = finite(e.RMSE)
			}
		}
		s.Model = ms
	}

	if imp := r.Importance; imp != nil {
		if imp.Err != nil {
			s.Errors[SectionImportance] = imp.Err.Error()
		}
		s.Importance = imp.Ranked
	}
	if r.Upload != nil && r.Upload.Err != nil {
		s.Errors[SectionUpload] = r.Upload.Err.Error()
	}
	if len(s.Errors) == 0 {
		s.Errors = nil
	}
	return s
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
