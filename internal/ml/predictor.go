package ml

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"inflation-dashboard/internal/common"
	"inflation-dashboard/internal/data"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrSchemaMismatch means the input columns differ from the training schema.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrInvalidValue means a feature cell is not a finite number.
	ErrInvalidValue = errors.New("invalid feature value")
	// ErrRowMismatch means predictions and labels cannot be paired by position.
	ErrRowMismatch = errors.New("row count mismatch")
)

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc()
	PredictionLatencyObserve(float64)
	PredictedRowsAdd(float64)
}

// Predictor applies a loaded model to feature tables.
type Predictor struct {
	model   *Model
	metrics MetricsInterface
}

// NewPredictor wraps a model. metrics may be nil.
func NewPredictor(model *Model, metrics MetricsInterface) *Predictor {
	return &Predictor{model: model, metrics: metrics}
}

// Model returns the wrapped model.
func (p *Predictor) Model() *Model {
	if p == nil {
		return nil
	}
	return p.model
}

// Predict scores every row of df. The columns of df must match the training
// schema by name and order. The result has exactly df.Nrow() values.
func (p *Predictor) Predict(df dataframe.DataFrame) (predictions []float64, err error) {
	if p == nil || p.model == nil || p.model.Estimator == nil {
		return nil, ErrModelUnavailable
	}

	start := time.Now()
	defer func() {
		// Isolate estimator faults from the caller.
		if r := recover(); r != nil {
			predictions = nil
			err = fmt.Errorf("prediction failed: %v", r)
		}
		if p.metrics != nil {
			p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
			if err != nil {
				p.metrics.PredictionFailuresInc()
			} else {
				p.metrics.PredictionsInc()
				p.metrics.PredictedRowsAdd(float64(len(predictions)))
			}
		}
	}()

	if err := p.checkSchema(df.Names()); err != nil {
		return nil, err
	}

	rows, err := featureMatrix(df)
	if err != nil {
		return nil, err
	}

	est := p.model.Estimator
	predictions = make([]float64, len(rows))
	for i, x := range rows {
		predictions[i] = est.PredictRow(x)
	}

	if len(predictions) != df.Nrow() {
		return nil, fmt.Errorf("%w: %d predictions for %d rows", ErrRowMismatch, len(predictions), df.Nrow())
	}
	return predictions, nil
}

func (p *Predictor) checkSchema(columns []string) error {
	est := p.model.Estimator
	expected := est.FeatureNames()

	if len(expected) == 0 {
		if len(columns) != est.NumFeatures() {
			return fmt.Errorf("%w: expected %d columns, got %d", ErrSchemaMismatch, est.NumFeatures(), len(columns))
		}
		return nil
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, name := range expected {
		if !present[name] {
			return fmt.Errorf("%w: missing required column %q", ErrSchemaMismatch, name)
		}
	}

	known := make(map[string]bool, len(expected))
	for _, name := range expected {
		known[name] = true
	}
	for _, c := range columns {
		if !known[c] {
			return fmt.Errorf("%w: unexpected column %q", ErrSchemaMismatch, c)
		}
	}

	if len(columns) != len(expected) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrSchemaMismatch, len(expected), len(columns))
	}
	for i := range expected {
		if columns[i] != expected[i] {
			return fmt.Errorf("%w: column %d is %q, expected %q (columns must be in training order)", ErrSchemaMismatch, i+1, columns[i], expected[i])
		}
	}
	return nil
}

// featureMatrix converts a text table into rows of numbers.
func featureMatrix(df dataframe.DataFrame) ([][]float64, error) {
	names := df.Names()
	rows := make([][]float64, df.Nrow())
	for i := range rows {
		rows[i] = make([]float64, len(names))
	}

	for j, name := range names {
		for i, cell := range df.Col(name).Records() {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d, column %q: %q is not a finite number", ErrInvalidValue, i+1, name, cell)
			}
			rows[i][j] = v
		}
	}
	return rows, nil
}

// Evaluation pairs test-set predictions with true values by row position.
type Evaluation struct {
	Predictions []float64
	TrueValues  []float64
	Table       dataframe.DataFrame
	MAE         float64
	RMSE        float64
	R2          float64
}

// EvaluateTestSet predicts x_test and pairs the result with y_test. x_test
// and y_test must have equal row counts; row order is the caller's
// responsibility.
func (p *Predictor) EvaluateTestSet(ts *data.TestSet) (*Evaluation, error) {
	if ts == nil {
		return nil, fmt.Errorf("no test set")
	}
	if err := ts.CheckAligned(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRowMismatch, err)
	}

	predictions, err := p.Predict(ts.X)
	if err != nil {
		return nil, fmt.Errorf("failed to predict test set: %w", err)
	}
	labels := ts.Labels()

	table, err := data.FloatTable(
		[]string{common.ColModelPrediction, common.ColTrueValues},
		[][]float64{predictions, labels},
	)
	if err != nil {
		return nil, err
	}

	eval := &Evaluation{
		Predictions: predictions,
		TrueValues:  labels,
		Table:       table,
	}
	eval.MAE, eval.RMSE, eval.R2 = scores(predictions, labels)

	log.Info().
		Int("rows", len(predictions)).
		Float64("mae", eval.MAE).
		Float64("rmse", eval.RMSE).
		Msg("Test set evaluated")

	return eval, nil
}

// scores computes MAE, RMSE and R² over rows where the label is a number.
func scores(pred, truth []float64) (mae, rmse, r2 float64) {
	var p, t []float64
	for i := range pred {
		if i < len(truth) && !math.IsNaN(truth[i]) {
			p = append(p, pred[i])
			t = append(t, truth[i])
		}
	}
	if len(t) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}

	var absSum, sqSum float64
	for i := range t {
		d := p[i] - t[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}
	n := float64(len(t))
	mae = absSum / n
	rmse = math.Sqrt(sqSum / n)

	r2 = math.NaN()
	if len(t) > 1 {
		r2 = stat.RSquaredFrom(p, t, nil)
	}
	return mae, rmse, r2
}

// UploadPrediction is the result of scoring a user upload.
type UploadPrediction struct {
	Predictions []float64
	Table       dataframe.DataFrame
}

// PredictUpload scores a user-supplied table. Any failure is returned as an
// error; nothing is retained on failure.
func (p *Predictor) PredictUpload(u *data.Upload) (*UploadPrediction, error) {
	if u == nil {
		return nil, fmt.Errorf("no upload")
	}

	predictions, err := p.Predict(u.Frame)
	if err != nil {
		log.Warn().Err(err).Str("upload", u.Name).Msg("User prediction failed")
		return nil, err
	}

	table, err := data.FloatTable([]string{common.ColPredictedInflation}, [][]float64{predictions})
	if err != nil {
		return nil, err
	}

	log.Info().Str("upload", u.Name).Int("rows", len(predictions)).Msg("User upload scored")
	return &UploadPrediction{Predictions: predictions, Table: table}, nil
}
