package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"inflation-dashboard/internal/charts"
	"inflation-dashboard/internal/common"
	"inflation-dashboard/internal/data"
	"inflation-dashboard/internal/metrics"
	"inflation-dashboard/internal/ml"
	"inflation-dashboard/internal/narrative"
	"inflation-dashboard/internal/storage"

	"github.com/rs/zerolog/log"
)

// ErrUnknownDownload is returned for a download name that is not served.
var ErrUnknownDownload = errors.New("unknown download")

// Metrics is what the pipeline reports. *metrics.MetricsWrapper satisfies it.
type Metrics interface {
	ml.MetricsInterface
	DatasetLoaded(err error)
	ModelLoadFailed()
	ModelServed(loadedAt time.Time)
	SectionDegraded(section string)
	UploadObserved(outcome string, rows int)
}

// UploadStore keeps scored uploads for later download.
type UploadStore interface {
	SaveUpload(rec storage.UploadRecord) (string, error)
}

// Options tunes what a run produces.
type Options struct {
	PreviewRows int
	TopFeatures int
	Charts      charts.Options
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		PreviewRows: common.DefaultPreviewRows,
		TopFeatures: common.DefaultTopFeatures,
		Charts:      charts.DefaultOptions(),
	}
}

// UploadInput is a raw user file. Err records a failure to receive it, such
// as an oversized request body.
type UploadInput struct {
	Name    string
	Content []byte
	Err     error
}

// Runner executes the pipeline. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	sources *Sources
	store   UploadStore
	metrics Metrics
	opts    Options
	now     func() time.Time
}

// NewRunner wires a runner. store and m may be nil.
func NewRunner(sources *Sources, store UploadStore, m Metrics, opts Options) *Runner {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = common.DefaultPreviewRows
	}
	if opts.TopFeatures <= 0 {
		opts.TopFeatures = common.DefaultTopFeatures
	}
	if opts.Charts.HistogramBins <= 0 {
		opts.Charts = charts.DefaultOptions()
	}
	return &Runner{sources: sources, store: store, metrics: m, opts: opts, now: time.Now}
}

// Sources exposes the cache so file watchers can invalidate it.
func (r *Runner) Sources() *Sources {
	return r.sources
}

// Run executes every stage in order: data, analysis, model, evaluation,
// importance, then the optional upload. Stages record their own failures.
func (r *Runner) Run(ctx context.Context, upload *UploadInput) *Result {
	res := &Result{
		GeneratedAt: r.now(),
		Content:     narrative.Default(),
	}

	r.runData(res)

	model, err := r.sources.Model()
	if err != nil {
		res.Model = ModelSection{Err: err}
		r.degrade(res, SectionModel)
		return res
	}
	res.Model = describeModel(model)
	predictor := ml.NewPredictor(model, r.metrics)

	ts, tsErr := r.sources.TestSet()
	res.Evaluation = r.runEvaluation(res, predictor, ts, tsErr)

	var schema []string
	if ts != nil {
		schema = ts.X.Names()
	}
	res.Importance = r.runImportance(res, model, schema)

	if upload != nil {
		if err := ctx.Err(); err != nil {
			res.Upload = &UploadSection{Name: upload.Name, Err: err}
			return res
		}
		res.Upload = r.score(predictor, upload)
		if res.Upload.Err != nil {
			r.degrade(res, SectionUpload)
		}
	}
	return res
}

func (r *Runner) runData(res *Result) {
	ds, err := r.sources.Dataset()
	if err != nil {
		res.Data = DataSection{Err: err}
		res.Analysis = charts.Analysis{}
		r.degrade(res, SectionData)
		return
	}

	_, hasPeriod := ds.Periods()
	res.Data = DataSection{
		Rows:      ds.Rows(),
		Columns:   ds.Columns(),
		HasPeriod: hasPeriod,
		Warning:   ds.Warning(),
		Preview:   data.Head(ds.Frame(), r.opts.PreviewRows),
	}

	res.Analysis = charts.Build(ds, r.opts.Charts)
	if res.Analysis.Trend == nil {
		r.degrade(res, SectionTrend)
	}
	if res.Analysis.Correlation == nil {
		r.degrade(res, SectionCorrelation)
	}
	if len(res.Analysis.Distributions) < 2 {
		r.degrade(res, SectionDistribution)
	}
}

func describeModel(model *ml.Model) ModelSection {
	return ModelSection{
		Kind:       model.Kind.String(),
		Estimator:  model.Estimator.Type(),
		Features:   model.Estimator.FeatureNames(),
		BestParams: model.BestParamsSummary(),
		Info:       model.Info,
	}
}

func (r *Runner) runEvaluation(res *Result, predictor *ml.Predictor, ts *data.TestSet, tsErr error) *EvaluationSection {
	if tsErr != nil {
		r.degrade(res, SectionEvaluation)
		return &EvaluationSection{Err: tsErr}
	}

	eval, err := predictor.EvaluateTestSet(ts)
	if err != nil {
		log.Warn().Err(err).Msg("Test set evaluation failed")
		r.degrade(res, SectionEvaluation)
		return &EvaluationSection{Err: err}
	}

	return &EvaluationSection{
		Rows:    len(eval.Predictions),
		Preview: data.Head(eval.Table, r.opts.PreviewRows),
		MAE:     eval.MAE,
		RMSE:    eval.RMSE,
		R2:      eval.R2,
	}
}

func (r *Runner) runImportance(res *Result, model *ml.Model, schema []string) *ImportanceSection {
	ranked, ok, err := model.RankedImportances(schema, r.opts.TopFeatures)
	if !ok {
		return &ImportanceSection{
			Notice: fmt.Sprintf("The %s model does not provide feature importances.", model.Estimator.Type()),
		}
	}
	if err != nil {
		log.Warn().Err(err).Msg("Feature importances could not be ranked")
		r.degrade(res, SectionImportance)
		return &ImportanceSection{Available: true, Err: err}
	}

	labels := make([]string, len(ranked))
	values := make([]float64, len(ranked))
	rows := [][]string{{common.ColFeature, common.ColImportance}}
	for i, fs := range ranked {
		labels[i] = fs.Feature
		values[i] = fs.Importance
		rows = append(rows, []string{fs.Feature, ml.FormatImportance(fs.Importance)})
	}

	return &ImportanceSection{
		Available: true,
		Ranked:    ranked,
		Rows:      rows,
		Chart:     charts.BuildImportanceBars(labels, values),
	}
}

// Score parses and scores an upload outside a full run.
func (r *Runner) Score(ctx context.Context, upload UploadInput) (*UploadSection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := r.sources.Model()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ml.ErrModelUnavailable, err)
	}
	return r.score(ml.NewPredictor(model, r.metrics), &upload), nil
}

func (r *Runner) score(predictor *ml.Predictor, in *UploadInput) *UploadSection {
	sec := &UploadSection{Name: in.Name}
	if in.Err != nil {
		sec.Err = in.Err
		r.observeUpload(metrics.UploadRejected, 0)
		return sec
	}

	upload, err := data.ReadUpload(in.Name, bytes.NewReader(in.Content))
	if err != nil {
		sec.Err = err
		r.observeUpload(metrics.UploadRejected, 0)
		return sec
	}
	sec.Rows = upload.Rows()
	sec.Preview = data.Head(upload.Frame, r.opts.PreviewRows)

	pred, err := predictor.PredictUpload(upload)
	if err != nil {
		sec.Err = err
		r.observeUpload(metrics.UploadFailed, sec.Rows)
		return sec
	}
	sec.Predicted = len(pred.Predictions)
	sec.Predictions = pred.Predictions
	sec.Results = data.Head(pred.Table, r.opts.PreviewRows)
	r.observeUpload(metrics.UploadAccepted, sec.Rows)

	if r.store != nil {
		csv, err := data.EncodeCSV(pred.Table)
		if err == nil {
			sec.DownloadID, err = r.store.SaveUpload(storage.UploadRecord{
				Name:    in.Name,
				Rows:    sec.Rows,
				Preview: sec.Results,
				CSV:     csv,
			})
		}
		if err != nil {
			// Predictions are still shown; only the download link is lost.
			log.Error().Err(err).Str("upload", in.Name).Msg("Failed to store upload predictions")
		}
	}
	return sec
}

// Download renders one of the fixed CSV artifacts by file name.
func (r *Runner) Download(name string) ([]byte, error) {
	switch name {
	case common.FileMergedData:
		ds, err := r.sources.Dataset()
		if err != nil {
			return nil, err
		}
		return ds.CSV()
	case common.FileXTest, common.FileYTest:
		ts, err := r.sources.TestSet()
		if err != nil {
			return nil, err
		}
		if name == common.FileXTest {
			return data.EncodeCSV(ts.X)
		}
		return data.EncodeCSV(ts.Y)
	case common.FilePredictions:
		model, err := r.sources.Model()
		if err != nil {
			return nil, err
		}
		ts, err := r.sources.TestSet()
		if err != nil {
			return nil, err
		}
		eval, err := ml.NewPredictor(model, r.metrics).EvaluateTestSet(ts)
		if err != nil {
			return nil, err
		}
		return data.EncodeCSV(eval.Table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDownload, name)
	}
}

func (r *Runner) degrade(res *Result, section string) {
	res.Degraded = append(res.Degraded, section)
	if r.metrics != nil {
		r.metrics.SectionDegraded(section)
	}
}

func (r *Runner) observeUpload(outcome string, rows int) {
	if r.metrics != nil {
		r.metrics.UploadObserved(outcome, rows)
	}
}
