// Package ml loads trained regression artifacts and applies them to feature
// tables. It covers artifact normalization (search-wrapped vs bare
// estimators), prediction on the held-out test set and on user uploads, and
// ranking of feature importances.
//
// Capabilities are resolved once when an artifact is loaded; call sites
// consult the resulting Model instead of probing the estimator again.
package ml

// Estimator is a fitted regression model.
type Estimator interface {
	// Type names the estimator family, e.g. "random_forest".
	Type() string

	// FeatureNames is the training schema in column order. It may be empty
	// when the artifact did not record names.
	FeatureNames() []string

	// NumFeatures is the number of inputs PredictRow expects.
	NumFeatures() int

	// PredictRow scores one row of features in training order.
	PredictRow(x []float64) float64
}

// ImportanceProvider is implemented by estimators that expose per-feature
// importance scores aligned with FeatureNames.
type ImportanceProvider interface {
	FeatureImportances() []float64
}
