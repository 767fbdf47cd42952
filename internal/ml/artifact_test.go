package ml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forestJSON = `{
  "type": "random_forest",
  "feature_names": ["moneySupply_M3", "narrowMoney", "cbnBills"],
  "trees": [
    {"nodes": [
      {"feature": 0, "threshold": 10000, "left": 1, "right": 2, "gain": 3},
      {"left": -1, "right": -1, "value": 10},
      {"left": -1, "right": -1, "value": 20}
    ]},
    {"nodes": [
      {"feature": 1, "threshold": 5000, "left": 1, "right": 2, "gain": 1},
      {"left": -1, "right": -1, "value": 12},
      {"left": -1, "right": -1, "value": 18}
    ]}
  ]
}`

const linearJSON = `{
  "type": "linear_regression",
  "feature_names": ["moneySupply_M3", "narrowMoney"],
  "coef": [0.001, 0.002],
  "intercept": 1.5
}`

func TestDecodeModel_BareEstimator(t *testing.T) {
	model, err := DecodeModel(strings.NewReader(forestJSON))
	require.NoError(t, err)

	assert.Equal(t, KindBareEstimator, model.Kind)
	assert.False(t, model.BestParamsAvailable())
	assert.Equal(t, "not available", model.BestParamsSummary())
	assert.Equal(t, TypeRandomForest, model.Estimator.Type())
	assert.Equal(t, 3, model.Estimator.NumFeatures())

	require.True(t, model.Importance.Available())
	assert.InDeltaSlice(t, []float64{0.75, 0.25, 0}, model.Importance.Scores(), 1e-12)
}

func TestDecodeModel_SearchResult(t *testing.T) {
	artifact := `{"best_params": {"max_depth": 4, "n_estimators": 2}, "best_estimator": ` + forestJSON + `}`
	model, err := DecodeModel(strings.NewReader(artifact))
	require.NoError(t, err)

	assert.Equal(t, KindSearchResult, model.Kind)
	require.True(t, model.BestParamsAvailable())
	assert.Equal(t, float64(4), model.BestParams["max_depth"])
	assert.Equal(t, `{"max_depth":4,"n_estimators":2}`, model.BestParamsSummary())
	assert.Equal(t, TypeRandomForest, model.Estimator.Type())
}

func TestDecodeModel_SearchResultWithoutParams(t *testing.T) {
	artifact := `{"best_estimator": ` + linearJSON + `}`
	model, err := DecodeModel(strings.NewReader(artifact))
	require.NoError(t, err)

	assert.Equal(t, KindSearchResult, model.Kind)
	assert.True(t, model.BestParamsAvailable())
	assert.Equal(t, "{}", model.BestParamsSummary())
}

func TestDecodeModel_LinearHasNoImportances(t *testing.T) {
	model, err := DecodeModel(strings.NewReader(linearJSON))
	require.NoError(t, err)

	assert.False(t, model.Importance.Available())
	assert.InDelta(t, 1.5+10+4, model.Estimator.PredictRow([]float64{10000, 2000}), 1e-9)

	ranked, ok, err := model.RankedImportances(nil, 15)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ranked)
}

func TestDecodeModel_ExplicitImportances(t *testing.T) {
	artifact := strings.Replace(forestJSON, `"trees"`, `"feature_importances": [0.1, 0.5, 0.4], "trees"`, 1)
	model, err := DecodeModel(strings.NewReader(artifact))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.5, 0.4}, model.Importance.Scores())
}

func TestDecodeModel_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		artifact string
	}{
		{"not json", "\x80\x04\x95 pickle bytes"},
		{"json array", "[1, 2, 3]"},
		{"missing type", `{"coef": [1]}`},
		{"unknown type", `{"type": "svm"}`},
		{"linear without coef", `{"type": "linear_regression"}`},
		{"coef and names disagree", `{"type": "linear_regression", "feature_names": ["a"], "coef": [1, 2]}`},
		{"forest without trees", `{"type": "random_forest", "trees": []}`},
		{"child out of range", `{"type": "decision_tree", "nodes": [{"feature": 0, "left": 1, "right": 5}]}`},
		{"cyclic tree", `{"type": "decision_tree", "nodes": [{"feature": 0, "left": 0, "right": 0}]}`},
		{"feature beyond names", `{"type": "decision_tree", "feature_names": ["a"], "nodes": [{"feature": 3, "left": 1, "right": 2}, {"left": -1}, {"left": -1}]}`},
		{"importance length", `{"type": "decision_tree", "feature_names": ["a"], "feature_importances": [0.5, 0.5], "nodes": [{"left": -1, "value": 1}]}`},
		{"bad best estimator", `{"best_estimator": {"type": "svm"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeModel(strings.NewReader(tt.artifact))
			assert.Error(t, err)
		})
	}
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inflation_model.json")
	require.NoError(t, os.WriteFile(path, []byte(forestJSON), 0o600))

	model, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, path, model.Info.Path)
	assert.Len(t, model.Info.SHA256, 64)
	assert.Equal(t, int64(len(forestJSON)), model.Info.Size)
	assert.False(t, model.Info.ModTime.IsZero())
}

func TestLoadModel_MissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEstimators_Predict(t *testing.T) {
	model, err := DecodeModel(strings.NewReader(forestJSON))
	require.NoError(t, err)

	est := model.Estimator
	assert.Equal(t, 11.0, est.PredictRow([]float64{9000, 4000, 0}))
	assert.Equal(t, 19.0, est.PredictRow([]float64{12000, 6000, 0}))
	assert.Equal(t, 16.0, est.PredictRow([]float64{12000, 4000, 0}))

	boosted := strings.Replace(forestJSON, `"random_forest"`, `"gradient_boosting", "init": 10, "learning_rate": 0.5`, 1)
	model, err = DecodeModel(strings.NewReader(boosted))
	require.NoError(t, err)
	assert.Equal(t, TypeGradientBoosting, model.Estimator.Type())
	assert.Equal(t, 10+0.5*(10+12), model.Estimator.PredictRow([]float64{9000, 4000, 0}))

	single := `{"type": "decision_tree", "nodes": [{"feature": 1, "threshold": 0.5, "left": 1, "right": 2}, {"left": -1, "value": -1}, {"left": -1, "value": 1}]}`
	model, err = DecodeModel(strings.NewReader(single))
	require.NoError(t, err)
	assert.Equal(t, 2, model.Estimator.NumFeatures())
	assert.Empty(t, model.Estimator.FeatureNames())
	assert.Equal(t, 1.0, model.Estimator.PredictRow([]float64{0, 1}))
}

func TestArtifactKind_String(t *testing.T) {
	assert.Equal(t, "bare estimator", KindBareEstimator.String())
	assert.Equal(t, "search result", KindSearchResult.String())
}
