package main

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"path/filepath"
	"testing"

	"inflation-dashboard/internal/common"
	"inflation-dashboard/internal/data"
	"inflation-dashboard/internal/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleArtifactLoadsAndScoresTestSet(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rows := generateMonths(rng, 60)
	train, test := rows[:48], rows[48:]

	raw, err := json.Marshal(fitForest(rng, train, 5))
	require.NoError(t, err)

	model, err := ml.DecodeModel(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, ml.KindSearchResult, model.Kind)
	assert.Equal(t, featureColumns, model.Estimator.FeatureNames())
	assert.True(t, model.Importance.Available())

	dir := t.TempDir()
	xPath := filepath.Join(dir, common.FileXTest)
	yPath := filepath.Join(dir, common.FileYTest)
	require.NoError(t, writeTable(xPath, featureRecords(test)))
	require.NoError(t, writeTable(yPath, labelRecords(test)))

	ts, err := data.LoadTestSet(xPath, yPath)
	require.NoError(t, err)

	eval, err := ml.NewPredictor(model, nil).EvaluateTestSet(ts)
	require.NoError(t, err)
	assert.Len(t, eval.Predictions, len(test))
}

func TestMergedRecordsHeader(t *testing.T) {
	rows := generateMonths(rand.New(rand.NewSource(1)), 12)
	dir := t.TempDir()
	path := filepath.Join(dir, common.FileMergedData)
	require.NoError(t, writeTable(path, mergedRecords(rows)))

	ds, err := data.LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, 12, ds.Rows())
	_, ok := ds.Periods()
	assert.True(t, ok)
	for _, col := range common.CorrelationCandidates {
		assert.True(t, ds.Has(col), col)
	}
}
