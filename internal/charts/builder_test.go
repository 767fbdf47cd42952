package charts

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory Source.
type fakeSource struct {
	cols    map[string][]float64
	periods []time.Time
}

func (f *fakeSource) Has(col string) bool {
	_, ok := f.cols[col]
	return ok
}

func (f *fakeSource) Floats(col string) []float64 {
	return f.cols[col]
}

func (f *fakeSource) Periods() ([]time.Time, bool) {
	return f.periods, f.periods != nil
}

func monthly(n int) []time.Time {
	out := make([]time.Time, n)
	start := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = start.AddDate(0, i, 0)
	}
	return out
}

func fullSource() *fakeSource {
	return &fakeSource{
		cols: map[string][]float64{
			"allItemsYearOn":                     {8.6, 8.0, 8.0, 8.2, 9.7, 11.8},
			"foodYearOn":                         {9.9, 10.0, 10.4, 10.5, 12.8, 15.0},
			"allItemsLessFrmProdAndEnergyYearOn": {6.1, 6.2, 6.0, 6.3, 6.9, 7.2},
			"moneySupply_M3":                     {8800, 8900, 9000, 9200, 9800, 10500},
			"moneySupply_M2":                     {8000, 8100, 8150, 8300, 8900, 9600},
			"narrowMoney":                        {4000, 3900, 4100, 4200, 4400, 4800},
		},
		periods: monthly(6),
	}
}

func TestBuild_AllColumnsPresent(t *testing.T) {
	a := Build(fullSource(), DefaultOptions())

	require.NotNil(t, a.Trend)
	assert.Len(t, a.Trend.Series, 3)
	require.NotNil(t, a.Correlation)
	assert.Len(t, a.Correlation.Columns, 4)
	assert.Len(t, a.Distributions, 2)
	assert.Empty(t, a.Skipped)
	assert.False(t, a.Empty())
}

func TestBuild_NoPeriodSkipsTrendOnly(t *testing.T) {
	src := fullSource()
	src.periods = nil

	a := Build(src, DefaultOptions())
	assert.Nil(t, a.Trend)
	assert.NotNil(t, a.Correlation)
	assert.Len(t, a.Distributions, 2)
	assert.Len(t, a.Skipped, 1)
}

func TestBuild_NothingPresent(t *testing.T) {
	a := Build(&fakeSource{cols: map[string][]float64{"cbnBills": {1, 2}}}, DefaultOptions())
	assert.True(t, a.Empty())
	assert.Len(t, a.Skipped, 4)
}

func TestBuildTrend_PartialColumns(t *testing.T) {
	for _, present := range [][]string{
		{},
		{"foodYearOn"},
		{"allItemsYearOn", "allItemsLessFrmProdAndEnergyYearOn"},
	} {
		src := &fakeSource{cols: map[string][]float64{}, periods: monthly(3)}
		for _, c := range present {
			src.cols[c] = []float64{1, 2, 3}
		}

		chart, ok := BuildTrend(src)
		require.True(t, ok)
		require.Len(t, chart.Series, len(present))
		for i, s := range chart.Series {
			assert.Equal(t, present[i], s.Name)
			assert.Len(t, s.Points, 3)
		}
	}
}

func TestBuildTrend_SkipsNaNPoints(t *testing.T) {
	src := &fakeSource{
		cols:    map[string][]float64{"allItemsYearOn": {1, math.NaN(), 3}},
		periods: monthly(3),
	}
	chart, ok := BuildTrend(src)
	require.True(t, ok)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, []Point{{X: "2008-01-01", Y: 1}, {X: "2008-03-01", Y: 3}}, chart.Series[0].Points)
}

func TestBuildCorrelation_GatedOnTwoColumns(t *testing.T) {
	candidates := []string{"allItemsYearOn", "moneySupply_M3", "moneySupply_M2", "narrowMoney"}
	full := fullSource()

	// Every subset of the candidates.
	for mask := 0; mask < 1<<len(candidates); mask++ {
		src := &fakeSource{cols: map[string][]float64{}}
		var present []string
		for i, c := range candidates {
			if mask&(1<<i) != 0 {
				src.cols[c] = full.cols[c]
				present = append(present, c)
			}
		}

		h, ok := BuildCorrelation(src, candidates)
		if len(present) < 2 {
			assert.False(t, ok, "subset %v", present)
			assert.Nil(t, h)
			continue
		}

		require.True(t, ok, "subset %v", present)
		assert.Equal(t, present, h.Columns)
		require.Len(t, h.Values, len(present))
		for i := range h.Values {
			require.Len(t, h.Values[i], len(present))
			assert.Equal(t, 1.0, h.Values[i][i])
			for j := range h.Values[i] {
				assert.Equal(t, h.Values[i][j], h.Values[j][i])
			}
		}
	}
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
	assert.True(t, math.IsNaN(Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
	assert.True(t, math.IsNaN(Pearson([]float64{1}, []float64{1})))

	// Incomplete pairs are dropped.
	r := Pearson([]float64{1, math.NaN(), 2, 3}, []float64{2, 100, 4, 6})
	assert.InDelta(t, 1.0, r, 1e-12)
}

func TestBuildHistogram(t *testing.T) {
	src := fullSource()
	h, ok := BuildHistogram(src, "allItemsYearOn", DefaultOptions())
	require.True(t, ok)

	assert.Len(t, h.Edges, 31)
	assert.Len(t, h.Counts, 30)
	total := 0.0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 6.0, total)
	assert.Equal(t, 8.0, h.Edges[0])
	assert.Equal(t, 11.8, h.Edges[30])
	assert.Equal(t, 1.0, h.Counts[29], "maximum lands in the last bin")
	assert.Len(t, h.Density, 200)
	assert.Equal(t, "skyblue", h.Color)

	m3, ok := BuildHistogram(src, "moneySupply_M3", DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, "lightgreen", m3.Color)
}

func TestBuildHistogram_ConstantAndMissing(t *testing.T) {
	src := &fakeSource{cols: map[string][]float64{"allItemsYearOn": {5, 5, 5}}}
	h, ok := BuildHistogram(src, "allItemsYearOn", DefaultOptions())
	require.True(t, ok)
	assert.Nil(t, h.Density)

	total := 0.0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 3.0, total)

	_, ok = BuildHistogram(src, "moneySupply_M3", DefaultOptions())
	assert.False(t, ok)

	allNaN := &fakeSource{cols: map[string][]float64{"allItemsYearOn": {math.NaN()}}}
	_, ok = BuildHistogram(allNaN, "allItemsYearOn", DefaultOptions())
	assert.False(t, ok)
}

func TestHeatmapCells(t *testing.T) {
	h := &Heatmap{
		Columns: []string{"a", "b"},
		Values:  [][]float64{{1, 0.456}, {0.456, 1}},
	}
	cells := h.Cells()
	assert.Equal(t, "1.00", cells[0][0].Text)
	assert.Equal(t, "0.46", cells[0][1].Text)
	assert.Equal(t, "#08306b", cells[0][0].Background)
	assert.Equal(t, "#f7fbff", cells[0][1].Background)
	assert.Equal(t, "nan", Annotation(math.NaN()))
}

func TestBuildImportanceBars(t *testing.T) {
	chart := BuildImportanceBars([]string{"b", "c", "a"}, []float64{0.5, 0.2, 0.1})
	assert.Equal(t, []string{"b", "c", "a"}, chart.Labels)
	assert.Len(t, chart.Colors, 3)
	assert.Equal(t, "#440154", chart.Colors[0])
	assert.Equal(t, "#fde725", chart.Colors[2])
}

func TestBuildTrend_SkipsRowsWithoutPeriod(t *testing.T) {
	periods := monthly(2)
	src := &fakeSource{
		cols:    map[string][]float64{"allItemsYearOn": {1, 2, 3}},
		periods: []time.Time{periods[0], periods[1], {}},
	}
	chart, ok := BuildTrend(src)
	require.True(t, ok)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, []Point{
		{X: "2008-01-01", Y: 1},
		{X: "2008-02-01", Y: 2},
	}, chart.Series[0].Points)
}
