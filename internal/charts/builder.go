package charts

import (
	"fmt"
	"math"
	"sort"

	"inflation-dashboard/internal/common"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var trendColors = map[string]string{
	common.ColAllItemsYearOn: "#1f77b4",
	common.ColFoodYearOn:     "#ff7f0e",
	common.ColCoreYearOn:     "#2ca02c",
}

var histogramColors = map[string]string{
	common.ColAllItemsYearOn: "skyblue",
	common.ColMoneySupplyM3:  "lightgreen",
}

// Build produces every chart whose inputs are present.
func Build(src Source, opts Options) Analysis {
	var a Analysis

	if trend, ok := BuildTrend(src); ok {
		a.Trend = trend
	} else {
		a.Skipped = append(a.Skipped, "trend: no period column")
	}

	if heatmap, ok := BuildCorrelation(src, common.CorrelationCandidates); ok {
		a.Correlation = heatmap
	} else {
		a.Skipped = append(a.Skipped, "correlation: fewer than 2 candidate columns")
	}

	for _, col := range []string{common.ColAllItemsYearOn, common.ColMoneySupplyM3} {
		h, ok := BuildHistogram(src, col, opts)
		if !ok {
			a.Skipped = append(a.Skipped, fmt.Sprintf("distribution: %s unavailable", col))
			continue
		}
		a.Distributions = append(a.Distributions, *h)
	}

	if len(a.Skipped) > 0 {
		log.Warn().Strs("skipped", a.Skipped).Msg("Analysis narrowed by missing columns")
	}
	return a
}

// BuildTrend plots each inflation column present against period. It is only
// available when the dataset has periods; zero present columns still yields
// an (empty) chart.
func BuildTrend(src Source) (*TrendChart, bool) {
	periods, ok := src.Periods()
	if !ok {
		return nil, false
	}

	chart := &TrendChart{
		Title:       "Inflation Trends Over Time (YoY %)",
		XLabel:      "Period",
		YLabel:      "Inflation Rate (%)",
		LegendTitle: "Inflation Type",
	}

	for _, col := range common.InflationColumns {
		if !src.Has(col) {
			continue
		}
		values := src.Floats(col)
		points := make([]Point, 0, len(values))
		for i, v := range values {
			if i >= len(periods) || periods[i].IsZero() || math.IsNaN(v) {
				continue
			}
			points = append(points, Point{X: periods[i].Format("2006-01-02"), Y: v})
		}
		chart.Series = append(chart.Series, LineSeries{Name: col, Color: trendColors[col], Points: points})
	}

	return chart, true
}

// BuildCorrelation computes the Pearson correlation matrix over the
// candidates that are present. Fewer than two columns yields no chart.
func BuildCorrelation(src Source, candidates []string) (*Heatmap, bool) {
	var cols []string
	for _, c := range candidates {
		if src.Has(c) {
			cols = append(cols, c)
		}
	}
	if len(cols) < 2 {
		return nil, false
	}

	values := make([][]float64, len(cols))
	for i, c := range cols {
		values[i] = src.Floats(c)
	}

	matrix := make([][]float64, len(cols))
	for i := range cols {
		matrix[i] = make([]float64, len(cols))
	}
	for i := range cols {
		matrix[i][i] = 1
		for j := i + 1; j < len(cols); j++ {
			r := Pearson(values[i], values[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}

	return &Heatmap{
		Title:   "Correlation Matrix",
		Columns: cols,
		Values:  matrix,
		Palette: "Blues",
	}, true
}

// Pearson returns the correlation of x and y over rows where both are
// numbers. It is NaN when fewer than two complete pairs remain or either side
// is constant.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if stat.StdDev(xs, nil) == 0 || stat.StdDev(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// BuildHistogram bins a column into opts.HistogramBins equal-width bins and
// overlays a Gaussian kernel density estimate scaled to counts.
func BuildHistogram(src Source, col string, opts Options) (*Histogram, bool) {
	if !src.Has(col) {
		return nil, false
	}

	var xs []float64
	for _, v := range src.Floats(col) {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return nil, false
	}
	sort.Float64s(xs)

	bins := opts.HistogramBins
	if bins < 1 {
		bins = 30
	}

	lo, hi := xs[0], xs[len(xs)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)

	// stat.Histogram treats the last divider as exclusive.
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[len(dividers)-1] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, xs, nil)

	h := &Histogram{
		Column: col,
		Title:  "Distribution of " + col,
		Color:  histogramColors[col],
		Edges:  edges,
		Counts: counts,
	}

	binWidth := (hi - lo) / float64(bins)
	h.Density = kde(xs, lo, hi, opts.KDEPoints, float64(len(xs))*binWidth)
	return h, true
}

// kde evaluates a Gaussian KDE with Scott's bandwidth on points evenly
// spaced over [lo, hi], multiplied by scale.
func kde(sorted []float64, lo, hi float64, points int, scale float64) []XY {
	if len(sorted) < 2 {
		return nil
	}
	sd := stat.StdDev(sorted, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}
	if points < 2 {
		points = 200
	}

	bandwidth := sd * math.Pow(float64(len(sorted)), -0.2)
	kernel := distuv.Normal{Mu: 0, Sigma: bandwidth}

	grid := floats.Span(make([]float64, points), lo, hi)
	out := make([]XY, len(grid))
	n := float64(len(sorted))
	for i, x := range grid {
		sum := 0.0
		for _, xi := range sorted {
			sum += kernel.Prob(x - xi)
		}
		out[i] = XY{X: x, Y: sum / n * scale}
	}
	return out
}
