// Package charts turns dataset columns into chart descriptions. It never
// fails: a missing column narrows what is produced and a chart whose inputs
// are all absent is left nil.
package charts

import (
	"time"
)

// Source is the read-only view of a dataset that the chart builders need.
type Source interface {
	Has(col string) bool
	Floats(col string) []float64
	Periods() ([]time.Time, bool)
}

// Options tunes chart construction.
type Options struct {
	HistogramBins int
	KDEPoints     int
}

// DefaultOptions matches the dashboard defaults: 30 bins, 200 density points.
func DefaultOptions() Options {
	return Options{HistogramBins: 30, KDEPoints: 200}
}

// Point is one (x, y) sample on a line or curve.
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

type LineSeries struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

type TrendChart struct {
	Title       string       `json:"title"`
	XLabel      string       `json:"xLabel"`
	YLabel      string       `json:"yLabel"`
	LegendTitle string       `json:"legendTitle"`
	Series      []LineSeries `json:"series"`
}

// Heatmap is a square correlation matrix over Columns.
type Heatmap struct {
	Title   string      `json:"title"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"-"`
	Palette string      `json:"palette"`
}

// Histogram holds bin counts plus a density curve scaled to counts.
type Histogram struct {
	Column  string    `json:"column"`
	Title   string    `json:"title"`
	Color   string    `json:"color"`
	Edges   []float64 `json:"edges"`
	Counts  []float64 `json:"counts"`
	Density []XY      `json:"density"`
}

type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BarChart is a horizontal bar chart: values on the value axis, labels on
// the category axis.
type BarChart struct {
	Title   string    `json:"title"`
	XLabel  string    `json:"xLabel"`
	YLabel  string    `json:"yLabel"`
	Labels  []string  `json:"labels"`
	Values  []float64 `json:"values"`
	Colors  []string  `json:"colors"`
	Palette string    `json:"palette"`
}

// Analysis is the exploratory section. Nil charts were gated off.
type Analysis struct {
	Trend         *TrendChart `json:"trend,omitempty"`
	Correlation   *Heatmap    `json:"correlation,omitempty"`
	Distributions []Histogram `json:"distributions"`
	Skipped       []string    `json:"skipped,omitempty"`
}

// Empty reports whether nothing could be drawn.
func (a Analysis) Empty() bool {
	return a.Trend == nil && a.Correlation == nil && len(a.Distributions) == 0
}
