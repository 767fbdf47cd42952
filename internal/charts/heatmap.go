package charts

import (
	"fmt"
	"math"
)

// HeatCell is one rendered matrix cell.
type HeatCell struct {
	Text       string
	Background string
	Foreground string
}

// Cells renders the matrix with 2-decimal annotations and a Blues colour ramp
// spanning the observed value range.
func (h *Heatmap) Cells() [][]HeatCell {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range h.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	cells := make([][]HeatCell, len(h.Values))
	for i, row := range h.Values {
		cells[i] = make([]HeatCell, len(row))
		for j, v := range row {
			cells[i][j] = heatCell(v, lo, hi)
		}
	}
	return cells
}

// Annotation formats a correlation value the way the heatmap shows it.
func Annotation(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}

func heatCell(v, lo, hi float64) HeatCell {
	if math.IsNaN(v) {
		return HeatCell{Text: Annotation(v), Background: "#ffffff", Foreground: "#000000"}
	}

	t := 1.0
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	// Blues ramp: #f7fbff -> #08306b
	r := lerp(247, 8, t)
	g := lerp(251, 48, t)
	b := lerp(255, 107, t)

	fg := "#000000"
	if t > 0.6 {
		fg = "#ffffff"
	}
	return HeatCell{
		Text:       Annotation(v),
		Background: fmt.Sprintf("#%02x%02x%02x", r, g, b),
		Foreground: fg,
	}
}

func lerp(a, b int, t float64) int {
	return a + int(math.Round(float64(b-a)*t))
}
