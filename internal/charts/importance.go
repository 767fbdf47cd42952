package charts

// viridis samples, darkest first.
var viridis = []string{
	"#440154", "#481a6c", "#472f7d", "#414487", "#39568c",
	"#31688e", "#2a788e", "#23888e", "#1f988b", "#22a884",
	"#35b779", "#54c568", "#7ad151", "#a5db36", "#d2e21b", "#fde725",
}

// BuildImportanceBars draws ranked feature importances as horizontal bars.
func BuildImportanceBars(labels []string, values []float64) *BarChart {
	colors := make([]string, len(labels))
	for i := range labels {
		idx := 0
		if len(labels) > 1 {
			idx = i * (len(viridis) - 1) / (len(labels) - 1)
		}
		colors[i] = viridis[idx]
	}

	return &BarChart{
		Title:   "Top 15 Feature Importances",
		XLabel:  "Importance Score",
		YLabel:  "Feature Name",
		Labels:  labels,
		Values:  values,
		Colors:  colors,
		Palette: "viridis",
	}
}
