package ml

import (
	"fmt"
	"math"
	"sort"
)

// FeatureScore is one ranked importance.
type FeatureScore struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// RankImportances pairs scores with feature names by position, sorts them
// descending and keeps the first top entries. NaN scores sort last; ties keep
// feature order.
func RankImportances(features []string, scores []float64, top int) ([]FeatureScore, error) {
	if len(features) != len(scores) {
		return nil, fmt.Errorf("%d importances for %d features", len(scores), len(features))
	}

	ranked := make([]FeatureScore, len(features))
	for i, name := range features {
		ranked[i] = FeatureScore{Feature: name, Importance: scores[i]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Importance, ranked[j].Importance
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})

	if top >= 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked, nil
}

// RankedImportances ranks the model's importances when it has them. The
// training schema names features; fallback is used when the artifact did
// not record names. ok is false when the model has no importance capability.
func (m *Model) RankedImportances(fallback []string, top int) (ranked []FeatureScore, ok bool, err error) {
	if m == nil || !m.Importance.Available() {
		return nil, false, nil
	}

	names := m.Estimator.FeatureNames()
	if len(names) == 0 {
		names = fallback
	}

	ranked, err = RankImportances(names, m.Importance.Scores(), top)
	if err != nil {
		return nil, true, err
	}
	return ranked, true, nil
}

// FormatImportance renders a score with four decimals.
func FormatImportance(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
