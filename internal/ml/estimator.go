package ml

import (
	"encoding/json"
	"fmt"
)

const (
	TypeLinearRegression = "linear_regression"
	TypeDecisionTree     = "decision_tree"
	TypeRandomForest     = "random_forest"
	TypeGradientBoosting = "gradient_boosting"
)

type estimatorJSON struct {
	Type               string     `json:"type"`
	FeatureNames       []string   `json:"feature_names"`
	Coef               []float64  `json:"coef"`
	Intercept          float64    `json:"intercept"`
	Nodes              []Node     `json:"nodes"`
	Trees              []treeJSON `json:"trees"`
	LearningRate       float64    `json:"learning_rate"`
	Init               float64    `json:"init"`
	FeatureImportances []float64  `json:"feature_importances"`
}

type treeJSON struct {
	Nodes []Node `json:"nodes"`
}

// Node is one node of a regression tree. Leaves have Left < 0.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Gain      float64 `json:"gain,omitempty"`
}

func decodeEstimator(raw json.RawMessage) (Estimator, error) {
	var doc estimatorJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode estimator: %w", err)
	}

	switch doc.Type {
	case TypeLinearRegression:
		return newLinear(doc)
	case TypeDecisionTree:
		tree, err := newTree(doc.Nodes, doc.FeatureNames)
		if err != nil {
			return nil, err
		}
		return newEnsemble(doc, []*Tree{tree}, false)
	case TypeRandomForest, TypeGradientBoosting:
		if len(doc.Trees) == 0 {
			return nil, fmt.Errorf("%s has no trees", doc.Type)
		}
		trees := make([]*Tree, len(doc.Trees))
		for i, tj := range doc.Trees {
			tree, err := newTree(tj.Nodes, doc.FeatureNames)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = tree
		}
		return newEnsemble(doc, trees, doc.Type == TypeGradientBoosting)
	case "":
		return nil, fmt.Errorf("estimator type is missing")
	default:
		return nil, fmt.Errorf("unsupported estimator type %q", doc.Type)
	}
}

// LinearRegression is y = intercept + coef·x. It has no importance capability.
type LinearRegression struct {
	names     []string
	coef      []float64
	intercept float64
}

func newLinear(doc estimatorJSON) (*LinearRegression, error) {
	if len(doc.Coef) == 0 {
		return nil, fmt.Errorf("linear_regression has no coefficients")
	}
	if len(doc.FeatureNames) > 0 && len(doc.FeatureNames) != len(doc.Coef) {
		return nil, fmt.Errorf("linear_regression has %d coefficients for %d features", len(doc.Coef), len(doc.FeatureNames))
	}
	return &LinearRegression{names: doc.FeatureNames, coef: doc.Coef, intercept: doc.Intercept}, nil
}

func (l *LinearRegression) Type() string           { return TypeLinearRegression }
func (l *LinearRegression) FeatureNames() []string { return l.names }
func (l *LinearRegression) NumFeatures() int       { return len(l.coef) }

func (l *LinearRegression) PredictRow(x []float64) float64 {
	y := l.intercept
	for i, c := range l.coef {
		y += c * x[i]
	}
	return y
}

// Tree is a binary regression tree stored as a flat node array rooted at 0.
type Tree struct {
	nodes      []Node
	maxFeature int
}

func newTree(nodes []Node, names []string) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("tree has no nodes")
	}
	maxFeature := -1
	for i, n := range nodes {
		if n.Left < 0 {
			continue
		}
		if n.Left >= len(nodes) || n.Right < 0 || n.Right >= len(nodes) {
			return nil, fmt.Errorf("node %d has child out of range", i)
		}
		if n.Left <= i || n.Right <= i {
			return nil, fmt.Errorf("node %d must point to later nodes", i)
		}
		if n.Feature < 0 {
			return nil, fmt.Errorf("node %d splits on negative feature %d", i, n.Feature)
		}
		if len(names) > 0 && n.Feature >= len(names) {
			return nil, fmt.Errorf("node %d splits on feature %d but only %d features are named", i, n.Feature, len(names))
		}
		if n.Feature > maxFeature {
			maxFeature = n.Feature
		}
	}
	return &Tree{nodes: nodes, maxFeature: maxFeature}, nil
}

// Predict walks from the root; x[feature] <= threshold goes left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for t.nodes[i].Left >= 0 {
		n := t.nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.nodes[i].Value
}

func (t *Tree) addGains(into []float64) {
	for _, n := range t.nodes {
		if n.Left >= 0 && n.Feature < len(into) {
			into[n.Feature] += n.Gain
		}
	}
}

// TreeEnsemble covers single trees, random forests (mean of trees) and
// gradient boosting (init + learning_rate * sum of trees).
type TreeEnsemble struct {
	kind         string
	names        []string
	trees        []*Tree
	boosted      bool
	learningRate float64
	init         float64
	numFeatures  int
	importances  []float64
}

func newEnsemble(doc estimatorJSON, trees []*Tree, boosted bool) (*TreeEnsemble, error) {
	numFeatures := len(doc.FeatureNames)
	if numFeatures == 0 {
		for _, t := range trees {
			if t.maxFeature+1 > numFeatures {
				numFeatures = t.maxFeature + 1
			}
		}
	}

	e := &TreeEnsemble{
		kind:         doc.Type,
		names:        doc.FeatureNames,
		trees:        trees,
		boosted:      boosted,
		learningRate: doc.LearningRate,
		init:         doc.Init,
		numFeatures:  numFeatures,
	}
	if boosted && e.learningRate == 0 {
		e.learningRate = 0.1
	}

	switch {
	case len(doc.FeatureImportances) == 0:
		e.importances = e.gainImportances()
	case len(doc.FeatureImportances) == numFeatures:
		e.importances = doc.FeatureImportances
	default:
		return nil, fmt.Errorf("%s has %d importances for %d features", doc.Type, len(doc.FeatureImportances), numFeatures)
	}
	return e, nil
}

// gainImportances normalizes the per-feature sum of split gains to 1.
func (e *TreeEnsemble) gainImportances() []float64 {
	scores := make([]float64, e.numFeatures)
	for _, t := range e.trees {
		t.addGains(scores)
	}
	total := 0.0
	for _, s := range scores {
		total += s
	}
	if total > 0 {
		for i := range scores {
			scores[i] /= total
		}
	}
	return scores
}

func (e *TreeEnsemble) Type() string           { return e.kind }
func (e *TreeEnsemble) FeatureNames() []string { return e.names }
func (e *TreeEnsemble) NumFeatures() int       { return e.numFeatures }

func (e *TreeEnsemble) FeatureImportances() []float64 {
	out := make([]float64, len(e.importances))
	copy(out, e.importances)
	return out
}

func (e *TreeEnsemble) PredictRow(x []float64) float64 {
	sum := 0.0
	for _, t := range e.trees {
		sum += t.Predict(x)
	}
	if e.boosted {
		return e.init + e.learningRate*sum
	}
	return sum / float64(len(e.trees))
}
