package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"inflation-dashboard/internal/common"
	"inflation-dashboard/internal/ml"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// featureColumns are the model inputs, in training order.
var featureColumns = []string{
	common.ColFoodYearOn,
	common.ColCoreYearOn,
	common.ColMoneySupplyM3,
	common.ColMoneySupplyM2,
	common.ColNarrowMoney,
	common.ColCreditToPrivateSector,
	common.ColCBNBills,
}

func main() {
	var (
		outDir   = flag.String("out", ".", "Output directory")
		months   = flag.Int("months", 120, "Number of monthly observations to generate")
		testFrac = flag.Float64("test-fraction", 0.2, "Share of rows held out as the test set")
		trees    = flag.Int("trees", 25, "Number of trees in the sample forest")
		seed     = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *months < 10 {
		log.Fatal().Int("months", *months).Msg("need at least 10 months of data")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create output directory")
	}

	rng := rand.New(rand.NewSource(*seed))
	rows := generateMonths(rng, *months)

	split := int(float64(len(rows)) * (1 - *testFrac))
	if split < 1 || split >= len(rows) {
		log.Fatal().Float64("test_fraction", *testFrac).Msg("test fraction leaves an empty split")
	}
	train, test := rows[:split], rows[split:]

	model := fitForest(rng, train, *trees)

	must(writeTable(filepath.Join(*outDir, common.FileMergedData), mergedRecords(rows)))
	must(writeTable(filepath.Join(*outDir, common.FileXTest), featureRecords(test)))
	must(writeTable(filepath.Join(*outDir, common.FileYTest), labelRecords(test)))
	must(writeModel(filepath.Join(*outDir, common.DefaultModelPath), model))

	log.Info().
		Str("out", *outDir).
		Int("rows", len(rows)).
		Int("train", len(train)).
		Int("test", len(test)).
		Int("trees", *trees).
		Msg("Sample data generated")
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("failed to write sample data")
	}
}

type month struct {
	period   time.Time
	features []float64
	headline float64
}

// generateMonths simulates money aggregates on a growth path with noise and
// derives inflation from money growth with a lag-free linear relation.
func generateMonths(rng *rand.Rand, n int) []month {
	start := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	m3, m2, narrow, credit, bills := 15000.0, 13000.0, 5000.0, 14000.0, 600.0
	food, core := 11.0, 10.0

	out := make([]month, n)
	for i := range out {
		growth := 0.008 + rng.NormFloat64()*0.004
		m3 *= 1 + growth
		m2 *= 1 + growth*0.95 + rng.NormFloat64()*0.002
		narrow *= 1 + growth*1.1 + rng.NormFloat64()*0.003
		credit *= 1 + growth*0.9 + rng.NormFloat64()*0.002
		bills = math.Max(50, bills+rng.NormFloat64()*40)

		food = clamp(food+growth*40-0.3+rng.NormFloat64()*0.6, 5, 45)
		core = clamp(core+growth*25-0.2+rng.NormFloat64()*0.4, 4, 35)
		headline := 0.5*food + 0.4*core + 0.0001*bills + rng.NormFloat64()*0.3

		out[i] = month{
			period:   start.AddDate(0, i, 0),
			features: []float64{food, core, m3, m2, narrow, credit, bills},
			headline: headline,
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func format(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func mergedRecords(rows []month) [][]string {
	header := append([]string{common.ColPeriod, common.ColAllItemsYearOn}, featureColumns...)
	records := [][]string{header}
	for _, r := range rows {
		rec := []string{r.period.Format("2006-01-02"), format(r.headline)}
		for _, v := range r.features {
			rec = append(rec, format(v))
		}
		records = append(records, rec)
	}
	return records
}

func featureRecords(rows []month) [][]string {
	records := [][]string{append([]string{}, featureColumns...)}
	for _, r := range rows {
		rec := make([]string, len(r.features))
		for i, v := range r.features {
			rec[i] = format(v)
		}
		records = append(records, rec)
	}
	return records
}

func labelRecords(rows []month) [][]string {
	records := [][]string{{common.ColAllItemsYearOn}}
	for _, r := range rows {
		records = append(records, []string{format(r.headline)})
	}
	return records
}

func writeTable(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	df := dataframe.LoadRecords(records, dataframe.DetectTypes(false))
	if df.Err != nil {
		return fmt.Errorf("build %s: %w", path, df.Err)
	}
	return df.WriteCSV(f)
}

type forestArtifact struct {
	BestEstimator estimatorArtifact `json:"best_estimator"`
	BestParams    map[string]any    `json:"best_params"`
}

type estimatorArtifact struct {
	Type         string         `json:"type"`
	FeatureNames []string       `json:"feature_names"`
	Trees        []treeArtifact `json:"trees"`
}

type treeArtifact struct {
	Nodes []ml.Node `json:"nodes"`
}

// fitForest bags depth-two regression trees over bootstrap samples.
func fitForest(rng *rand.Rand, train []month, n int) forestArtifact {
	est := estimatorArtifact{Type: ml.TypeRandomForest, FeatureNames: featureColumns}
	for k := 0; k < n; k++ {
		sample := make([]month, len(train))
		for i := range sample {
			sample[i] = train[rng.Intn(len(train))]
		}
		est.Trees = append(est.Trees, treeArtifact{Nodes: fitTree(sample, 2)})
	}
	return forestArtifact{
		BestEstimator: est,
		BestParams:    map[string]any{"n_estimators": n, "max_depth": 2, "bootstrap": true},
	}
}

// fitTree grows a tree breadth-first, choosing at each node the split with
// the largest reduction in squared error.
func fitTree(rows []month, depth int) []ml.Node {
	var nodes []ml.Node
	var grow func(rows []month, depth int) int
	grow = func(rows []month, depth int) int {
		idx := len(nodes)
		nodes = append(nodes, ml.Node{Left: -1, Right: -1, Value: meanHeadline(rows)})
		if depth == 0 || len(rows) < 4 {
			return idx
		}
		feature, threshold, gain, ok := bestSplit(rows)
		if !ok {
			return idx
		}
		var left, right []month
		for _, r := range rows {
			if r.features[feature] <= threshold {
				left = append(left, r)
			} else {
				right = append(right, r)
			}
		}
		l := grow(left, depth-1)
		r := grow(right, depth-1)
		nodes[idx].Feature = feature
		nodes[idx].Threshold = threshold
		nodes[idx].Gain = gain
		nodes[idx].Left = l
		nodes[idx].Right = r
		return idx
	}
	grow(rows, depth)
	return nodes
}

func bestSplit(rows []month) (feature int, threshold, gain float64, ok bool) {
	parent := sse(rows)
	for f := range featureColumns {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = r.features[f]
		}
		sort.Float64s(values)
		for _, q := range []float64{0.25, 0.5, 0.75} {
			t := stat.Quantile(q, stat.Empirical, values, nil)
			var left, right []month
			for _, r := range rows {
				if r.features[f] <= t {
					left = append(left, r)
				} else {
					right = append(right, r)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			g := parent - sse(left) - sse(right)
			if !ok || g > gain {
				feature, threshold, gain, ok = f, t, g, true
			}
		}
	}
	return feature, threshold, gain, ok
}

func meanHeadline(rows []month) float64 {
	ys := make([]float64, len(rows))
	for i, r := range rows {
		ys[i] = r.headline
	}
	return stat.Mean(ys, nil)
}

func sse(rows []month) float64 {
	mean := meanHeadline(rows)
	total := 0.0
	for _, r := range rows {
		d := r.headline - mean
		total += d * d
	}
	return total
}

func writeModel(path string, model forestArtifact) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
