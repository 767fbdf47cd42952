package data

import (
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog/log"
)

// TestSet pairs the held-out feature table with its labels. Rows are aligned
// by position: the caller guarantees x and y share the same row order, there
// is no join key.
type TestSet struct {
	X dataframe.DataFrame
	Y dataframe.DataFrame
}

// LoadTestSet reads the fixed x_test and y_test tables.
func LoadTestSet(xPath, yPath string) (*TestSet, error) {
	x, err := readTableFile(xPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load test features: %w", err)
	}
	y, err := readTableFile(yPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load test labels: %w", err)
	}
	if y.Ncol() == 0 {
		return nil, fmt.Errorf("test labels %s have no columns", yPath)
	}

	log.Info().
		Str("x_test", xPath).
		Str("y_test", yPath).
		Int("rows", x.Nrow()).
		Int("features", x.Ncol()).
		Msg("Test set loaded")

	return &TestSet{X: x, Y: y}, nil
}

// Labels returns the first label column as numbers; unparseable cells are NaN.
func (ts *TestSet) Labels() []float64 {
	if ts.Y.Ncol() == 0 {
		return nil
	}
	return parseFloats(ts.Y.Col(ts.Y.Names()[0]).Records())
}

// CheckAligned verifies that features and labels have the same row count.
// Row order consistency cannot be checked without a key and remains the
// caller's responsibility.
func (ts *TestSet) CheckAligned() error {
	if ts.X.Nrow() != ts.Y.Nrow() {
		return fmt.Errorf("x_test has %d rows but y_test has %d", ts.X.Nrow(), ts.Y.Nrow())
	}
	return nil
}

func readTableFile(path string) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer file.Close()

	return ReadTable(file)
}
