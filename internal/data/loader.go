// Package data loads the merged macroeconomic dataset, the fixed test set and
// user uploads into in-memory tables.
//
// Every table is held as string columns so that downloads reproduce the
// source text; numeric views are derived on demand. Column presence is never
// assumed: callers ask Has before reading a column.
package data

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"inflation-dashboard/internal/common"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog/log"
)

// periodLayouts are tried in order when parsing the period column.
var periodLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan-2006",
	"Jan-06",
	"January 2006",
	"Jan 2006",
}

// Dataset is the merged time series, sorted by period when one is present.
// It is immutable once loaded.
type Dataset struct {
	frame     dataframe.DataFrame
	periods   []time.Time
	hasPeriod bool
	warning   string
	source    string
}

// LoadDataset reads the merged dataset from a CSV file.
func LoadDataset(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open merged dataset: %w", err)
	}
	defer file.Close()

	ds, err := ReadDataset(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged dataset %s: %w", path, err)
	}
	ds.source = path

	log.Info().
		Str("file", path).
		Int("rows", ds.Rows()).
		Int("columns", len(ds.Columns())).
		Bool("has_period", ds.hasPeriod).
		Msg("Merged dataset loaded")

	return ds, nil
}

// ReadDataset parses a merged dataset. A missing or unparseable period
// column degrades the dataset (HasPeriod false, Warning set) rather than
// failing.
func ReadDataset(r io.Reader) (*Dataset, error) {
	df, err := ReadTable(r)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{frame: df}
	if !hasColumn(df, common.ColPeriod) {
		ds.warning = "The dataset has no period column; time-based views are unavailable."
		log.Warn().Msg("Merged dataset has no period column, trend chart disabled")
		return ds, nil
	}

	periods, layout, missing, err := parsePeriods(df.Col(common.ColPeriod).Records())
	if err != nil {
		ds.warning = fmt.Sprintf("The period column could not be parsed (%v); time-based views are unavailable.", err)
		log.Warn().Err(err).Msg("Period column unparseable, trend chart disabled")
		return ds, nil
	}
	if missing > 0 {
		ds.warning = fmt.Sprintf("%d period values are blank or not dates; those rows are listed last and left out of the trend chart.", missing)
		log.Warn().Int("rows", missing).Msg("Period values missing, rows excluded from trend chart")
	}

	order := make([]int, len(periods))
	for i := range order {
		order[i] = i
	}
	// Rows without a period sort after every dated row.
	sort.SliceStable(order, func(i, j int) bool {
		a, b := periods[order[i]], periods[order[j]]
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})

	raw := df.Col(common.ColPeriod).Records()
	sorted := make([]time.Time, len(periods))
	normalized := make([]string, len(periods))
	for i, idx := range order {
		sorted[i] = periods[idx]
		if sorted[i].IsZero() {
			normalized[i] = strings.TrimSpace(raw[idx])
			continue
		}
		normalized[i] = sorted[i].Format(layout)
	}

	if len(order) > 0 {
		df = df.Subset(order)
		if df.Err != nil {
			return nil, fmt.Errorf("failed to sort by period: %w", df.Err)
		}
		df = df.Mutate(series.New(normalized, series.String, common.ColPeriod))
		if df.Err != nil {
			return nil, fmt.Errorf("failed to normalize period column: %w", df.Err)
		}
	}

	ds.frame = df
	ds.periods = sorted
	ds.hasPeriod = true
	return ds, nil
}

// parsePeriods parses each value with the first layout that accepts it.
// Blank or unrecognised cells come back as the zero time and are counted as
// missing. It fails only when there are values and none of them parse. The
// returned layout is used to normalize the parsed values.
func parsePeriods(values []string) (periods []time.Time, layout string, missing int, err error) {
	periods = make([]time.Time, len(values))
	allMidnight := true
	for i, v := range values {
		t, ok := parsePeriod(v)
		if !ok {
			missing++
			continue
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
			allMidnight = false
		}
		periods[i] = t
	}

	if len(values) > 0 && missing == len(values) {
		return nil, "", 0, fmt.Errorf("no recognised date layout")
	}
	if allMidnight {
		return periods, "2006-01-02", missing, nil
	}
	return periods, "2006-01-02 15:04:05", missing, nil
}

func parsePeriod(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range periodLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Frame returns the underlying table.
func (d *Dataset) Frame() dataframe.DataFrame {
	return d.frame
}

// Rows returns the number of records.
func (d *Dataset) Rows() int {
	return d.frame.Nrow()
}

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string {
	return d.frame.Names()
}

// Has reports whether the named column is present.
func (d *Dataset) Has(col string) bool {
	return hasColumn(d.frame, col)
}

// Floats returns the numeric view of a column. Cells that do not parse are NaN.
// It returns nil when the column is absent.
func (d *Dataset) Floats(col string) []float64 {
	if !d.Has(col) {
		return nil
	}
	return parseFloats(d.frame.Col(col).Records())
}

// Periods returns the sorted periods and whether time-based views are available.
func (d *Dataset) Periods() ([]time.Time, bool) {
	return d.periods, d.hasPeriod
}

// Warning describes a non-fatal degradation, if any.
func (d *Dataset) Warning() string {
	return d.warning
}

// Source is the path the dataset was loaded from.
func (d *Dataset) Source() string {
	return d.source
}

// CSV serializes the dataset as it is held in memory: header row, no index
// column, comma separated.
func (d *Dataset) CSV() ([]byte, error) {
	return EncodeCSV(d.frame)
}

// ReadTable reads a CSV table keeping every cell as text. A header row with
// no records yields an empty table with those columns.
func ReadTable(r io.Reader) (dataframe.DataFrame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read CSV: %w", err)
	}

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		if header, ok := headerOnly(raw); ok {
			return EmptyTable(header)
		}
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse CSV: %w", df.Err)
	}
	return df, nil
}

// EmptyTable builds a zero-row table with the given text columns.
func EmptyTable(header []string) (dataframe.DataFrame, error) {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to build empty table: %w", df.Err)
	}
	return df, nil
}

func headerOnly(raw []byte) ([]string, bool) {
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil || len(records) != 1 {
		return nil, false
	}
	return records[0], true
}

// EncodeCSV writes a table as UTF-8 CSV with a header row.
func EncodeCSV(df dataframe.DataFrame) ([]byte, error) {
	var buf bytes.Buffer
	if err := df.WriteCSV(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// FloatTable builds a table of numeric columns. Values are formatted at full
// precision so downloads do not lose digits.
func FloatTable(names []string, columns [][]float64) (dataframe.DataFrame, error) {
	if len(names) != len(columns) {
		return dataframe.DataFrame{}, fmt.Errorf("got %d column names for %d columns", len(names), len(columns))
	}
	cols := make([]series.Series, len(columns))
	for i, values := range columns {
		cols[i] = series.New(FormatFloats(values), series.String, names[i])
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// FormatFloats renders values with the shortest representation that round-trips.
func FormatFloats(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatFloat(v)
	}
	return out
}

// FormatFloat renders v with the shortest representation that round-trips.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Head returns up to n rows of a table as records, header first.
func Head(df dataframe.DataFrame, n int) [][]string {
	records := df.Records()
	if len(records) > n+1 {
		records = records[:n+1]
	}
	return records
}

func hasColumn(df dataframe.DataFrame, col string) bool {
	for _, name := range df.Names() {
		if name == col {
			return true
		}
	}
	return false
}

func parseFloats(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			f = math.NaN()
		}
		out[i] = f
	}
	return out
}
