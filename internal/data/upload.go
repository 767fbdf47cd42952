package data

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Upload is a user-supplied feature table. Its schema is not validated here;
// mismatches surface when the model predicts on it.
type Upload struct {
	Name  string
	Frame dataframe.DataFrame
}

// Rows returns the number of uploaded records.
func (u *Upload) Rows() int {
	return u.Frame.Nrow()
}

// ReadUpload parses an uploaded file. Spreadsheets (.xlsx) are read from
// their first sheet; anything else is treated as CSV. A UTF-8 or UTF-16 byte
// order mark is stripped before parsing.
func ReadUpload(name string, r io.Reader) (*Upload, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("uploaded file %q is empty", name)
	}

	var df dataframe.DataFrame
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		df, err = readWorkbook(raw)
	default:
		df, err = ReadTable(stripBOM(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", name, err)
	}

	return &Upload{Name: name, Frame: df}, nil
}

func stripBOM(raw []byte) io.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(bytes.NewReader(raw), decoder)
}

func readWorkbook(raw []byte) (dataframe.DataFrame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	// GetRows trims trailing empty cells, so pad every row to the header width.
	width := len(rows[0])
	records := make([][]string, len(rows))
	for i, row := range rows {
		record := make([]string, width)
		copy(record, row)
		records[i] = record
	}
	if len(records) == 1 {
		return EmptyTable(records[0])
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}
