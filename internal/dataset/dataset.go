// Package dataset loads result tables from CSV and provides the row
// transformations applied before plotting.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/user/reach-plots-go/internal/models"
)

var (
	// ErrNotFound is returned when the resolved CSV path does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrParse is returned when the file is not valid tabular text.
	ErrParse = errors.New("invalid csv")
	// ErrMissingColumn is returned when a referenced column is absent.
	ErrMissingColumn = errors.New("missing column")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load resolves src under resultsRoot and parses the file.
func Load(resultsRoot string, src models.Source) (*models.Dataset, error) {
	return LoadFile(src.Path(resultsRoot))
}

// LoadFile parses the CSV at path. The first record is the header.
func LoadFile(path string) (*models.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ds, err := Parse(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ds.Path = path
	return ds, nil
}

// Parse reads a header plus rows from r.
func Parse(r io.Reader) (*models.Dataset, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrParse)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	seen := make(map[string]bool, len(header))
	for _, col := range header {
		if seen[col] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrParse, col)
		}
		seen[col] = true
	}

	ds := &models.Dataset{
		Columns:     header,
		Categorical: map[string]bool{},
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		row := make(models.Row, len(header))
		for i, col := range header {
			row[col] = models.NewValue(record[i])
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// Require checks that every non-empty name is a column of ds.
func Require(ds *models.Dataset, columns ...string) error {
	for _, c := range columns {
		if c == "" {
			continue
		}
		if !ds.HasColumn(c) {
			return fmt.Errorf("%w %q in %s", ErrMissingColumn, c, ds.Path)
		}
	}
	return nil
}

// SortedBy returns a copy of ds with rows stably ordered by column. Numeric
// columns compare by value, others byte-wise; empty cells go last.
func SortedBy(ds *models.Dataset, column string) (*models.Dataset, error) {
	if err := Require(ds, column); err != nil {
		return nil, err
	}
	out := shallowCopy(ds)
	numeric := ds.IsNumeric(column)
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i][column], out.Rows[j][column]
		if a.Empty() || b.Empty() {
			return !a.Empty() && b.Empty()
		}
		if numeric {
			return a.Num < b.Num
		}
		return a.Raw < b.Raw
	})
	return out, nil
}

// AsCategorical returns a copy of ds in which column is treated as text.
func AsCategorical(ds *models.Dataset, column string) (*models.Dataset, error) {
	if err := Require(ds, column); err != nil {
		return nil, err
	}
	out := shallowCopy(ds)
	out.Categorical[column] = true
	return out, nil
}

func shallowCopy(ds *models.Dataset) *models.Dataset {
	out := &models.Dataset{
		Path:        ds.Path,
		Columns:     append([]string(nil), ds.Columns...),
		Rows:        append([]models.Row(nil), ds.Rows...),
		Categorical: make(map[string]bool, len(ds.Categorical)+1),
	}
	for k, v := range ds.Categorical {
		out.Categorical[k] = v
	}
	return out
}
