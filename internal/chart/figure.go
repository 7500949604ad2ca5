// Package chart turns a loaded dataset and a chart request into a Figure and
// renders it either to a raster image (gonum/plot) or to an interactive page
// (go-echarts).
package chart

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/user/reach-plots-go/internal/dataset"
	"github.com/user/reach-plots-go/internal/models"
)

// DepartureTimeColumn holds time-of-day values that must be plotted as
// discrete categories.
const DepartureTimeColumn = "departure time"

var (
	ErrUnknownKind = errors.New("unknown chart kind")
	ErrNoData      = errors.New("no data to plot")
	ErrNotNumeric  = errors.New("column is not numeric")
)

// Figure is the backend independent description of a chart.
type Figure struct {
	Kind        models.ChartKind
	Title       string
	XLabel      string
	YLabel      string
	LegendTitle string

	// Categories are the x-axis categories in display order. Empty for scatter.
	Categories []string
	Series     []Series

	BarMode string
	BarGap  float64
	// Height in pixels, 0 means the renderer default.
	Height int
}

// Series is one colour group. Only the field matching the figure kind is set.
type Series struct {
	Name  string
	Color string

	Values  []float64   // bar, one per category
	Samples [][]float64 // box, one slice per category
	Points  []Point     // scatter
}

// Point is one scatter sample.
type Point struct{ X, Y float64 }

// Build applies the ordering and labelling transforms for req to ds.
func Build(ds *models.Dataset, req models.ChartRequest) (*Figure, error) {
	if req.X == "" {
		return nil, fmt.Errorf("%s: x column is required", req.Describe())
	}
	if req.Y == "" && req.Kind != models.KindHistogram {
		return nil, fmt.Errorf("%s: y column is required", req.Describe())
	}
	if err := dataset.Require(ds, req.X, req.Y, req.Color); err != nil {
		return nil, err
	}

	var err error
	if req.X == DepartureTimeColumn && req.Kind != models.KindScatter {
		if ds, err = dataset.AsCategorical(ds, req.X); err != nil {
			return nil, err
		}
	}

	var fig *Figure
	switch req.Kind {
	case models.KindHistogram:
		fig, err = buildHistogram(ds, req)
	case models.KindBar:
		fig, err = buildBar(ds, req)
	case models.KindBox:
		fig, err = buildBox(ds, req)
	case models.KindScatter:
		fig, err = buildScatter(ds, req)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, req.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ds.Path, err)
	}

	fig.Kind = req.Kind
	fig.Title = Title(req)
	fig.XLabel = label(req, req.X)
	if req.Color != "" {
		fig.LegendTitle = label(req, req.Color)
	}
	if req.Height > 0 {
		fig.Height = req.Height
	}
	return fig, nil
}

// Title returns the explicit title or the synthesized default.
func Title(req models.ChartRequest) string {
	if req.Title != "" {
		if req.Kind == models.KindBox {
			return strings.ReplaceAll(req.Title, "_", " ")
		}
		return req.Title
	}
	switch req.Kind {
	case models.KindScatter:
		return Capitalize(strings.ReplaceAll(req.Y, "_", " ")) + " / " + strings.ReplaceAll(req.X, "_", " ")
	case models.KindHistogram:
		if req.Y == "" {
			return ""
		}
	}
	return DefaultTitle(req.Y, req.Source.Filespec)
}

// DefaultTitle builds "<Column> in <filespec>" with underscores as spaces.
func DefaultTitle(column, filespec string) string {
	return Capitalize(strings.ReplaceAll(column, "_", " ")) + " in " + strings.ReplaceAll(filespec, "_", " ")
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

func label(req models.ChartRequest, column string) string {
	if l, ok := req.Labels[column]; ok {
		return l
	}
	return column
}

// categories lists the distinct non-empty values of column. Values named in
// preferred come first in that order; the rest follow in appearance order,
// or numerically when sortNumeric is set and the column is numeric.
func categories(ds *models.Dataset, column string, preferred []string, sortNumeric bool) []string {
	var seen []string
	nums := map[string]float64{}
	index := map[string]bool{}
	for _, r := range ds.Rows {
		v := r[column]
		if v.Empty() || index[v.Raw] {
			continue
		}
		index[v.Raw] = true
		seen = append(seen, v.Raw)
		nums[v.Raw] = v.Num
	}
	if sortNumeric && ds.IsNumeric(column) {
		sort.SliceStable(seen, func(i, j int) bool { return nums[seen[i]] < nums[seen[j]] })
	}

	out := make([]string, 0, len(seen))
	used := map[string]bool{}
	for _, p := range preferred {
		if index[p] && !used[p] {
			out = append(out, p)
			used[p] = true
		}
	}
	for _, s := range seen {
		if !used[s] {
			out = append(out, s)
		}
	}
	return out
}

// colorGroups returns the colour categories, or a single unnamed group when
// the request has no colour column.
func colorGroups(ds *models.Dataset, req models.ChartRequest) []string {
	if req.Color == "" {
		return []string{""}
	}
	return categories(ds, req.Color, req.CategoryOrders[req.Color], false)
}

// groupOf returns the colour group of a row and whether the row belongs to
// any group.
func groupOf(row models.Row, req models.ChartRequest) (string, bool) {
	if req.Color == "" {
		return "", true
	}
	v := row[req.Color]
	return v.Raw, !v.Empty()
}

func indexOf(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[v] = i
	}
	return m
}
