package models

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Value is a single CSV cell. Raw keeps the text as read; Num is set when
// the text parses as a finite float.
type Value struct {
	Raw     string
	Num     float64
	IsNum   bool
	Missing bool
}

// missingTokens are the cell texts read as missing data, matching the usual
// dataframe export conventions.
var missingTokens = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true,
	"-1.#IND": true, "-1.#QNAN": true, "1.#IND": true, "1.#QNAN": true,
	"-NaN": true, "-nan": true, "NaN": true, "nan": true,
	"<NA>": true, "N/A": true, "n/a": true, "NA": true,
	"NULL": true, "null": true, "None": true,
}

// NewValue parses a raw cell. Missing tokens and non-finite numbers yield an
// empty value.
func NewValue(raw string) Value {
	v := Value{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" || missingTokens[s] {
		v.Missing = true
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			v.Missing = true
			return v
		}
		v.Num = f
		v.IsNum = true
	}
	return v
}

// Empty reports whether the cell holds no data.
func (v Value) Empty() bool {
	return v.Missing || strings.TrimSpace(v.Raw) == ""
}

// Row maps column name to cell.
type Row map[string]Value

// Dataset is one loaded result table. Rows are never modified after load;
// transformations return a new Dataset sharing the row maps.
type Dataset struct {
	Path    string
	Columns []string
	Rows    []Row
	// Categorical holds columns forced to string semantics.
	Categorical map[string]bool
}

// HasColumn reports whether the header contains name.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether every non-empty cell of the column is a number
// and the column has not been coerced to categorical.
func (d *Dataset) IsNumeric(column string) bool {
	if d.Categorical[column] {
		return false
	}
	seen := false
	for _, r := range d.Rows {
		v := r[column]
		if v.Empty() {
			continue
		}
		if !v.IsNum {
			return false
		}
		seen = true
	}
	return seen
}

// ChartKind tags a ChartRequest.
type ChartKind string

const (
	KindHistogram ChartKind = "histogram"
	KindBar       ChartKind = "bar"
	KindBox       ChartKind = "box"
	KindScatter   ChartKind = "scatter"
)

// Source identifies one result CSV.
type Source struct {
	Folder   string
	Prefix   string
	Filespec string
	Suffix   string
}

// FileName joins the non-empty tokens: <prefix>_<filespec>_<suffix>.csv
func (s Source) FileName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Prefix, s.Filespec, s.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_") + ".csv"
}

// Path resolves the CSV location under the results root.
func (s Source) Path(resultsRoot string) string {
	return filepath.Join(resultsRoot, s.Folder, s.FileName())
}

// Bar placement modes for grouped bar charts.
const (
	BarModeRelative = "relative"
	BarModeGroup    = "group"
	BarModeOverlay  = "overlay"
)

// Normalization modes for histogram bars.
const (
	BarNormFraction = "fraction"
	BarNormPercent  = "percent"
)

// ChartRequest describes one chart. It is built up front by the batch driver
// and never modified afterwards.
type ChartRequest struct {
	Kind   ChartKind
	Source Source

	X     string
	Y     string // empty for histogram means "count rows"
	Color string

	ColorMap       map[string]string
	ColorScale     []string // endpoints for a numeric colour column
	CategoryOrders map[string][]string
	Labels         map[string]string
	Title          string

	// Filename empty means show interactively.
	Filename string
	Height   int // pixels; 0 uses the kind default

	BarNorm     string
	BarGap      float64
	BarMode     string
	XDescending bool
}

// Interactive reports whether the chart is shown instead of saved.
func (r ChartRequest) Interactive() bool {
	return r.Filename == ""
}

// Describe returns a short human readable identifier used in logs and errors.
func (r ChartRequest) Describe() string {
	y := r.Y
	if y == "" {
		y = "count"
	}
	return string(r.Kind) + " " + y + " by " + r.X + " from " + r.Source.FileName()
}

// Artifact is the outcome of one render call.
type Artifact struct {
	Kind        ChartKind `json:"kind"`
	Title       string    `json:"title"`
	SourcePath  string    `json:"source_path"`
	OutputPath  string    `json:"output_path,omitempty"`
	Interactive bool      `json:"interactive"`
}

// SourceRevision identifies the commit the results were read from.
type SourceRevision struct {
	SHA     string    `json:"sha"`
	Branch  string    `json:"branch"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// RunManifest lists everything a batch run produced.
type RunManifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	ResultsRoot string          `json:"results_root"`
	ImagesRoot  string          `json:"images_root"`
	Revision    *SourceRevision `json:"revision,omitempty"`
	Artifacts   []Artifact      `json:"artifacts"`
}
