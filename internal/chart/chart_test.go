package chart

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/user/reach-plots-go/internal/dataset"
	"github.com/user/reach-plots-go/internal/models"
)

var areaOrder = []string{"Aachen", "Halle (Saale)", "Heidelberg", "Osnabrück", "Alfeld (Leine)", "Aue-Bad Schlema",
	"Bad Soden am Taunus", "Landau in der Pfalz", "Ankum", "Kandern", "Kühlungsborn", "Seefeld"}

func mustParse(t *testing.T, content string) *models.Dataset {
	t.Helper()
	ds, err := dataset.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return ds
}

func TestDefaultTitle(t *testing.T) {
	got := DefaultTitle("average duration", "osnabrück_analysis")
	if want := "Average duration in osnabrück analysis"; got != want {
		t.Errorf("DefaultTitle() = %q, want %q", got, want)
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		req  models.ChartRequest
		want string
	}{
		{"explicit", models.ChartRequest{Kind: models.KindBar, Y: "osm_cinemas", Title: "Given"}, "Given"},
		{"bar default", models.ChartRequest{Kind: models.KindBar, Y: "osm_cinemas", Source: models.Source{Filespec: "Aachen"}}, "Osm cinemas in Aachen"},
		{"box default", models.ChartRequest{Kind: models.KindBox, Y: "distance_start_cinema", Source: models.Source{Filespec: "analysis_filled"}}, "Distance start cinema in analysis filled"},
		{"scatter default", models.ChartRequest{Kind: models.KindScatter, Y: "average speed", X: "distance_start_cinema"}, "Average speed / distance start cinema"},
		{"histogram count", models.ChartRequest{Kind: models.KindHistogram, X: "departure time"}, ""},
		{"box explicit", models.ChartRequest{Kind: models.KindBox, Y: "distance_start_cinema", Title: "Data distribution distance_start_cinema"}, "Data distribution distance start cinema"},
		{"bar explicit keeps underscores", models.ChartRequest{Kind: models.KindBar, Y: "osm_cinemas", Title: "osm_cinemas"}, "osm_cinemas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.req); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"average DURATION": "Average duration",
		"über":             "Über",
	}
	for in, want := range tests {
		if got := Capitalize(in); got != want {
			t.Errorf("Capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	root := "/img"
	tests := []struct {
		req  models.ChartRequest
		want string
	}{
		{models.ChartRequest{Kind: models.KindHistogram, Y: "average duration", Filename: "all_overview"}, "/img/all_overview_average duration.jpeg"},
		{models.ChartRequest{Kind: models.KindHistogram, Filename: "fastest mode_Aachen"}, "/img/fastest mode_Aachen_count.jpeg"},
		{models.ChartRequest{Kind: models.KindBar, Y: "osm_cinemas", Filename: "likely_Aachen"}, "/img/bar_likely_Aachen_osm_cinemas.jpg"},
		{models.ChartRequest{Kind: models.KindBox, Y: "average speed", Filename: "all"}, "/img/boxplot_all_average speed.jpeg"},
		{models.ChartRequest{Kind: models.KindScatter, Y: "average speed", X: "average walk share", Filename: "all_speed"}, "/img/scatter_all_speed_average speed-average walk share.jpeg"},
		{models.ChartRequest{Kind: models.KindScatter, Y: "average speed", X: "x"}, ""},
	}
	for _, tt := range tests {
		got := OutputPath(root, tt.req)
		if got != filepath.FromSlash(tt.want) && !(tt.want == "" && got == "") {
			t.Errorf("OutputPath(%s) = %q, want %q", tt.req.Describe(), got, tt.want)
		}
		if again := OutputPath(root, tt.req); again != got {
			t.Errorf("OutputPath not deterministic: %q vs %q", got, again)
		}
	}
}

func TestBuildHistogramAreaOrder(t *testing.T) {
	ds := mustParse(t, "area,level,average duration\nHalle (Saale),mid,95\nAachen,top,120\n")
	req := models.ChartRequest{
		Kind:           models.KindHistogram,
		X:              "area",
		Y:              "average duration",
		Color:          "level",
		CategoryOrders: map[string][]string{"area": areaOrder, "level": {"top", "mid", "base"}},
		Source:         models.Source{Prefix: "all", Filespec: "starts_variables_filled"},
	}

	fig, err := Build(ds, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := []string{"Aachen", "Halle (Saale)"}; !reflect.DeepEqual(fig.Categories, want) {
		t.Errorf("Categories = %v, want %v", fig.Categories, want)
	}
	if len(fig.Series) != 2 || fig.Series[0].Name != "top" || fig.Series[1].Name != "mid" {
		t.Fatalf("Series = %+v, want top then mid", fig.Series)
	}
	if got := fig.Series[0].Values; !reflect.DeepEqual(got, []float64{120, 0}) {
		t.Errorf("top values = %v", got)
	}
	if got := fig.Series[1].Values; !reflect.DeepEqual(got, []float64{0, 95}) {
		t.Errorf("mid values = %v", got)
	}
	if fig.Height != overviewHeight {
		t.Errorf("Height = %d, want %d for the all-areas overview", fig.Height, overviewHeight)
	}
	if fig.BarGap != defaultHistogramGap {
		t.Errorf("BarGap = %v, want %v", fig.BarGap, defaultHistogramGap)
	}
}

func TestBuildHistogramNormalization(t *testing.T) {
	ds := mustParse(t, "group,average likely,average travel time\nmen,yes,30\nmen,no,10\nwomen,yes,5\nwomen,no,15\n")
	req := models.ChartRequest{
		Kind:    models.KindHistogram,
		X:       "group",
		Y:       "average travel time",
		Color:   "average likely",
		BarNorm: models.BarNormPercent,
	}

	fig, err := Build(ds, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// sorted by colour: "no" before "yes"
	if fig.Series[0].Name != "no" || fig.Series[1].Name != "yes" {
		t.Fatalf("series order = %s, %s", fig.Series[0].Name, fig.Series[1].Name)
	}
	if got := fig.Series[0].Values; !reflect.DeepEqual(got, []float64{25, 75}) {
		t.Errorf("no values = %v, want [25 75]", got)
	}
	if got := fig.Series[1].Values; !reflect.DeepEqual(got, []float64{75, 25}) {
		t.Errorf("yes values = %v, want [75 25]", got)
	}
	if !strings.HasPrefix(fig.YLabel, "percent of sum of") {
		t.Errorf("YLabel = %q", fig.YLabel)
	}
}

func TestBuildHistogramSkipsMissingValues(t *testing.T) {
	ds := mustParse(t, "area,level,average duration\nAachen,top,120\nAachen,top,NaN\nKandern,base,95\nKandern,base,NA\n")
	req := models.ChartRequest{Kind: models.KindHistogram, X: "area", Y: "average duration", Color: "level"}

	fig, err := Build(ds, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// rows sorted by level put Kandern first
	if got := fig.Categories; !reflect.DeepEqual(got, []string{"Kandern", "Aachen"}) {
		t.Fatalf("categories = %v", got)
	}
	if got := fig.Series[0].Values; !reflect.DeepEqual(got, []float64{95, 0}) {
		t.Errorf("base values = %v, want [95 0]", got)
	}
	if got := fig.Series[1].Values; !reflect.DeepEqual(got, []float64{0, 120}) {
		t.Errorf("top values = %v, want [0 120]", got)
	}
	if _, err := RasterJPEG(fig, 300, 200, 1); err != nil {
		t.Errorf("RasterJPEG() error = %v", err)
	}
}

func TestSeriesColorsScale(t *testing.T) {
	ds := mustParse(t, "group,likely count,osm_cinemas\nmen,1,4\nmen,3,3\nwomen,2,5\n")
	req := models.ChartRequest{
		Kind:       models.KindBar,
		X:          "group",
		Y:          "osm_cinemas",
		Color:      "likely count",
		ColorScale: []string{"#636efa", "#ef553b"},
	}

	fig, err := Build(ds, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	got := map[string]string{}
	for _, s := range fig.Series {
		got[s.Name] = s.Color
	}
	want := map[string]string{"1": "#636efa", "2": "#a9629b", "3": "#ef553b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("series colours = %v, want %v", got, want)
	}

	req.ColorMap = map[string]string{"2": "grey"}
	fig, _ = Build(ds, req)
	for _, s := range fig.Series {
		if s.Name == "2" && s.Color != "grey" {
			t.Errorf("explicit colour ignored: %s", s.Color)
		}
	}

	req.ColorMap = nil
	req.Color = "group"
	fig, _ = Build(ds, req)
	if fig.Series[0].Color != Palette[0] || fig.Series[1].Color != Palette[1] {
		t.Errorf("categorical colour column should use the palette, got %s, %s", fig.Series[0].Color, fig.Series[1].Color)
	}
}

func TestBuildHistogramDepartureTimeIsCategorical(t *testing.T) {
	ds := mustParse(t, "departure time,fastest mode\n14,transit\n8,foot\n14,foot\n21,car\n")
	req := models.ChartRequest{
		Kind:     models.KindHistogram,
		X:        DepartureTimeColumn,
		Color:    "fastest mode",
		ColorMap: map[string]string{"car": "#00cc96", "transit": "#636efa", "foot": "#ef553b"},
	}

	fig, err := Build(ds, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// discrete labels in the order they appear once sorted by mode, not a numeric axis
	if want := []string{"21", "8", "14"}; !reflect.DeepEqual(fig.Categories, want) {
		t.Errorf("Categories = %v, want %v", fig.Categories, want)
	}
	if fig.YLabel != "count" {
		t.Errorf("YLabel = %q, want count", fig.YLabel)
	}
	for _, s := range fig.Series {
		if s.Color != req.ColorMap[s.Name] {
			t.Errorf("series %s colour = %s, want %s", s.Name, s.Color, req.ColorMap[s.Name])
		}
	}

	// a numeric column that is not a time of day is ordered by value
	ds2 := mustParse(t, "hour,fastest mode\n14,foot\n8,transit\n")
	req.X = "hour"
	fig2, err := Build(ds2, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := []string{"8", "14"}; !reflect.DeepEqual(fig2.Categories, want) {
		t.Errorf("numeric Categories = %v, want %v", fig2.Categories, want)
	}
}

func TestBuildBarDescending(t *testing.T) {
	ds := mustParse(t, "group,likely count,osm_cinemas\nmen,1,4\nwomen,0,2\nmen,0,1\n45-64,1,3\n")
	req := models.ChartRequest{
		Kind:        models.KindBar,
		X:           "group",
		Y:           "osm_cinemas",
		Color:       "likely count",
		XDescending: true,
	}

	fig, err := Build(ds, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := []string{"women", "men", "45-64"}; !reflect.DeepEqual(fig.Categories, want) {
		t.Errorf("Categories = %v, want %v", fig.Categories, want)
	}
	if fig.BarMode != models.BarModeRelative {
		t.Errorf("BarMode = %q, want relative", fig.BarMode)
	}
	if fig.Series[0].Name != "0" || !reflect.DeepEqual(fig.Series[0].Values, []float64{2, 1, 0}) {
		t.Errorf("series 0 = %+v", fig.Series[0])
	}
	if fig.Series[1].Name != "1" || !reflect.DeepEqual(fig.Series[1].Values, []float64{0, 4, 3}) {
		t.Errorf("series 1 = %+v", fig.Series[1])
	}
}

func TestBuildBox(t *testing.T) {
	ds := mustParse(t, "area,level,average speed\nAnkum,base,1.1\nAachen,top,1.4\nAachen,top,1.2\nAnkum,base,\n")
	req := models.ChartRequest{
		Kind:           models.KindBox,
		X:              "area",
		Y:              "average speed",
		Color:          "level",
		CategoryOrders: map[string][]string{"area": areaOrder, "level": {"top", "mid", "base"}},
	}

	fig, err := Build(ds, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := []string{"Aachen", "Ankum"}; !reflect.DeepEqual(fig.Categories, want) {
		t.Errorf("Categories = %v, want %v", fig.Categories, want)
	}
	top := fig.Series[0]
	if top.Name != "top" || !reflect.DeepEqual(top.Samples[0], []float64{1.4, 1.2}) || len(top.Samples[1]) != 0 {
		t.Errorf("top series = %+v", top)
	}
	if fig.Height != overviewHeight {
		t.Errorf("Height = %d, want %d", fig.Height, overviewHeight)
	}
}

func TestBuildScatter(t *testing.T) {
	ds := mustParse(t, "average duration,distance_start_cinema,level\n100,500,top\n200,,mid\n150,900,mid\n")
	req := models.ChartRequest{
		Kind:   models.KindScatter,
		X:      "distance_start_cinema",
		Y:      "average duration",
		Color:  "level",
		Labels: map[string]string{"average duration": "average duration (in s)"},
	}

	fig, err := Build(ds, req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(fig.Categories) != 0 {
		t.Errorf("scatter has categories %v", fig.Categories)
	}
	if fig.YLabel != "average duration (in s)" {
		t.Errorf("YLabel = %q", fig.YLabel)
	}
	if got := fig.Series[1].Points; !reflect.DeepEqual(got, []Point{{X: 900, Y: 150}}) {
		t.Errorf("mid points = %v", got)
	}

	req.X = "level"
	if _, err := Build(ds, req); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("Build() with categorical x error = %v, want ErrNotNumeric", err)
	}
}

func TestBuildErrors(t *testing.T) {
	ds := mustParse(t, "a,b\nx,\n")
	tests := []struct {
		name string
		req  models.ChartRequest
		want error
	}{
		{"missing column", models.ChartRequest{Kind: models.KindBar, X: "a", Y: "zzz"}, dataset.ErrMissingColumn},
		{"unknown kind", models.ChartRequest{Kind: "pie", X: "a", Y: "b"}, ErrUnknownKind},
		{"no numeric y", models.ChartRequest{Kind: models.KindBox, X: "a", Y: "b"}, ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(ds, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	for _, s := range []string{"#00cc96", "#fff", "grey", "Gray"} {
		if _, err := ParseColor(s); err != nil {
			t.Errorf("ParseColor(%q) error = %v", s, err)
		}
	}
	for _, s := range []string{"#12", "#zzzzzz", "no-such-colour"} {
		if _, err := ParseColor(s); err == nil {
			t.Errorf("ParseColor(%q) should fail", s)
		}
	}
}

type recordingViewer struct{ shown []*Figure }

func (v *recordingViewer) Show(fig *Figure) error {
	v.shown = append(v.shown, fig)
	return nil
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	return &Renderer{
		ResultsRoot: t.TempDir(),
		ImagesRoot:  filepath.Join(t.TempDir(), "images"),
		Width:       200,
		Height:      150,
		Scale:       1,
		Viewer:      &recordingViewer{},
	}
}

func writeSource(t *testing.T, root string, src models.Source, content string) {
	t.Helper()
	path := src.Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRenderWritesEachKind(t *testing.T) {
	r := newTestRenderer(t)
	src := models.Source{Folder: "analysis", Prefix: "all", Filespec: "analysis", Suffix: "pe"}
	writeSource(t, r.ResultsRoot, src,
		"area,level,average duration,distance_start_cinema\nAachen,top,120,400\nAachen,top,100,800\nAnkum,base,95,300\n")

	reqs := []models.ChartRequest{
		{Kind: models.KindHistogram, Source: src, X: "area", Y: "average duration", Color: "level", Filename: "h"},
		{Kind: models.KindBar, Source: src, X: "area", Y: "average duration", Color: "level", Filename: "b", BarMode: models.BarModeGroup},
		{Kind: models.KindBox, Source: src, X: "area", Y: "average duration", Color: "level", Filename: "x"},
		{Kind: models.KindScatter, Source: src, X: "distance_start_cinema", Y: "average duration", Color: "level", Filename: "s"},
	}
	for _, req := range reqs {
		art, err := r.Render(context.Background(), req)
		if err != nil {
			t.Fatalf("Render(%s) error = %v", req.Describe(), err)
		}
		if art.OutputPath != OutputPath(r.ImagesRoot, req) {
			t.Errorf("OutputPath = %q, want %q", art.OutputPath, OutputPath(r.ImagesRoot, req))
		}
		data, err := os.ReadFile(art.OutputPath)
		if err != nil {
			t.Fatalf("output not written: %v", err)
		}
		if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
			t.Errorf("%s is not a jpeg", art.OutputPath)
		}
	}

	// same request twice overwrites the same file
	entries, _ := os.ReadDir(r.ImagesRoot)
	if _, err := r.Render(context.Background(), reqs[0]); err != nil {
		t.Fatal(err)
	}
	again, _ := os.ReadDir(r.ImagesRoot)
	if len(entries) != len(again) || len(again) != len(reqs) {
		t.Errorf("image count %d -> %d, want %d", len(entries), len(again), len(reqs))
	}
}

func TestRenderMissingSourceWritesNothing(t *testing.T) {
	r := newTestRenderer(t)
	req := models.ChartRequest{
		Kind:     models.KindBox,
		Source:   models.Source{Folder: "analysis", Prefix: "all", Filespec: "missing", Suffix: "pe"},
		X:        "area",
		Y:        "average speed",
		Filename: "all",
	}

	_, err := r.Render(context.Background(), req)
	if !errors.Is(err, dataset.ErrNotFound) {
		t.Fatalf("Render() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), req.Source.Path(r.ResultsRoot)) {
		t.Errorf("error %q does not name %s", err, req.Source.Path(r.ResultsRoot))
	}
	if _, err := os.Stat(r.ImagesRoot); !os.IsNotExist(err) {
		t.Errorf("images root created despite failure: %v", err)
	}
}

func TestRenderInteractive(t *testing.T) {
	r := newTestRenderer(t)
	src := models.Source{Folder: "analysis", Prefix: "all", Filespec: "analysis", Suffix: "pe"}
	writeSource(t, r.ResultsRoot, src, "average speed,average walk share\n1.2,0.4\n1.0,0.7\n")

	art, err := r.Render(context.Background(), models.ChartRequest{
		Kind: models.KindScatter, Source: src, X: "average walk share", Y: "average speed",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !art.Interactive || art.OutputPath != "" {
		t.Errorf("artifact = %+v, want interactive without output", art)
	}
	if n := len(r.Viewer.(*recordingViewer).shown); n != 1 {
		t.Errorf("viewer shown %d figures, want 1", n)
	}
}

func TestRenderCancelled(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, models.ChartRequest{Kind: models.KindBar}); !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestBrowserViewer(t *testing.T) {
	dir := t.TempDir()
	var opened string
	v := &BrowserViewer{Dir: dir, Open: func(path string) error {
		opened = path
		return nil
	}}

	ds := mustParse(t, "area,level,average duration\nAachen,top,120\nAnkum,base,80\n")
	for _, kind := range []models.ChartKind{models.KindHistogram, models.KindBox} {
		fig, err := Build(ds, models.ChartRequest{Kind: kind, X: "area", Y: "average duration", Color: "level"})
		if err != nil {
			t.Fatalf("Build(%s) error = %v", kind, err)
		}
		if err := v.Show(fig); err != nil {
			t.Fatalf("Show(%s) error = %v", kind, err)
		}
		if filepath.Dir(opened) != dir {
			t.Errorf("opened %q, want file in %s", opened, dir)
		}
		page, err := os.ReadFile(opened)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(page), "echarts") || !strings.Contains(string(page), "Average duration in") {
			t.Errorf("%s page missing chart content", kind)
		}
	}
}
