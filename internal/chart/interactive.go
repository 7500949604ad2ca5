package chart

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/browser"
	"gonum.org/v1/plot/plotter"

	"github.com/user/reach-plots-go/internal/models"
)

// Viewer displays a figure interactively.
type Viewer interface {
	Show(fig *Figure) error
}

// BrowserViewer writes the figure as a standalone HTML page and opens it in
// the default browser. Whether Show blocks depends on the platform.
type BrowserViewer struct {
	// Dir receives the HTML files; empty uses the system temp dir.
	Dir string
	// Open defaults to browser.OpenFile.
	Open func(path string) error
}

// Show implements Viewer.
func (v *BrowserViewer) Show(fig *Figure) error {
	f, err := os.CreateTemp(v.Dir, "reach-plots-*.html")
	if err != nil {
		return fmt.Errorf("failed to create html file: %w", err)
	}
	if err := WriteHTML(fig, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.Name(), err)
	}

	open := v.Open
	if open == nil {
		open = browser.OpenFile
	}
	if err := open(f.Name()); err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name(), err)
	}
	return nil
}

type htmlRenderer interface {
	Render(w io.Writer) error
}

// WriteHTML renders fig as an interactive echarts page.
func WriteHTML(fig *Figure, w io.Writer) error {
	var page htmlRenderer
	switch fig.Kind {
	case models.KindHistogram, models.KindBar:
		page = echartsBar(fig)
	case models.KindBox:
		b, err := echartsBox(fig)
		if err != nil {
			return err
		}
		page = b
	case models.KindScatter:
		page = echartsScatter(fig)
	default:
		return fmt.Errorf("%w %q", ErrUnknownKind, fig.Kind)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}

func htmlText(s string) string {
	return strings.ReplaceAll(s, "<br>", "\n")
}

func globalOpts(fig *Figure, xType string) []charts.GlobalOpts {
	height := fig.Height
	if height == 0 {
		height = 500
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: htmlText(fig.Title),
			Width:     "100%",
			Height:    fmt.Sprintf("%dpx", height),
		}),
		charts.WithTitleOpts(opts.Title{Title: htmlText(fig.Title)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(fig.LegendTitle != ""), Right: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Name: htmlText(fig.XLabel), Type: xType}),
		charts.WithYAxisOpts(opts.YAxis{Name: htmlText(fig.YLabel)}),
	}
}

func echartsBar(fig *Figure) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(fig, "category")...)
	bar.SetXAxis(fig.Categories)

	gap := fmt.Sprintf("%.0f%%", fig.BarGap*100)
	for _, s := range fig.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: v}
		}
		barOpts := opts.BarChart{BarCategoryGap: gap}
		style := opts.ItemStyle{Color: s.Color}
		switch fig.BarMode {
		case models.BarModeGroup:
			// echarts places series side by side by default
		case models.BarModeOverlay:
			barOpts.BarGap = "-100%"
			style.Opacity = opts.Float(0.6)
		default:
			barOpts.Stack = "total"
		}
		bar.AddSeries(s.Name, data,
			charts.WithBarChartOpts(barOpts),
			charts.WithItemStyleOpts(style),
		)
	}
	return bar
}

func echartsBox(fig *Figure) (*charts.BoxPlot, error) {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(globalOpts(fig, "category")...)
	box.SetXAxis(fig.Categories)

	for _, s := range fig.Series {
		data := make([]opts.BoxPlotData, len(s.Samples))
		for i, values := range s.Samples {
			if len(values) == 0 {
				data[i] = opts.BoxPlotData{Value: []float64{}}
				continue
			}
			stats, err := plotter.NewBoxPlot(1, 0, plotter.Values(values))
			if err != nil {
				return nil, fmt.Errorf("failed to summarise %s/%s: %w", s.Name, fig.Categories[i], err)
			}
			data[i] = opts.BoxPlotData{Value: []float64{
				stats.AdjLow, stats.Quartile1, stats.Median, stats.Quartile3, stats.AdjHigh,
			}}
		}
		box.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{BorderColor: s.Color}))
	}
	return box, nil
}

func echartsScatter(fig *Figure) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(globalOpts(fig, "value")...)

	for _, s := range fig.Series {
		data := make([]opts.ScatterData, len(s.Points))
		for i, pt := range s.Points {
			data[i] = opts.ScatterData{Value: []float64{pt.X, pt.Y}}
		}
		sc.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return sc
}
