package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/user/reach-plots-go/internal/models"
)

// Pixel sizes are given at this resolution and multiplied by the scale.
const baseDPI = 96

// swatch is a legend thumbnail filled with a single colour.
type swatch struct{ color color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, c.ClipPolygonY(pts))
}

// RasterJPEG draws fig at widthPx x heightPx (before scaling) and returns the
// encoded JPEG.
func RasterJPEG(fig *Figure, widthPx, heightPx int, scale float64) ([]byte, error) {
	p, err := newPlot(fig, pxToLength(widthPx))
	if err != nil {
		return nil, err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(pxToLength(widthPx), pxToLength(heightPx)),
		vgimg.UseDPI(int(math.Round(baseDPI*scale))),
	)
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.JpegCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func pxToLength(px int) vg.Length {
	return vg.Length(px) * vg.Inch / baseDPI
}

// gonum text treats "\n" as a line break.
func plainText(s string) string {
	return strings.ReplaceAll(s, "<br>", "\n")
}

func newPlot(fig *Figure, width vg.Length) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = plainText(fig.Title)
	p.X.Label.Text = plainText(fig.XLabel)
	p.Y.Label.Text = plainText(fig.YLabel)
	p.Legend.Top = true
	if fig.LegendTitle != "" {
		p.Legend.Add(plainText(fig.LegendTitle))
	}
	p.Add(plotter.NewGrid())

	var err error
	switch fig.Kind {
	case models.KindHistogram, models.KindBar:
		err = addBars(p, fig, width)
	case models.KindBox:
		err = addBoxes(p, fig, width)
	case models.KindScatter:
		err = addScatter(p, fig)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownKind, fig.Kind)
	}
	if err != nil {
		return nil, err
	}
	if len(fig.Categories) > 0 {
		p.NominalX(fig.Categories...)
	}
	return p, nil
}

// slotWidth estimates the drawn width of one category slot. The data area
// takes roughly 80% of the canvas.
func slotWidth(fig *Figure, width vg.Length) vg.Length {
	return width * 0.8 / vg.Length(len(fig.Categories))
}

func addBars(p *plot.Plot, fig *Figure, width vg.Length) error {
	barWidth := slotWidth(fig, width) * vg.Length(1-fig.BarGap)
	if fig.BarMode == models.BarModeGroup {
		barWidth /= vg.Length(len(fig.Series))
	}

	var below *plotter.BarChart
	for i, s := range fig.Series {
		clr, err := ParseColor(s.Color)
		if err != nil {
			return err
		}
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth)
		if err != nil {
			return fmt.Errorf("failed to create bar chart for %s: %w", s.Name, err)
		}
		bars.LineStyle.Width = 0

		switch fig.BarMode {
		case models.BarModeGroup:
			bars.Color = clr
			bars.Offset = (vg.Length(i) - vg.Length(len(fig.Series)-1)/2) * barWidth
		case models.BarModeOverlay:
			bars.Color = withAlpha(clr, 160)
		default:
			bars.Color = clr
			if below != nil {
				bars.StackOn(below)
			}
			below = bars
		}

		p.Add(bars)
		if fig.LegendTitle != "" {
			p.Legend.Add(s.Name, swatch{color: clr})
		}
	}
	return nil
}

func addBoxes(p *plot.Plot, fig *Figure, width vg.Length) error {
	n := len(fig.Series)
	boxWidth := slotWidth(fig, width) * 0.8 / vg.Length(n)
	step := 0.8 / float64(n)

	for i, s := range fig.Series {
		clr, err := ParseColor(s.Color)
		if err != nil {
			return err
		}
		offset := (float64(i) - float64(n-1)/2) * step
		for ci, values := range s.Samples {
			if len(values) == 0 {
				continue
			}
			box, err := plotter.NewBoxPlot(boxWidth, float64(ci)+offset, plotter.Values(values))
			if err != nil {
				return fmt.Errorf("failed to create box plot for %s/%s: %w", s.Name, fig.Categories[ci], err)
			}
			box.FillColor = withAlpha(clr, 128)
			box.BoxStyle.Color = clr
			box.MedianStyle.Color = clr
			box.WhiskerStyle.Color = clr
			p.Add(box)
		}
		if fig.LegendTitle != "" {
			p.Legend.Add(s.Name, swatch{color: clr})
		}
	}
	return nil
}

func addScatter(p *plot.Plot, fig *Figure) error {
	for _, s := range fig.Series {
		if len(s.Points) == 0 {
			continue
		}
		clr, err := ParseColor(s.Color)
		if err != nil {
			return err
		}
		pts := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("failed to create scatter for %s: %w", s.Name, err)
		}
		sc.GlyphStyle.Color = clr
		sc.GlyphStyle.Radius = vg.Points(2.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		if fig.LegendTitle != "" {
			p.Legend.Add(s.Name, sc)
		}
	}
	return nil
}
