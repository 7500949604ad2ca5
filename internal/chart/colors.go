package chart

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/user/reach-plots-go/internal/models"
)

// Palette is the qualitative sequence used for colour groups without an
// explicit assignment.
var Palette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

// seriesColors resolves the display colour of every group. An explicit
// ColorMap entry wins; a numeric colour column with a ColorScale is placed on
// the scale by value; anything else takes the next Palette entry.
func seriesColors(ds *models.Dataset, req models.ChartRequest, groups []string) []string {
	var stops []color.Color
	if len(req.ColorScale) >= 2 && req.Color != "" && ds.IsNumeric(req.Color) {
		for _, s := range req.ColorScale {
			c, err := ParseColor(s)
			if err != nil {
				stops = nil
				break
			}
			stops = append(stops, c)
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	if stops != nil {
		for _, g := range groups {
			if v := models.NewValue(g); v.IsNum {
				lo, hi = math.Min(lo, v.Num), math.Max(hi, v.Num)
			}
		}
	}

	out := make([]string, len(groups))
	for i, g := range groups {
		if c, ok := req.ColorMap[g]; ok {
			out[i] = c
			continue
		}
		if v := models.NewValue(g); stops != nil && v.IsNum {
			t := 0.0
			if hi > lo {
				t = (v.Num - lo) / (hi - lo)
			}
			out[i] = hexColor(interpolate(stops, t))
			continue
		}
		out[i] = Palette[i%len(Palette)]
	}
	return out
}

// interpolate returns the colour at position t in [0, 1] along evenly spaced
// stops.
func interpolate(stops []color.Color, t float64) color.Color {
	seg := t * float64(len(stops)-1)
	k := int(seg)
	if k >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	f := seg - float64(k)
	r0, g0, b0, _ := stops[k].RGBA()
	r1, g1, b1, _ := stops[k+1].RGBA()
	mix := func(a, b uint32) uint8 {
		return uint8(math.Round((float64(a>>8)*(1-f) + float64(b>>8)*f)))
	}
	return color.RGBA{R: mix(r0, r1), G: mix(g0, g1), B: mix(b0, b1), A: 255}
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// ParseColor accepts #rgb, #rrggbb and CSS colour names.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return nil, fmt.Errorf("invalid colour %q", s)
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown colour %q", s)
}

// withAlpha returns c with straight alpha a, premultiplied as image/color expects.
func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	scale := func(v uint32) uint8 { return uint8((v >> 8) * uint32(a) / 255) }
	return color.RGBA{R: scale(r), G: scale(g), B: scale(b), A: a}
}
