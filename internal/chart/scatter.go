package chart

import (
	"fmt"

	"github.com/user/reach-plots-go/internal/models"
)

// buildScatter plots y against a continuous x. Rows where either value is not
// a number are skipped.
func buildScatter(ds *models.Dataset, req models.ChartRequest) (*Figure, error) {
	if !ds.IsNumeric(req.X) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, req.X)
	}

	groups := colorGroups(ds, req)
	colors := seriesColors(ds, req, groups)
	groupIdx := indexOf(groups)
	points := make([][]Point, len(groups))
	n := 0
	for _, r := range ds.Rows {
		x, y := r[req.X], r[req.Y]
		g, ok := groupOf(r, req)
		if !x.IsNum || !y.IsNum || !ok {
			continue
		}
		gi := groupIdx[g]
		points[gi] = append(points[gi], Point{X: x.Num, Y: y.Num})
		n++
	}
	if n == 0 {
		return nil, ErrNoData
	}

	fig := &Figure{YLabel: label(req, req.Y)}
	for i, g := range groups {
		name := g
		if name == "" {
			name = label(req, req.Y)
		}
		fig.Series = append(fig.Series, Series{
			Name:   name,
			Color:  colors[i],
			Points: points[i],
		})
	}
	return fig, nil
}
