package chart

import "github.com/user/reach-plots-go/internal/models"

func buildBox(ds *models.Dataset, req models.ChartRequest) (*Figure, error) {
	cats := categories(ds, req.X, req.CategoryOrders[req.X], true)
	groups := colorGroups(ds, req)
	colors := seriesColors(ds, req, groups)
	catIdx, groupIdx := indexOf(cats), indexOf(groups)

	samples := make([][][]float64, len(groups))
	for i := range samples {
		samples[i] = make([][]float64, len(cats))
	}
	n := 0
	for _, r := range ds.Rows {
		x, y := r[req.X], r[req.Y]
		g, ok := groupOf(r, req)
		if x.Empty() || !y.IsNum || !ok {
			continue
		}
		gi, ci := groupIdx[g], catIdx[x.Raw]
		samples[gi][ci] = append(samples[gi][ci], y.Num)
		n++
	}
	if n == 0 {
		return nil, ErrNoData
	}

	fig := &Figure{
		Categories: cats,
		YLabel:     label(req, req.Y),
		Height:     overviewHeight,
	}
	for i, g := range groups {
		name := g
		if name == "" {
			name = label(req, req.Y)
		}
		fig.Series = append(fig.Series, Series{
			Name:    name,
			Color:   colors[i],
			Samples: samples[i],
		})
	}
	return fig, nil
}
