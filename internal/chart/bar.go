package chart

import (
	"sort"

	"github.com/user/reach-plots-go/internal/dataset"
	"github.com/user/reach-plots-go/internal/models"
)

const (
	defaultHistogramGap = 0.5
	defaultBarGap       = 0.2
	overviewHeight      = 400
)

// buildHistogram aggregates y per (x, colour). Without a y column rows are
// counted.
func buildHistogram(ds *models.Dataset, req models.ChartRequest) (*Figure, error) {
	sorted, err := sortByColor(ds, req)
	if err != nil {
		return nil, err
	}

	fig, err := sumBars(sorted, req, categories(sorted, req.X, req.CategoryOrders[req.X], true))
	if err != nil {
		return nil, err
	}

	switch req.BarNorm {
	case models.BarNormPercent:
		normalize(fig, 100)
	case models.BarNormFraction:
		normalize(fig, 1)
	}

	fig.YLabel = "count"
	if req.Y != "" {
		fig.YLabel = "sum of " + label(req, req.Y)
	}
	switch req.BarNorm {
	case models.BarNormPercent:
		fig.YLabel = "percent of " + fig.YLabel
	case models.BarNormFraction:
		fig.YLabel = "fraction of " + fig.YLabel
	}

	fig.BarMode = models.BarModeRelative
	fig.BarGap = defaultHistogramGap
	if req.BarGap > 0 && req.BarGap < 1 {
		fig.BarGap = req.BarGap
	}
	if req.Source.Prefix == "all" {
		fig.Height = overviewHeight
	}
	return fig, nil
}

// buildBar places y per x and colour without normalisation. Rows sharing an
// x and colour stack on each other, which draws the same as their sum.
func buildBar(ds *models.Dataset, req models.ChartRequest) (*Figure, error) {
	sorted, err := sortByColor(ds, req)
	if err != nil {
		return nil, err
	}

	cats := categories(sorted, req.X, req.CategoryOrders[req.X], true)
	if req.XDescending {
		numeric := sorted.IsNumeric(req.X)
		nums := map[string]float64{}
		for _, r := range sorted.Rows {
			nums[r[req.X].Raw] = r[req.X].Num
		}
		sort.SliceStable(cats, func(i, j int) bool {
			if numeric {
				return nums[cats[i]] > nums[cats[j]]
			}
			return cats[i] > cats[j]
		})
	}

	fig, err := sumBars(sorted, req, cats)
	if err != nil {
		return nil, err
	}
	fig.YLabel = label(req, req.Y)
	fig.BarMode = req.BarMode
	if fig.BarMode == "" {
		fig.BarMode = models.BarModeRelative
	}
	fig.BarGap = defaultBarGap
	if req.BarGap > 0 && req.BarGap < 1 {
		fig.BarGap = req.BarGap
	}
	return fig, nil
}

func sortByColor(ds *models.Dataset, req models.ChartRequest) (*models.Dataset, error) {
	if req.Color == "" {
		return ds, nil
	}
	return dataset.SortedBy(ds, req.Color)
}

func sumBars(ds *models.Dataset, req models.ChartRequest, cats []string) (*Figure, error) {
	if len(cats) == 0 {
		return nil, ErrNoData
	}
	groups := colorGroups(ds, req)
	colors := seriesColors(ds, req, groups)
	catIdx, groupIdx := indexOf(cats), indexOf(groups)

	values := make([][]float64, len(groups))
	for i := range values {
		values[i] = make([]float64, len(cats))
	}
	found := false
	for _, r := range ds.Rows {
		x := r[req.X]
		g, ok := groupOf(r, req)
		if x.Empty() || !ok {
			continue
		}
		y := 1.0
		if req.Y != "" {
			v := r[req.Y]
			if !v.IsNum {
				continue
			}
			y = v.Num
		}
		values[groupIdx[g]][catIdx[x.Raw]] += y
		found = true
	}
	if !found {
		return nil, ErrNoData
	}

	fig := &Figure{Categories: cats}
	for i, g := range groups {
		name := g
		if name == "" {
			name = label(req, req.Y)
		}
		fig.Series = append(fig.Series, Series{
			Name:   name,
			Color:  colors[i],
			Values: values[i],
		})
	}
	return fig, nil
}

// normalize scales every category so its groups sum to total.
func normalize(fig *Figure, total float64) {
	for c := range fig.Categories {
		sum := 0.0
		for _, s := range fig.Series {
			sum += s.Values[c]
		}
		if sum == 0 {
			continue
		}
		for _, s := range fig.Series {
			s.Values[c] = s.Values[c] * total / sum
		}
	}
}
