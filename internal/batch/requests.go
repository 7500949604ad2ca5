// Package batch holds the fixed list of charts produced for a results tree
// and the runner that renders them.
package batch

import (
	"fmt"

	"github.com/user/reach-plots-go/internal/config"
	"github.com/user/reach-plots-go/internal/models"
)

// GroupOrder fixes the population group axis.
var GroupOrder = []string{"children 10-17", "45-64", "65 and over", "men", "women"}

// LevelOrder fixes the regional centrality legend.
var LevelOrder = []string{"top", "mid", "base"}

var (
	modeColors  = map[string]string{"car": "#00cc96", "transit": "#636efa", "foot": "#ef553b"}
	yesNoColors = map[string]string{"yes": "#00cc96", "no": "#ef553b", "no data": "grey"}
)

const (
	labelDuration = "average duration (in s)"
	labelSpeed    = "average speed (in m/s)"
	labelDistance = "distance from start point to cinema (in m)"
	labelWalk     = "average walk share (in % of total route)"
	labelLevel    = "regional centrality"
)

// AreaOrder lists every selected area tier by tier.
func AreaOrder(selected map[string][]string) []string {
	var out []string
	for _, tier := range config.Tiers {
		out = append(out, selected[tier]...)
	}
	return out
}

// Requests returns every chart of a batch run in execution order.
func Requests(cfg *config.Config) []models.ChartRequest {
	pe := cfg.Batch.Suffix
	areaOrder := AreaOrder(cfg.Selected)
	allOrders := map[string][]string{"area": areaOrder, "level": LevelOrder}

	reqs := []models.ChartRequest{{
		Kind:   models.KindHistogram,
		Source: models.Source{Folder: "analysis", Prefix: "all", Filespec: "starts_variables_filled", Suffix: pe},
		X:      "area",
		Y:      "average duration",
		Color:  "level",
		Title:  "Average duration per start point",
		Labels: map[string]string{
			"average duration": labelDuration,
			"level":            labelLevel,
		},
		CategoryOrders: allOrders,
		Filename:       "all_overview",
	}}

	for _, v := range []string{"average duration", "average speed", "distance_start_cinema"} {
		reqs = append(reqs, models.ChartRequest{
			Kind:   models.KindBox,
			Source: models.Source{Folder: "analysis", Prefix: "all", Filespec: "analysis_filled", Suffix: pe},
			X:      "area",
			Y:      v,
			Color:  "level",
			Title:  "Data distribution " + v,
			Labels: map[string]string{
				"average duration":      labelDuration,
				"average speed":         labelSpeed,
				"distance_start_cinema": labelDistance,
				"level":                 labelLevel,
			},
			CategoryOrders: allOrders,
			Filename:       "all",
		})
	}

	allAnalysis := models.Source{Folder: "analysis", Prefix: "all_analysis", Suffix: pe}
	for _, v := range []string{"distance_start_cinema", "average walk share"} {
		for _, y := range []struct{ col, label, file string }{
			{"average duration", labelDuration, "all_duration"},
			{"average speed", labelSpeed, "all_speed"},
		} {
			reqs = append(reqs, models.ChartRequest{
				Kind:   models.KindScatter,
				Source: allAnalysis,
				X:      v,
				Y:      y.col,
				Color:  "level",
				Labels: map[string]string{
					y.col:                   y.label,
					"distance_start_cinema": labelDistance,
					"average walk share":    labelWalk,
					"level":                 labelLevel,
				},
				Filename: y.file,
			})
		}
	}

	for _, tier := range cfg.Batch.DetailTiers {
		for _, name := range cfg.Selected[tier] {
			reqs = append(reqs, areaRequests(cfg, name)...)
		}
	}
	return reqs
}

func areaRequests(cfg *config.Config, name string) []models.ChartRequest {
	pe := cfg.Batch.Suffix
	reqs := []models.ChartRequest{{
		Kind:   models.KindScatter,
		Source: models.Source{Folder: "analysis", Prefix: "analysis_" + name, Suffix: pe},
		X:      "distance_start_cinema",
		Y:      "average duration",
		Title:  "Average duration in " + name,
		Labels: map[string]string{
			"average duration":      labelDuration,
			"distance_start_cinema": labelDistance,
		},
		Filename: name,
	}}

	for _, v := range []string{"fastest mode", "fastest overall mode"} {
		reqs = append(reqs, models.ChartRequest{
			Kind:     models.KindHistogram,
			Source:   models.Source{Folder: "analysis", Prefix: "time_analysis", Filespec: name, Suffix: pe},
			X:        "departure time",
			Color:    v,
			ColorMap: modeColors,
			Filename: fmt.Sprintf("%s_%s", v, name),
		})
	}

	for _, v := range []string{"likely", "possible"} {
		reqs = append(reqs, models.ChartRequest{
			Kind:     models.KindHistogram,
			Source:   models.Source{Folder: "groups", Prefix: "groups", Filespec: name, Suffix: cfg.Batch.GroupsSuffix},
			X:        "group",
			Y:        "average travel time",
			Color:    "average " + v,
			ColorMap: yesNoColors,
			Labels: map[string]string{
				"average travel time": "average travel time (in s)",
				"average likely":      `cinema is accessible<br>within "social life and<br>entertainment" time`,
				"average possible":    "cinema is accessible<br>within total leisure time",
			},
			CategoryOrders: map[string][]string{"group": GroupOrder},
			Filename:       fmt.Sprintf("%s_%s", v, name),
		})
	}

	reqs = append(reqs, models.ChartRequest{
		Kind:       models.KindBar,
		Source:     models.Source{Folder: "groups", Prefix: "groups_cum", Filespec: name, Suffix: cfg.Batch.CumulativeSuffix},
		X:          "group",
		Y:          "osm_cinemas",
		Color:      "likely count",
		ColorScale: []string{"#636efa", "#ef553b"},
		Title:      `Cinemas accessible within "social life and entertainment" time frame<br>in ` + name,
		Labels: map[string]string{
			"osm_cinemas":  "routes to cinemas",
			"likely count": "accessible<br>cinemas",
		},
		CategoryOrders: map[string][]string{"group": GroupOrder},
		Filename:       "likely_" + name,
		BarMode:        models.BarModeRelative,
		XDescending:    true,
	})
	return reqs
}
