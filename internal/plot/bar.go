package plot

import (
	"context"
	"fmt"

	"github.com/biorempp/biorempp/internal/config"
	"github.com/biorempp/biorempp/internal/dataframe"
	"github.com/biorempp/biorempp/internal/errs"
	"github.com/biorempp/biorempp/internal/figure"
)

// barStrategy renders grouped bar charts: rows bucketed by the x column,
// optionally split into one trace per groupBy value, with the y column
// aggregated per bucket.
type barStrategy struct {
	strategyBase
}

func newBarStrategy(uc *config.UseCase) (Strategy, error) {
	base, err := newStrategyBase(uc)
	if err != nil {
		return nil, err
	}
	if uc.Visualization.X == "" {
		return nil, errs.Configurationf("plot: use case %q bar strategy requires visualization.x", uc.Meta.ID)
	}
	if uc.Visualization.Y == "" && uc.Visualization.Aggregate != "count" {
		return nil, errs.Configurationf("plot: use case %q bar strategy requires visualization.y unless aggregating by count", uc.Meta.ID)
	}
	return &barStrategy{strategyBase: base}, nil
}

func (s *barStrategy) Name() string { return "bar" }

func (s *barStrategy) GeneratePlot(ctx context.Context, frame *dataframe.Frame, filters, customizations map[string]any) (*figure.Figure, error) {
	viz := s.uc.Visualization
	if err := requireColumns(frame, viz.X, viz.Y, viz.GroupBy); err != nil {
		return nil, err
	}
	rows, err := s.selectRows(frame, filters)
	if err != nil {
		return nil, err
	}

	// groups[trace name][x category] = collected y values
	groups := map[string]map[string][]float64{}
	categorySet := map[string]bool{}
	for _, row := range rows {
		group := ""
		if viz.GroupBy != "" {
			group = fmt.Sprint(row[viz.GroupBy])
		}
		category := fmt.Sprint(row[viz.X])
		categorySet[category] = true
		value := 0.0
		if viz.Y != "" {
			v, ok := toFloat64(row[viz.Y])
			if !ok {
				continue
			}
			value = v
		}
		if groups[group] == nil {
			groups[group] = map[string][]float64{}
		}
		groups[group][category] = append(groups[group][category], value)
	}

	categories := sortedKeys(categorySet)
	traces := make([]figure.Trace, 0, len(groups))
	for _, group := range sortedKeys(groups) {
		xs := make([]any, 0, len(categories))
		ys := make([]any, 0, len(categories))
		for _, category := range categories {
			vals, ok := groups[group][category]
			if !ok {
				continue
			}
			xs = append(xs, category)
			ys = append(ys, aggregateValues(viz.Aggregate, vals))
		}
		trace := figure.Trace{Type: "bar", Name: group, X: xs, Y: ys}
		if viz.Orientation == "h" {
			trace.X, trace.Y = trace.Y, trace.X
			trace.Orientation = "h"
		}
		traces = append(traces, trace)
	}

	yTitle := viz.Y
	if viz.Aggregate == "count" {
		yTitle = "count"
	}
	layout := figure.Layout{
		Title:      s.chartTitle(filters, customizations),
		XAxis:      figure.Axis{Title: viz.X},
		YAxis:      figure.Axis{Title: yTitle},
		BarMode:    "group",
		ShowLegend: viz.GroupBy != "",
	}
	if viz.Orientation == "h" {
		layout.XAxis, layout.YAxis = layout.YAxis, layout.XAxis
	}
	return &figure.Figure{Data: traces, Layout: layout}, nil
}
