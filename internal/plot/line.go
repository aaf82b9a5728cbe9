package plot

import (
	"context"
	"fmt"

	"github.com/biorempp/biorempp/internal/config"
	"github.com/biorempp/biorempp/internal/dataframe"
	"github.com/biorempp/biorempp/internal/errs"
	"github.com/biorempp/biorempp/internal/figure"
)

// lineStrategy renders one scatter trace in line mode per groupBy value,
// x values kept in lexical order and y aggregated per x like the bar chart.
type lineStrategy struct {
	strategyBase
}

func newLineStrategy(uc *config.UseCase) (Strategy, error) {
	base, err := newStrategyBase(uc)
	if err != nil {
		return nil, err
	}
	if uc.Visualization.X == "" || uc.Visualization.Y == "" {
		return nil, errs.Configurationf("plot: use case %q line strategy requires visualization.x and .y", uc.Meta.ID)
	}
	return &lineStrategy{strategyBase: base}, nil
}

func (s *lineStrategy) Name() string { return "line" }

func (s *lineStrategy) GeneratePlot(ctx context.Context, frame *dataframe.Frame, filters, customizations map[string]any) (*figure.Figure, error) {
	viz := s.uc.Visualization
	if err := requireColumns(frame, viz.X, viz.Y, viz.GroupBy); err != nil {
		return nil, err
	}
	rows, err := s.selectRows(frame, filters)
	if err != nil {
		return nil, err
	}

	groups := map[string]map[string][]float64{}
	for _, row := range rows {
		group := ""
		if viz.GroupBy != "" {
			group = fmt.Sprint(row[viz.GroupBy])
		}
		x := fmt.Sprint(row[viz.X])
		y, ok := toFloat64(row[viz.Y])
		if !ok {
			continue
		}
		if groups[group] == nil {
			groups[group] = map[string][]float64{}
		}
		groups[group][x] = append(groups[group][x], y)
	}

	traces := make([]figure.Trace, 0, len(groups))
	for _, group := range sortedKeys(groups) {
		points := groups[group]
		xs := make([]any, 0, len(points))
		ys := make([]any, 0, len(points))
		for _, x := range sortedKeys(points) {
			xs = append(xs, x)
			ys = append(ys, aggregateValues(viz.Aggregate, points[x]))
		}
		traces = append(traces, figure.Trace{Type: "scatter", Name: group, X: xs, Y: ys})
	}

	layout := figure.Layout{
		Title:      s.chartTitle(filters, customizations),
		XAxis:      figure.Axis{Title: viz.X},
		YAxis:      figure.Axis{Title: viz.Y},
		ShowLegend: viz.GroupBy != "",
	}
	return &figure.Figure{Data: traces, Layout: layout}, nil
}
