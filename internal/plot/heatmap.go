package plot

import (
	"context"
	"fmt"

	"github.com/biorempp/biorempp/internal/config"
	"github.com/biorempp/biorempp/internal/dataframe"
	"github.com/biorempp/biorempp/internal/errs"
	"github.com/biorempp/biorempp/internal/figure"
)

// heatmapStrategy pivots rows into a dense matrix: x and y columns become the
// axes, the z column is aggregated per cell. Cells without rows stay zero.
type heatmapStrategy struct {
	strategyBase
}

func newHeatmapStrategy(uc *config.UseCase) (Strategy, error) {
	base, err := newStrategyBase(uc)
	if err != nil {
		return nil, err
	}
	viz := uc.Visualization
	if viz.X == "" || viz.Y == "" || viz.Z == "" {
		return nil, errs.Configurationf("plot: use case %q heatmap strategy requires visualization.x, .y and .z", uc.Meta.ID)
	}
	return &heatmapStrategy{strategyBase: base}, nil
}

func (s *heatmapStrategy) Name() string { return "heatmap" }

func (s *heatmapStrategy) GeneratePlot(ctx context.Context, frame *dataframe.Frame, filters, customizations map[string]any) (*figure.Figure, error) {
	viz := s.uc.Visualization
	if err := requireColumns(frame, viz.X, viz.Y, viz.Z); err != nil {
		return nil, err
	}
	rows, err := s.selectRows(frame, filters)
	if err != nil {
		return nil, err
	}

	// cells[y][x] = collected z values
	cells := map[string]map[string][]float64{}
	xSet := map[string]bool{}
	for _, row := range rows {
		x := fmt.Sprint(row[viz.X])
		y := fmt.Sprint(row[viz.Y])
		z, ok := toFloat64(row[viz.Z])
		if !ok {
			if viz.Aggregate != "count" {
				continue
			}
			z = 0
		}
		xSet[x] = true
		if cells[y] == nil {
			cells[y] = map[string][]float64{}
		}
		cells[y][x] = append(cells[y][x], z)
	}

	xs := sortedKeys(xSet)
	ys := sortedKeys(cells)
	matrix := make([][]float64, len(ys))
	for i, y := range ys {
		matrix[i] = make([]float64, len(xs))
		for j, x := range xs {
			if vals, ok := cells[y][x]; ok {
				matrix[i][j] = aggregateValues(viz.Aggregate, vals)
			}
		}
	}

	xAny := make([]any, len(xs))
	for i, x := range xs {
		xAny[i] = x
	}
	yAny := make([]any, len(ys))
	for i, y := range ys {
		yAny[i] = y
	}
	trace := figure.Trace{
		Type:       "heatmap",
		X:          xAny,
		Y:          yAny,
		Z:          matrix,
		Colorscale: viz.Colorscale,
	}
	layout := figure.Layout{
		Title: s.chartTitle(filters, customizations),
		XAxis: figure.Axis{Title: viz.X},
		YAxis: figure.Axis{Title: viz.Y},
	}
	return &figure.Figure{Data: []figure.Trace{trace}, Layout: layout}, nil
}
