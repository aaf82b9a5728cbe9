package plot

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/biorempp/biorempp/internal/config"
	"github.com/biorempp/biorempp/internal/dataframe"
	"github.com/biorempp/biorempp/internal/errs"
	"github.com/biorempp/biorempp/internal/expr"
	"github.com/biorempp/biorempp/internal/templates"
)

// The CEL environment and template renderer are stateless after construction
// and shared by every strategy instance.
var (
	sharedEnv      = sync.OnceValues(expr.NewEnvironment)
	sharedRenderer = sync.OnceValue(templates.NewRenderer)
)

// strategyBase carries the pieces every built-in strategy compiles from its
// use-case document: the optional CEL row filter and the optional title
// template.
type strategyBase struct {
	uc        *config.UseCase
	filter    expr.Program
	hasFilter bool
	title     *templates.Template
}

func newStrategyBase(uc *config.UseCase) (strategyBase, error) {
	base := strategyBase{uc: uc}
	if raw := strings.TrimSpace(uc.Visualization.FilterExpression); raw != "" {
		env, err := sharedEnv()
		if err != nil {
			return strategyBase{}, errs.Configurationf("plot: use case %q: %v", uc.Meta.ID, err)
		}
		program, err := env.Compile(raw)
		if err != nil {
			return strategyBase{}, errs.Configurationf("plot: use case %q filter expression: %v", uc.Meta.ID, err)
		}
		base.filter = program
		base.hasFilter = true
	}
	tmpl, err := sharedRenderer().CompileInline(uc.Meta.ID+"-title", uc.Visualization.TitleTemplate)
	if err != nil {
		return strategyBase{}, errs.Configurationf("plot: use case %q title template: %v", uc.Meta.ID, err)
	}
	base.title = tmpl
	return base, nil
}

// selectRows returns the rows participating in the chart. Request filters
// whose key names a column constrain that column by equality (or membership
// when the value is a slice); the configured CEL expression, when present, is
// evaluated on top.
func (b strategyBase) selectRows(frame *dataframe.Frame, filters map[string]any) ([]map[string]any, error) {
	var rows []map[string]any
	for i := 0; i < frame.NumRows(); i++ {
		row := frame.RowMap(i)
		if !matchesFilters(frame, row, filters) {
			continue
		}
		if b.hasFilter {
			ok, err := b.filter.EvalRow(row, filters)
			if err != nil {
				return nil, errs.Validationf("plot: use case %q row filter: %v", b.uc.Meta.ID, err)
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func matchesFilters(frame *dataframe.Frame, row map[string]any, filters map[string]any) bool {
	for key, want := range filters {
		if frame.ColumnIndex(key) < 0 {
			continue
		}
		got := fmt.Sprint(row[key])
		switch values := want.(type) {
		case []any:
			found := false
			for _, v := range values {
				if fmt.Sprint(v) == got {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case []string:
			found := false
			for _, v := range values {
				if v == got {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if fmt.Sprint(want) != got {
				return false
			}
		}
	}
	return true
}

// chartTitle resolves the figure title: an explicit customization wins, then
// the compiled template, then the use-case name. Template failures fall back
// rather than failing the plot.
func (b strategyBase) chartTitle(filters, customizations map[string]any) string {
	if t, ok := customizations["title"].(string); ok && strings.TrimSpace(t) != "" {
		return t
	}
	if b.title != nil {
		out, err := b.title.Render(map[string]any{
			"ID":          b.uc.Meta.ID,
			"Name":        b.uc.Meta.Name,
			"Description": b.uc.Meta.Description,
			"Filters":     filters,
		})
		if err == nil {
			return strings.TrimSpace(out)
		}
	}
	return b.uc.Meta.Name
}

func requireColumns(frame *dataframe.Frame, names ...string) error {
	var missing []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if frame.ColumnIndex(name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errs.Validationf("plot: table missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// aggregateValues reduces the collected values for one category. An empty
// aggregate name means "sum", matching the typical stacked-count charts.
func aggregateValues(agg string, vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	switch agg {
	case "count":
		return float64(len(vals))
	case "mean":
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals))
	case "max":
		max := vals[0]
		for _, v := range vals[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case "min":
		min := vals[0]
		for _, v := range vals[1:] {
			if v < min {
				min = v
			}
		}
		return min
	default: // "" and "sum"
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum
	}
}

// sortedKeys returns the map keys in lexical order for deterministic trace
// and category ordering.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
