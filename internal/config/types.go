// Package config loads and validates the per-use-case analysis documents and
// the service-level settings. Use cases are identified by a two-part id
// (module number plus sub-case number) and live as YAML, JSON or TOML files
// in a configs directory.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/v2"

	"github.com/biorempp/biorempp/internal/errs"
)

// UseCaseID identifies one configured analysis: a module number and the
// sub-case index inside that module.
type UseCaseID struct {
	Module int
	Case   int
}

// ParseUseCaseID parses the "<module>.<case>" form; both parts must be
// positive integers.
func ParseUseCaseID(raw string) (UseCaseID, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 {
		return UseCaseID{}, errs.Validationf("config: use case id %q must have the form <module>.<case>", raw)
	}
	module, err := strconv.Atoi(parts[0])
	if err != nil || module <= 0 {
		return UseCaseID{}, errs.Validationf("config: use case id %q has invalid module number", raw)
	}
	caseNum, err := strconv.Atoi(parts[1])
	if err != nil || caseNum <= 0 {
		return UseCaseID{}, errs.Validationf("config: use case id %q has invalid case number", raw)
	}
	return UseCaseID{Module: module, Case: caseNum}, nil
}

// String renders the canonical "<module>.<case>" form.
func (id UseCaseID) String() string {
	return fmt.Sprintf("%d.%d", id.Module, id.Case)
}

// FileStem is the base name of the document holding this use case,
// without extension.
func (id UseCaseID) FileStem() string {
	return fmt.Sprintf("usecase_%d_%d", id.Module, id.Case)
}

// Meta carries the descriptive fields of a use-case document.
type Meta struct {
	ID          string `koanf:"id"`
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
}

// Visualization declares how a use case turns a table into a chart.
type Visualization struct {
	Strategy         string `koanf:"strategy"`
	TitleTemplate    string `koanf:"titleTemplate"`
	X                string `koanf:"x"`
	Y                string `koanf:"y"`
	Z                string `koanf:"z"`
	GroupBy          string `koanf:"groupBy"`
	Aggregate        string `koanf:"aggregate"`
	FilterExpression string `koanf:"filterExpression"`
	Orientation      string `koanf:"orientation"`
	Colorscale       string `koanf:"colorscale"`
}

// CacheLayer configures one caching tier for a use case.
type CacheLayer struct {
	Layer       string `koanf:"layer"`
	KeyTemplate string `koanf:"keyTemplate"`
	TTLSeconds  int    `koanf:"ttlSeconds"`
}

// CacheConfig is the performance.cache section of a use-case document.
type CacheConfig struct {
	Enabled bool         `koanf:"enabled"`
	Layers  []CacheLayer `koanf:"layers"`
}

// Layer returns the configuration for the named cache layer.
func (c CacheConfig) Layer(name string) (CacheLayer, bool) {
	for _, layer := range c.Layers {
		if layer.Layer == name {
			return layer, true
		}
	}
	return CacheLayer{}, false
}

// Performance is the performance section of a use-case document.
type Performance struct {
	Cache CacheConfig `koanf:"cache"`
}

// UseCase is one fully parsed analysis document.
type UseCase struct {
	Meta          Meta          `koanf:"usecase"`
	Visualization Visualization `koanf:"visualization"`
	Performance   Performance   `koanf:"performance"`

	// Raw keeps the whole document addressable with dot paths so strategies
	// can reach fields the typed structs do not model.
	Raw *koanf.Koanf `koanf:"-"`
}

var knownLayers = map[string]bool{"graph": true, "dataframe": true}

var knownAggregates = map[string]bool{"": true, "sum": true, "mean": true, "count": true, "max": true, "min": true}

// Validate enforces the structural invariants of a use-case document.
// Violations are Validation-class errors.
func (u *UseCase) Validate() error {
	if u.Meta.ID != "" {
		if _, err := ParseUseCaseID(u.Meta.ID); err != nil {
			return err
		}
	}
	if strings.TrimSpace(u.Visualization.Strategy) == "" {
		return errs.Validationf("config: use case %q declares no visualization.strategy", u.Meta.ID)
	}
	if !knownAggregates[u.Visualization.Aggregate] {
		return errs.Validationf("config: use case %q has unknown aggregate %q", u.Meta.ID, u.Visualization.Aggregate)
	}
	for _, layer := range u.Performance.Cache.Layers {
		if !knownLayers[layer.Layer] {
			return errs.Validationf("config: use case %q references unknown cache layer %q", u.Meta.ID, layer.Layer)
		}
		if layer.TTLSeconds < 0 {
			return errs.Validationf("config: use case %q has negative ttl for layer %q", u.Meta.ID, layer.Layer)
		}
	}
	return nil
}

// Get resolves a dot path against the raw document, returning def when the
// path is absent. Strategy-specific fields outside the typed schema are read
// this way.
func (u *UseCase) Get(path string, def any) any {
	if u.Raw == nil || !u.Raw.Exists(path) {
		return def
	}
	return u.Raw.Get(path)
}
