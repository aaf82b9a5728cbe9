// Package plot hosts the plot-generation orchestrator: per-use-case
// configuration drives a rendering strategy, and generated figures are cached
// behind content-addressed keys so repeated dashboard interactions hit the
// cache instead of recomputing charts.
package plot

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/biorempp/biorempp/internal/config"
	"github.com/biorempp/biorempp/internal/dataframe"
	"github.com/biorempp/biorempp/internal/errs"
	"github.com/biorempp/biorempp/internal/figure"
)

// Strategy turns a table plus request filters into a figure. Implementations
// report Validation-class errors when the table does not satisfy their
// shape/column contract.
type Strategy interface {
	Name() string
	GeneratePlot(ctx context.Context, frame *dataframe.Frame, filters, customizations map[string]any) (*figure.Figure, error)
}

// Constructor builds a strategy from a loaded use-case document.
type Constructor func(uc *config.UseCase) (Strategy, error)

// Registry maps configuration-declared strategy names to constructors. The
// built-in strategies are registered at construction; Register is the
// extension point for additional chart types.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry builds a registry pre-populated with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	// Built-ins cannot fail registration.
	_ = r.Register("bar", newBarStrategy)
	_ = r.Register("heatmap", newHeatmapStrategy)
	_ = r.Register("line", newLineStrategy)
	return r
}

// Register adds or replaces a strategy constructor.
func (r *Registry) Register(name string, ctor Constructor) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("plot: strategy name required")
	}
	if ctor == nil {
		return errors.New("plot: strategy constructor required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[name] = ctor
	return nil
}

// Names lists the registered strategy names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New instantiates the named strategy with the use-case document. An unknown
// name is a NotFound-class error enumerating the registered names.
func (r *Registry) New(name string, uc *config.UseCase) (Strategy, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.NotFoundf("plot: unknown strategy %q (registered: %s)", name, strings.Join(r.Names(), ", "))
	}
	return ctor(uc)
}
