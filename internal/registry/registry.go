package registry

import (
	"fmt"
	"sort"

	"github.com/ctrlbench/ctrlbench/internal/controller"
	"github.com/ctrlbench/ctrlbench/internal/models"
)

// Registry maps controller type identifiers to factories. It is populated
// once at process start and read-only thereafter; Resolve never mutates
// state beyond constructing the requested instance.
type Registry struct {
	factories map[string]controller.Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]controller.Factory)}
}

// Builtin returns a registry populated with every built-in controller
// variant.
func Builtin() *Registry {
	r := New()
	r.Register(controller.TypeSequential, controller.NewSequential)
	r.Register(controller.TypeCrewManager, controller.NewCrewManager)
	return r
}

// Register adds a factory under typeID, replacing any previous registration.
func (r *Registry) Register(typeID string, factory controller.Factory) {
	r.factories[typeID] = factory
}

// Resolve builds a controller instance for typeID. An unknown typeID yields
// a *models.ResolutionError; the factory is never invoked in that case.
func (r *Registry) Resolve(typeID string, cfg controller.Config) (controller.Controller, error) {
	factory, ok := r.factories[typeID]
	if !ok {
		return nil, &models.ResolutionError{ControllerType: typeID}
	}

	c, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing controller %s: %w", typeID, err)
	}
	return c, nil
}

// Types returns all registered type identifiers in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
