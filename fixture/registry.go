// Package fixture provides a registry of named, scoped fixtures and a container that resolves
// them in dependency order, caches them per scope key and tears them down in reverse order.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"
)

// Scope is the lifetime of a fixture instance.
type Scope int

const (
	// ScopeTest instances live for a single test.
	ScopeTest Scope = iota + 1
	// ScopeWorker instances are shared by all tests of a worker.
	ScopeWorker
)

func (s Scope) String() string {
	switch s {
	case ScopeTest:
		return "test"
	case ScopeWorker:
		return "worker"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ScopeKeys identify the current worker and test.
type ScopeKeys struct {
	Worker uuid.UUID
	Test   uuid.UUID
}

// For returns the key instances of the given scope are cached under.
func (k ScopeKeys) For(scope Scope) uuid.UUID {
	if scope == ScopeWorker {
		return k.Worker
	}
	return k.Test
}

// Teardown releases a fixture value. It is called exactly once.
type Teardown func(ctx context.Context) error

// Factory constructs a fixture value from its resolved dependencies.
// The returned teardown may be nil.
type Factory func(ctx context.Context, deps Values) (any, Teardown, error)

// Definition describes a fixture.
type Definition struct {
	Name         string
	Scope        Scope
	Dependencies []string
	Factory      Factory
	// Auto fixtures are resolved for every test, even if nothing requests them.
	Auto bool

	index int
}

// DefineOption configures a definition.
type DefineOption func(*Definition)

// Auto marks the fixture to be resolved for every test.
func Auto() DefineOption {
	return func(d *Definition) {
		d.Auto = true
	}
}

// Registry holds fixture definitions. It is sealed before the first resolution.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]*Definition
	order  []*Definition
	sealed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
	}
}

// Define adds a fixture definition.
//
// Dependencies may name fixtures defined later. A definition that closes a cycle fails with
// *CycleError, a reused name with *DuplicateNameError. Worker fixtures must not depend on test
// fixtures (*ScopeMismatchError).
func (r *Registry) Define(name string, scope Scope, dependencies []string, factory Factory, opts ...DefineOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if name == "" {
		return errors.New("fixture name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("fixture %q: factory must not be nil", name)
	}
	if scope != ScopeTest && scope != ScopeWorker {
		return fmt.Errorf("fixture %q: invalid %s", name, scope)
	}
	if _, exists := r.defs[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	def := &Definition{
		Name:         name,
		Scope:        scope,
		Dependencies: lo.Uniq(dependencies),
		Factory:      factory,
		index:        len(r.order),
	}
	for _, opt := range opts {
		opt(def)
	}

	if err := r.checkScopes(def); err != nil {
		return err
	}
	if path := r.findCycle(def); path != nil {
		return &CycleError{Path: path}
	}

	r.defs[name] = def
	r.order = append(r.order, def)
	return nil
}

// MustDefine is like Define but panics on error.
func (r *Registry) MustDefine(name string, scope Scope, dependencies []string, factory Factory, opts ...DefineOption) {
	if err := r.Define(name, scope, dependencies, factory, opts...); err != nil {
		panic(err)
	}
}

// Seal freezes the registry. It fails with *UnknownFixtureError if a dependency was never defined.
// Sealing twice is a no-op.
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil
	}
	for _, def := range r.order {
		for _, dep := range def.Dependencies {
			if _, ok := r.defs[dep]; !ok {
				return &UnknownFixtureError{Name: dep, RequiredBy: def.Name}
			}
		}
	}
	r.sealed = true
	return nil
}

// Sealed reports whether Seal succeeded.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	return *def, true
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, len(r.order))
	for i, def := range r.order {
		defs[i] = *def
	}
	return defs
}

func (r *Registry) checkScopes(def *Definition) error {
	if def.Scope == ScopeWorker {
		for _, dep := range def.Dependencies {
			if other, ok := r.defs[dep]; ok && other.Scope == ScopeTest {
				return &ScopeMismatchError{Name: def.Name, Dependency: dep, DependencyScope: other.Scope}
			}
		}
	}
	if def.Scope == ScopeTest {
		// Earlier worker fixtures with a forward reference to this name
		for _, other := range r.order {
			if other.Scope == ScopeWorker && lo.Contains(other.Dependencies, def.Name) {
				return &ScopeMismatchError{Name: other.Name, Dependency: def.Name, DependencyScope: def.Scope}
			}
		}
	}
	return nil
}

// findCycle looks for a path from def back to itself through already defined fixtures.
func (r *Registry) findCycle(def *Definition) []string {
	visited := make(map[string]bool)
	var walk func(name string, path []string) []string
	walk = func(name string, path []string) []string {
		var deps []string
		if name == def.Name {
			deps = def.Dependencies
		} else {
			d, ok := r.defs[name]
			if !ok {
				return nil
			}
			deps = d.Dependencies
		}
		for _, dep := range deps {
			if dep == def.Name {
				return append(path, dep)
			}
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if found := walk(dep, append(path, dep)); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(def.Name, []string{def.Name})
}
