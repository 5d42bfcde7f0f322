package fixture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"
)

// Instance is a constructed fixture.
type Instance struct {
	Definition Definition
	Value      any
	ScopeKey   uuid.UUID
	CreatedAt  time.Time

	teardown Teardown
}

type instanceKey struct {
	name     string
	scopeKey uuid.UUID
}

type containerOptions struct {
	logger *slog.Logger
}

// ContainerOption configures a Container.
type ContainerOption func(*containerOptions)

// WithLogger sets the logger for fixture lifecycle messages.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(o *containerOptions) {
		o.logger = logger
	}
}

// Container resolves fixtures of a sealed registry and owns their instances.
// A worker uses one container; Resolve and TeardownScope are serialized.
type Container struct {
	registry *Registry
	logger   *slog.Logger

	mu        sync.Mutex
	instances map[instanceKey]*Instance
	// created holds instances per scope key in construction order
	created map[uuid.UUID][]*Instance
	// scopes holds scope keys in the order of their first instance
	scopes []uuid.UUID
}

// NewContainer seals the registry and creates a container for it.
func NewContainer(registry *Registry, opts ...ContainerOption) (*Container, error) {
	o := containerOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := registry.Seal(); err != nil {
		return nil, err
	}

	return &Container{
		registry:  registry,
		logger:    o.logger,
		instances: make(map[instanceKey]*Instance),
		created:   make(map[uuid.UUID][]*Instance),
	}, nil
}

// Resolve returns values for the named fixtures, their dependencies and all auto fixtures.
//
// Fixtures are constructed in dependency order (ties broken by registration order) and cached per
// (name, scope key), so each is built at most once per scope key. If a factory fails, the test
// fixtures built during this call are torn down and *FixtureConstructionError is returned.
func (c *Container) Resolve(ctx context.Context, names []string, keys ScopeKeys) (Values, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, err := c.plan(names)
	if err != nil {
		return nil, err
	}

	values := make(Values, len(order))
	var built []*Instance

	for _, def := range order {
		scopeKey := keys.For(def.Scope)
		if scopeKey == uuid.Nil {
			return nil, c.abort(ctx, keys.Test, built, &FixtureConstructionError{
				Name:  def.Name,
				Scope: def.Scope,
				Err:   fmt.Errorf("no %s scope key given", def.Scope),
			})
		}

		key := instanceKey{name: def.Name, scopeKey: scopeKey}
		if inst, ok := c.instances[key]; ok {
			values[def.Name] = inst.Value
			continue
		}

		deps := make(Values, len(def.Dependencies))
		for _, dep := range def.Dependencies {
			deps[dep] = values[dep]
		}

		start := time.Now()
		value, teardown, err := construct(ctx, def, deps)
		if err != nil {
			return nil, c.abort(ctx, keys.Test, built, &FixtureConstructionError{
				Name:  def.Name,
				Scope: def.Scope,
				Err:   err,
			})
		}

		inst := &Instance{
			Definition: *def,
			Value:      value,
			ScopeKey:   scopeKey,
			CreatedAt:  time.Now(),
			teardown:   teardown,
		}
		c.instances[key] = inst
		if _, seen := c.created[scopeKey]; !seen {
			c.scopes = append(c.scopes, scopeKey)
		}
		c.created[scopeKey] = append(c.created[scopeKey], inst)
		built = append(built, inst)
		values[def.Name] = value

		c.logger.Debug("Constructed fixture",
			slog.String("fixture", def.Name),
			slog.String("scope", def.Scope.String()),
			slog.Duration("duration", time.Since(start)),
		)
	}

	return values, nil
}

// abort tears down the test fixtures constructed during a failed resolution.
// Worker fixtures stay cached and are torn down with their worker.
func (c *Container) abort(ctx context.Context, testKey uuid.UUID, built []*Instance, constructionErr *FixtureConstructionError) error {
	var failures []TeardownFailure
	for i := len(built) - 1; i >= 0; i-- {
		inst := built[i]
		if inst.Definition.Scope != ScopeTest {
			continue
		}
		c.forget(inst)
		if err := c.teardownInstance(ctx, inst); err != nil {
			failures = append(failures, TeardownFailure{Name: inst.Definition.Name, Err: err})
		}
	}
	if len(failures) > 0 {
		constructionErr.TeardownErr = &TeardownError{ScopeKey: testKey, Failures: failures}
	}

	c.logger.Debug("Fixture construction failed",
		slog.String("fixture", constructionErr.Name),
		slog.Any("error", constructionErr.Err),
	)
	return constructionErr
}

// TeardownScope tears down all instances of a scope key in exact reverse construction order.
// It continues past failures and returns them aggregated as *TeardownError.
func (c *Container) TeardownScope(ctx context.Context, scopeKey uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.teardownScope(ctx, scopeKey)
}

func (c *Container) teardownScope(ctx context.Context, scopeKey uuid.UUID) error {
	created := c.created[scopeKey]
	delete(c.created, scopeKey)
	c.scopes = lo.Without(c.scopes, scopeKey)

	var failures []TeardownFailure
	for i := len(created) - 1; i >= 0; i-- {
		inst := created[i]
		delete(c.instances, instanceKey{name: inst.Definition.Name, scopeKey: scopeKey})
		if err := c.teardownInstance(ctx, inst); err != nil {
			failures = append(failures, TeardownFailure{Name: inst.Definition.Name, Err: err})
		}
	}
	if len(failures) > 0 {
		return &TeardownError{ScopeKey: scopeKey, Failures: failures}
	}
	return nil
}

// Close tears down all remaining scopes, latest first.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for len(c.scopes) > 0 {
		scopeKey := c.scopes[len(c.scopes)-1]
		if err := c.teardownScope(ctx, scopeKey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Instances returns the live instances of a scope key in construction order.
func (c *Container) Instances(scopeKey uuid.UUID) []Instance {
	c.mu.Lock()
	defer c.mu.Unlock()

	return lo.Map(c.created[scopeKey], func(inst *Instance, _ int) Instance {
		return *inst
	})
}

// plan returns the definitions needed for names plus all auto fixtures in construction order.
func (c *Container) plan(names []string) ([]*Definition, error) {
	reg := c.registry
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	autos := lo.FilterMap(reg.order, func(def *Definition, _ int) (string, bool) {
		return def.Name, def.Auto
	})

	needed := make(map[string]*Definition)
	var visit func(name, requiredBy string) error
	visit = func(name, requiredBy string) error {
		if _, ok := needed[name]; ok {
			return nil
		}
		def, ok := reg.defs[name]
		if !ok {
			return &UnknownFixtureError{Name: name, RequiredBy: requiredBy}
		}
		needed[name] = def
		for _, dep := range def.Dependencies {
			if err := visit(dep, name); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range lo.Uniq(append(append([]string(nil), names...), autos...)) {
		if err := visit(name, ""); err != nil {
			return nil, err
		}
	}

	// Kahn's algorithm, always picking the earliest registered ready fixture
	indegree := make(map[string]int, len(needed))
	dependents := make(map[string][]string, len(needed))
	for name, def := range needed {
		indegree[name] = len(def.Dependencies)
		for _, dep := range def.Dependencies {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	ready := lo.Filter(lo.Values(needed), func(def *Definition, _ int) bool {
		return indegree[def.Name] == 0
	})
	order := make([]*Definition, 0, len(needed))
	for len(ready) > 0 {
		next := lo.MinBy(ready, func(a, b *Definition) bool {
			return a.index < b.index
		})
		ready = lo.Without(ready, next)
		order = append(order, next)
		for _, name := range dependents[next.Name] {
			indegree[name]--
			if indegree[name] == 0 {
				ready = append(ready, needed[name])
			}
		}
	}
	if len(order) != len(needed) {
		// Define rejects cycles, so this means the registry was modified behind its back
		return nil, errors.New("fixture graph is not acyclic")
	}
	return order, nil
}

func (c *Container) forget(inst *Instance) {
	delete(c.instances, instanceKey{name: inst.Definition.Name, scopeKey: inst.ScopeKey})
	remaining := lo.Without(c.created[inst.ScopeKey], inst)
	if len(remaining) == 0 {
		delete(c.created, inst.ScopeKey)
		c.scopes = lo.Without(c.scopes, inst.ScopeKey)
		return
	}
	c.created[inst.ScopeKey] = remaining
}

func (c *Container) teardownInstance(ctx context.Context, inst *Instance) (err error) {
	if inst.teardown == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in teardown: %v", r)
		}
		if err != nil {
			c.logger.Warn("Fixture teardown failed",
				slog.String("fixture", inst.Definition.Name),
				slog.Any("error", err),
			)
		} else {
			c.logger.Debug("Tore down fixture", slog.String("fixture", inst.Definition.Name))
		}
	}()
	return inst.teardown(ctx)
}

func construct(ctx context.Context, def *Definition, deps Values) (value any, teardown Teardown, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return def.Factory(ctx, deps)
}
