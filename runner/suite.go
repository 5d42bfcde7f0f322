// Package runner executes tests against a fixture registry on parallel workers and reports their results.
package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/networkteam/storefront-e2e/fixture"
)

// Test is a registered test case.
type Test struct {
	// Group is the describe block the test belongs to, used as a name prefix.
	Group string
	Name  string
	Tags  []string
	// Fixtures lists the fixtures the body accesses. Their dependencies and auto fixtures are resolved as well.
	Fixtures []string
	// Timeout overrides the run's default test timeout.
	Timeout time.Duration
	Body    func(t *T)
}

// FullName joins group and name.
func (t Test) FullName() string {
	if t.Group == "" {
		return t.Name
	}
	return t.Group + " > " + t.Name
}

// HasTag reports whether the test carries tag.
func (t Test) HasTag(tag string) bool {
	return lo.Contains(t.Tags, tag)
}

// Suite collects tests and the fixture registry they resolve against.
type Suite struct {
	registry *fixture.Registry
	tests    []Test
}

// NewSuite creates a suite with the runner's own fixtures already defined.
func NewSuite() *Suite {
	reg := fixture.NewRegistry()
	registerFixtures(reg)
	return &Suite{registry: reg}
}

// Registry returns the registry to define fixtures on. It is sealed when the suite runs.
func (s *Suite) Registry() *fixture.Registry {
	return s.registry
}

// Add registers tests. Full names must be unique.
func (s *Suite) Add(tests ...Test) error {
	for _, test := range tests {
		if strings.TrimSpace(test.Name) == "" {
			return fmt.Errorf("test in group %q has no name", test.Group)
		}
		if test.Body == nil {
			return fmt.Errorf("test %q has no body", test.FullName())
		}
		if _, exists := lo.Find(s.tests, func(t Test) bool { return t.FullName() == test.FullName() }); exists {
			return fmt.Errorf("test %q is already registered", test.FullName())
		}
		s.tests = append(s.tests, test)
	}
	return nil
}

// Tests returns all registered tests in registration order.
func (s *Suite) Tests() []Test {
	return append([]Test(nil), s.tests...)
}
