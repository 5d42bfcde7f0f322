package fixture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
)

// ErrRegistrySealed is returned when defining a fixture after execution started.
var ErrRegistrySealed = errors.New("fixture registry is sealed")

// DuplicateNameError is returned when a fixture name is defined twice.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("fixture %q is already defined", e.Name)
}

// CycleError is returned when a definition would close a dependency cycle.
// Path starts and ends with the same fixture name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "fixture dependency cycle: " + strings.Join(e.Path, " -> ")
}

// ScopeMismatchError is returned when a worker fixture depends on a test fixture.
type ScopeMismatchError struct {
	Name            string
	Dependency      string
	DependencyScope Scope
}

func (e *ScopeMismatchError) Error() string {
	return fmt.Sprintf("worker fixture %q cannot depend on %s fixture %q", e.Name, e.DependencyScope, e.Dependency)
}

// UnknownFixtureError is returned for references to fixtures that were never defined.
type UnknownFixtureError struct {
	Name string
	// RequiredBy is the dependent fixture, empty if the name was requested directly.
	RequiredBy string
}

func (e *UnknownFixtureError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("unknown fixture %q required by %q", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("unknown fixture %q", e.Name)
}

// FixtureConstructionError is returned by Resolve when a factory failed.
// TeardownErr is set if tearing down the fixtures built during the same resolution failed as well.
type FixtureConstructionError struct {
	Name        string
	Scope       Scope
	Err         error
	TeardownErr error
}

func (e *FixtureConstructionError) Error() string {
	msg := fmt.Sprintf("constructing %s fixture %q: %v", e.Scope, e.Name, e.Err)
	if e.TeardownErr != nil {
		msg += fmt.Sprintf(" (cleanup: %v)", e.TeardownErr)
	}
	return msg
}

func (e *FixtureConstructionError) Unwrap() error {
	return e.Err
}

// TeardownFailure is a single failed teardown.
type TeardownFailure struct {
	Name string
	Err  error
}

// TeardownError aggregates all teardown failures of one scope key.
type TeardownError struct {
	ScopeKey uuid.UUID
	Failures []TeardownFailure
}

func (e *TeardownError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Name, f.Err)
	}
	return fmt.Sprintf("tearing down %d fixture(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *TeardownError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
