package fixture

import (
	"context"
	"fmt"
)

// Values maps fixture names to resolved values.
type Values map[string]any

// Get returns the value of the named fixture as T.
func Get[T any](values Values, name string) (T, error) {
	var zero T
	v, ok := values[name]
	if !ok {
		return zero, &UnknownFixtureError{Name: name}
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("fixture %q is %T, not %T", name, v, zero)
	}
	return typed, nil
}

// MustGet is like Get but panics if the value is missing or of another type.
// Factories use it for their declared dependencies.
func MustGet[T any](values Values, name string) T {
	v, err := Get[T](values, name)
	if err != nil {
		panic(err)
	}
	return v
}

// Provide adapts a typed constructor to a Factory.
func Provide[T any](fn func(ctx context.Context, deps Values) (T, Teardown, error)) Factory {
	return func(ctx context.Context, deps Values) (any, Teardown, error) {
		v, teardown, err := fn(ctx, deps)
		if err != nil {
			return nil, nil, err
		}
		return v, teardown, nil
	}
}

// Value returns a Factory for a constant value without teardown.
func Value[T any](v T) Factory {
	return func(ctx context.Context, deps Values) (any, Teardown, error) {
		return v, nil, nil
	}
}
