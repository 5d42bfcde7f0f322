// Package scenarios contains the storefront test cases.
package scenarios

import (
	"github.com/networkteam/storefront-e2e/runner"
)

// Tags.
const (
	TagAll       = "@all"
	TagPriority1 = "@priority1"
	TagPriority2 = "@priority2"
	TagPriority3 = "@priority3"
	TagPriority4 = "@priority4"
)

// All returns every scenario in a stable order.
func All() []runner.Test {
	var tests []runner.Test
	tests = append(tests, coreFunctionality()...)
	tests = append(tests, userManagement()...)
	tests = append(tests, cartAndProducts()...)
	tests = append(tests, contactForm()...)
	tests = append(tests, validation()...)
	return tests
}

// Register adds all scenarios to suite.
func Register(suite *runner.Suite) error {
	return suite.Add(All()...)
}
