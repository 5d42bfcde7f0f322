package scenarios_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/scenarios"
	"github.com/networkteam/storefront-e2e/storefront"
)

func TestAll(t *testing.T) {
	t.Parallel()

	tests := scenarios.All()
	require.Len(t, tests, 10)

	for _, test := range tests {
		assert.True(t, test.HasTag(scenarios.TagAll), test.FullName())
		assert.NotNil(t, test.Body, test.FullName())
		assert.NotEmpty(t, test.Fixtures, test.FullName())
	}

	priority1 := lo.Filter(tests, func(test runner.Test, _ int) bool { return test.HasTag(scenarios.TagPriority1) })
	assert.Len(t, priority1, 3)
}

func TestRegister_FixturesResolvable(t *testing.T) {
	t.Parallel()

	suite := runner.NewSuite()
	require.NoError(t, storefront.Register(suite.Registry(), config.Default()))
	require.NoError(t, scenarios.Register(suite))
	require.NoError(t, suite.Registry().Seal())

	for _, test := range suite.Tests() {
		for _, name := range test.Fixtures {
			_, ok := suite.Registry().Lookup(name)
			assert.True(t, ok, "%s requires unknown fixture %s", test.FullName(), name)
		}
	}
}

func TestRegister_Twice(t *testing.T) {
	t.Parallel()

	suite := runner.NewSuite()
	require.NoError(t, scenarios.Register(suite))
	assert.Error(t, scenarios.Register(suite))
}
