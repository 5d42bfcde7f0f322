package e2e_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	e2e "github.com/networkteam/storefront-e2e"
	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/runner"
)

func TestNew(t *testing.T) {
	t.Parallel()

	instance, err := e2e.New()
	require.NoError(t, err)
	assert.Len(t, instance.Tests(), 10)
}

func TestNewWithOptions_Filter(t *testing.T) {
	t.Parallel()

	instance, err := e2e.NewWithOptions(e2e.Options{
		Filter: runner.Filter{
			Run:  runner.MustRegexList("Cart"),
			Tags: []string{"@priority3"},
		},
	})
	require.NoError(t, err)

	tests := instance.Tests()
	require.NotEmpty(t, tests)
	for _, test := range tests {
		assert.True(t, test.HasTag("@priority3"), test.FullName())
		assert.Contains(t, test.FullName(), "Cart")
	}
}

func TestNewWithOptions_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Workers = 0

	_, err := e2e.NewWithOptions(e2e.Options{Config: &cfg})
	assert.ErrorContains(t, err, "workers")
}

func TestInstance_TestsSkip(t *testing.T) {
	t.Parallel()

	instance, err := e2e.NewWithOptions(e2e.Options{
		Filter: runner.Filter{Skip: runner.MustRegexList("Cart")},
	})
	require.NoError(t, err)

	tests := instance.Tests()
	require.NotEmpty(t, tests)
	assert.Less(t, len(tests), 10)
	for _, test := range tests {
		assert.NotContains(t, test.FullName(), "Cart")
	}
}
