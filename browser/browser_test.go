package browser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/browser"
	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/fixture"
	"github.com/networkteam/storefront-e2e/runner"
)

func TestRegister_Scopes(t *testing.T) {
	t.Parallel()

	suite := runner.NewSuite()
	reg := suite.Registry()
	require.NoError(t, config.Register(reg, config.Default()))
	require.NoError(t, browser.Register(reg))
	require.NoError(t, reg.Seal())

	scopes := map[string]fixture.Scope{
		browser.FixturePlaywright:     fixture.ScopeWorker,
		browser.FixtureBrowser:        fixture.ScopeWorker,
		browser.FixtureAPIBaseURL:     fixture.ScopeWorker,
		browser.FixtureBrowserContext: fixture.ScopeTest,
		browser.FixturePage:           fixture.ScopeTest,
		browser.FixtureDialogs:        fixture.ScopeTest,
		browser.FixtureAPIRequest:     fixture.ScopeTest,
	}
	for name, scope := range scopes {
		def, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, scope, def.Scope, name)
		assert.False(t, def.Auto, name)
	}

	page, _ := reg.Lookup(browser.FixturePage)
	assert.Contains(t, page.Dependencies, browser.FixtureBrowserContext)
	dialogs, _ := reg.Lookup(browser.FixtureDialogs)
	assert.Contains(t, dialogs.Dependencies, browser.FixturePage)
}

func TestRegister_Twice(t *testing.T) {
	t.Parallel()

	reg := fixture.NewRegistry()
	require.NoError(t, browser.Register(reg))

	var dupErr *fixture.DuplicateNameError
	assert.ErrorAs(t, browser.Register(reg), &dupErr)
}
