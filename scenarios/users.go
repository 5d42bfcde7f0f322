package scenarios

import (
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/pages"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/storefront"
)

const groupUsers = "Priority 2: Essential User Management"

func userManagement() []runner.Test {
	return []runner.Test{
		{
			Group:    groupUsers,
			Name:     "User Registration - Login with new credentials",
			Tags:     []string{TagAll},
			Fixtures: []string{storefront.FixtureHomePage, storefront.FixtureSignupModal, storefront.FixtureLoginModal},
			Body:     testRegisterAndLogin,
		},
		{
			Group:    groupUsers,
			Name:     "User Login - Existing valid credentials",
			Tags:     []string{TagAll, TagPriority2},
			Fixtures: []string{config.FixtureName, storefront.FixtureHomePage, storefront.FixtureLoginModal},
			Body:     testLoginExisting,
		},
	}
}

func testRegisterAndLogin(t *runner.T) {
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	signup := runner.Fixture[*pages.SignupModal](t, storefront.FixtureSignupModal)
	login := runner.Fixture[*pages.LoginModal](t, storefront.FixtureLoginModal)
	ctx := t.Context()

	var creds pages.Credentials

	t.Step("Open signup modal", func() {
		require.NoError(t, home.ClickSignupLink())
		require.NoError(t, signup.VerifyModalIsOpen())
	})
	t.Step("Register new user", func() {
		var err error
		creds, err = signup.RegisterWithUniqueUser(ctx)
		require.NoError(t, err, "registration failed")
		require.NoError(t, signup.VerifySuccessfulRegistration())
	})
	t.Step("Open login modal", func() {
		require.NoError(t, home.ClickLoginLink())
		require.NoError(t, login.VerifyModalIsOpen())
	})
	t.Step("Login with new credentials", func() {
		_, err := login.LoginWithCredentials(ctx, creds.Username, creds.Password)
		require.NoError(t, err)
	})
	t.Step("Verify successful login", func() {
		require.NoError(t, login.VerifySuccessfulLogin(ctx, creds.Username))
	})
}

func testLoginExisting(t *runner.T) {
	cfg := runner.Fixture[config.Config](t, config.FixtureName)
	if err := cfg.RequireCredentials(); err != nil {
		t.Skipf("%v", err)
	}
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	login := runner.Fixture[*pages.LoginModal](t, storefront.FixtureLoginModal)
	ctx := t.Context()

	t.Step("Click 'Log in' in navigation menu", func() {
		require.NoError(t, home.ClickLoginLink())
	})
	t.Step("Verify login modal opens correctly", func() {
		require.NoError(t, login.VerifyCompleteModal())
	})
	t.Step("Enter valid username and password", func() {
		require.NoError(t, login.FillLoginForm(ctx, cfg.Username, cfg.Password))
	})
	t.Step("Click 'Log in' button", func() {
		_, err := login.ClickLoginButton(ctx)
		require.NoError(t, err)
	})
	t.Step("Verify username is shown in navigation", func() {
		require.NoError(t, login.VerifySuccessfulLogin(ctx, cfg.Username))
	})
}
