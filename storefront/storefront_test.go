package storefront

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/browser"
	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/fixture"
	"github.com/networkteam/storefront-e2e/runner"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	suite := runner.NewSuite()
	reg := suite.Registry()
	require.NoError(t, Register(reg, config.Default()))
	require.NoError(t, reg.Seal())

	for _, name := range []string{
		FixtureFaker, FixtureHomePage, FixtureProductDetailPage, FixtureCartPage, FixtureLoginModal,
		FixtureSignupModal, FixtureContactModal, FixturePlaceOrderModal, FixtureConfirmationAlert,
	} {
		def, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, fixture.ScopeTest, def.Scope, name)
		assert.False(t, def.Auto, name)
	}

	session, ok := reg.Lookup(FixtureSession)
	require.True(t, ok)
	assert.True(t, session.Auto)
	assert.Contains(t, session.Dependencies, browser.FixturePage)
	assert.Contains(t, session.Dependencies, FixtureHomePage)

	cfgDef, ok := reg.Lookup(config.FixtureName)
	require.True(t, ok)
	assert.Equal(t, fixture.ScopeWorker, cfgDef.Scope)
}

func TestRegister_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.BaseURL = ""

	err := Register(fixture.NewRegistry(), cfg)
	assert.ErrorContains(t, err, "invalid config")
}

type fakeSessionPage struct {
	closed      bool
	loggedIn    bool
	loggedInErr error
	logoutErr   error
	shotPath    string
	shotErr     error
	closeErr    error

	calls []string
}

func (f *fakeSessionPage) URL() string {
	f.calls = append(f.calls, "url")
	return "https://www.demoblaze.com/cart.html"
}

func (f *fakeSessionPage) IsLoggedIn() (bool, error) {
	f.calls = append(f.calls, "isLoggedIn")
	return f.loggedIn, f.loggedInErr
}

func (f *fakeSessionPage) Logout() error {
	f.calls = append(f.calls, "logout")
	return f.logoutErr
}

func (f *fakeSessionPage) Screenshot() (string, error) {
	f.calls = append(f.calls, "screenshot")
	return f.shotPath, f.shotErr
}

func (f *fakeSessionPage) IsClosed() bool { return f.closed }

func (f *fakeSessionPage) Close() error {
	f.calls = append(f.calls, "close")
	return f.closeErr
}

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestEndSession_Passed(t *testing.T) {
	t.Parallel()

	p := &fakeSessionPage{}
	logger, _ := testLogger()

	require.NoError(t, endSession(p, false, logger))
	assert.Equal(t, []string{"isLoggedIn", "close"}, p.calls)
}

func TestEndSession_FailedLoggedIn(t *testing.T) {
	t.Parallel()

	p := &fakeSessionPage{loggedIn: true, shotPath: "reports/test-results/x/screenshot.png"}
	logger, buf := testLogger()

	require.NoError(t, endSession(p, true, logger))
	assert.Equal(t, []string{"url", "screenshot", "isLoggedIn", "logout", "close"}, p.calls)
	assert.Contains(t, buf.String(), "cart.html")
	assert.Contains(t, buf.String(), "screenshot.png")
}

func TestEndSession_CleanupProblemsAreLogged(t *testing.T) {
	t.Parallel()

	p := &fakeSessionPage{loggedIn: true, logoutErr: errors.New("logout link detached"), shotErr: errors.New("no screen")}
	logger, buf := testLogger()

	require.NoError(t, endSession(p, true, logger))
	assert.Contains(t, buf.String(), "logout link detached")
	assert.Contains(t, buf.String(), "no screen")
	assert.Contains(t, p.calls, "close")
}

func TestEndSession_CloseError(t *testing.T) {
	t.Parallel()

	p := &fakeSessionPage{closeErr: errors.New("target closed")}
	logger, _ := testLogger()

	assert.ErrorContains(t, endSession(p, false, logger), "target closed")
}

func TestEndSession_AlreadyClosed(t *testing.T) {
	t.Parallel()

	p := &fakeSessionPage{closed: true}
	logger, _ := testLogger()

	require.NoError(t, endSession(p, true, logger))
	assert.Empty(t, p.calls)
}
