package storefront

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/storefront-e2e/browser"
	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/fixture"
	"github.com/networkteam/storefront-e2e/pages"
	"github.com/networkteam/storefront-e2e/runner"
)

// Session is the value of the session fixture. Every test starts on a verified home page.
type Session struct {
	Home *pages.HomePage
}

// sessionPage is what ending a session needs from the browser.
type sessionPage interface {
	URL() string
	IsLoggedIn() (bool, error)
	Logout() error
	Screenshot() (string, error)
	IsClosed() bool
	Close() error
}

type playwrightSession struct {
	cfg  config.Config
	info *runner.TestInfo
	page playwright.Page
	home *pages.HomePage
}

func (s playwrightSession) URL() string                 { return s.page.URL() }
func (s playwrightSession) IsLoggedIn() (bool, error)   { return s.home.IsLoggedIn() }
func (s playwrightSession) Logout() error               { return s.home.ClickLogout() }
func (s playwrightSession) IsClosed() bool              { return s.page.IsClosed() }
func (s playwrightSession) Close() error                { return s.page.Close() }
func (s playwrightSession) Screenshot() (string, error) { return browser.CaptureScreenshot(s.cfg, s.info, s.page) }

func newSession(ctx context.Context, deps fixture.Values) (*Session, fixture.Teardown, error) {
	cfg := fixture.MustGet[config.Config](deps, config.FixtureName)
	info := fixture.MustGet[*runner.TestInfo](deps, runner.FixtureTestInfo)
	page := fixture.MustGet[playwright.Page](deps, browser.FixturePage)
	home := fixture.MustGet[*pages.HomePage](deps, FixtureHomePage)

	if err := startSession(ctx, home); err != nil {
		return nil, nil, err
	}

	sp := playwrightSession{cfg: cfg, info: info, page: page, home: home}
	return &Session{Home: home}, func(ctx context.Context) error {
		return endSession(sp, info.Failed(), info.Logger)
	}, nil
}

func startSession(ctx context.Context, home *pages.HomePage) error {
	if err := home.NavigateToHome(); err != nil {
		return err
	}
	if err := home.VerifyPageLoad(ctx); err != nil {
		return fmt.Errorf("verifying page load: %w", err)
	}
	if err := home.VerifyNavigationElements(ctx); err != nil {
		return fmt.Errorf("verifying navigation: %w", err)
	}
	return nil
}

// endSession records diagnostics for failed tests, logs out and closes the page.
// Logout problems are logged only; an error closing the page is returned.
func endSession(p sessionPage, failed bool, logger *slog.Logger) error {
	if p.IsClosed() {
		return nil
	}

	if failed {
		logger.Info("Test failed", slog.String("url", p.URL()))
		path, err := p.Screenshot()
		switch {
		case err != nil:
			logger.Warn("Could not take screenshot", slog.Any("error", err))
		case path != "":
			logger.Info("Saved screenshot", slog.String("path", path))
		}
	}

	loggedIn, err := p.IsLoggedIn()
	if err != nil {
		logger.Warn("Could not check login state", slog.Any("error", err))
	} else if loggedIn {
		if err := p.Logout(); err != nil {
			logger.Warn("Logout during cleanup failed", slog.Any("error", err))
		}
	}

	if err := p.Close(); err != nil {
		return fmt.Errorf("closing page: %w", err)
	}
	return nil
}
