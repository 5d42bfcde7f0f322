// Package browser defines the Playwright fixtures: one Chromium per worker and an isolated context,
// page, dialog bridge and API request context per test.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/fixture"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/uisync"
)

// Fixture names.
const (
	FixturePlaywright     = "playwright"
	FixtureBrowser        = "browser"
	FixtureAPIBaseURL     = "apiBaseURL"
	FixtureBrowserContext = "browserContext"
	FixturePage           = "page"
	FixtureDialogs        = "dialogs"
	FixtureAPIRequest     = "apiRequest"
)

// Install downloads the Chromium build matching the Playwright driver.
func Install() error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	})
}

// Register defines the browser fixtures. It expects the config fixture to be defined as well.
func Register(reg *fixture.Registry) error {
	return errors.Join(
		reg.Define(FixturePlaywright, fixture.ScopeWorker, nil, fixture.Provide(newPlaywright)),
		reg.Define(FixtureBrowser, fixture.ScopeWorker, []string{config.FixtureName, FixturePlaywright}, fixture.Provide(newBrowser)),
		reg.Define(FixtureAPIBaseURL, fixture.ScopeWorker, []string{config.FixtureName}, fixture.Provide(apiBaseURL)),
		reg.Define(FixtureBrowserContext, fixture.ScopeTest, []string{config.FixtureName, FixtureBrowser, runner.FixtureTestInfo}, fixture.Provide(newBrowserContext)),
		reg.Define(FixturePage, fixture.ScopeTest, []string{config.FixtureName, FixtureBrowserContext}, fixture.Provide(newPage)),
		reg.Define(FixtureDialogs, fixture.ScopeTest, []string{FixturePage, runner.FixtureTestInfo}, fixture.Provide(newDialogBridge)),
		reg.Define(FixtureAPIRequest, fixture.ScopeTest, []string{FixturePlaywright, FixtureAPIBaseURL}, fixture.Provide(newAPIRequest)),
	)
}

func newPlaywright(ctx context.Context, deps fixture.Values) (*playwright.Playwright, fixture.Teardown, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("starting playwright: %w", err)
	}
	return pw, func(ctx context.Context) error {
		return pw.Stop()
	}, nil
}

func newBrowser(ctx context.Context, deps fixture.Values) (playwright.Browser, fixture.Teardown, error) {
	cfg := fixture.MustGet[config.Config](deps, config.FixtureName)
	pw := fixture.MustGet[*playwright.Playwright](deps, FixturePlaywright)

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Browser.Headless),
		Args:     cfg.Browser.Args,
	}
	if cfg.Browser.SlowMo > 0 {
		opts.SlowMo = playwright.Float(float64(cfg.Browser.SlowMo.Milliseconds()))
	}
	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("launching chromium: %w", err)
	}
	return browser, func(ctx context.Context) error {
		return browser.Close()
	}, nil
}

func apiBaseURL(ctx context.Context, deps fixture.Values) (string, fixture.Teardown, error) {
	return fixture.MustGet[config.Config](deps, config.FixtureName).APIBaseURL, nil, nil
}

// newBrowserContext creates an isolated context per test. With tracing enabled the trace is kept for failed tests only.
func newBrowserContext(ctx context.Context, deps fixture.Values) (playwright.BrowserContext, fixture.Teardown, error) {
	cfg := fixture.MustGet[config.Config](deps, config.FixtureName)
	browser := fixture.MustGet[playwright.Browser](deps, FixtureBrowser)
	info := fixture.MustGet[*runner.TestInfo](deps, runner.FixtureTestInfo)

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
		NoViewport:        playwright.Bool(true),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating browser context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(cfg.Timeouts.Expect.Milliseconds()))

	tracing := cfg.Browser.Trace
	if tracing {
		err := bctx.Tracing().Start(playwright.TracingStartOptions{
			Title:       playwright.String(info.Test.FullName()),
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
		})
		if err != nil {
			info.Logger.Warn("Could not start tracing", slog.Any("error", err))
			tracing = false
		}
	}

	return bctx, func(ctx context.Context) error {
		var errs []error
		if tracing {
			if info.Failed() {
				path, err := artifactPath(cfg, info, "trace.zip")
				if err == nil {
					err = bctx.Tracing().Stop(path)
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("saving trace: %w", err))
				} else {
					info.Logger.Info("Saved trace", slog.String("path", path))
				}
			} else if err := bctx.Tracing().Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stopping trace: %w", err))
			}
		}
		if err := bctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser context: %w", err))
		}
		return errors.Join(errs...)
	}, nil
}

func newPage(ctx context.Context, deps fixture.Values) (playwright.Page, fixture.Teardown, error) {
	bctx := fixture.MustGet[playwright.BrowserContext](deps, FixtureBrowserContext)

	page, err := bctx.NewPage()
	if err != nil {
		return nil, nil, fmt.Errorf("opening page: %w", err)
	}
	return page, func(ctx context.Context) error {
		if page.IsClosed() {
			return nil
		}
		return page.Close()
	}, nil
}

func newDialogBridge(ctx context.Context, deps fixture.Values) (*uisync.DialogBridge, fixture.Teardown, error) {
	page := fixture.MustGet[playwright.Page](deps, FixturePage)
	info := fixture.MustGet[*runner.TestInfo](deps, runner.FixtureTestInfo)

	bridge := uisync.AttachPage(page, uisync.WithBridgeLogger(info.Logger))
	return bridge, func(ctx context.Context) error {
		bridge.Close()
		return nil
	}, nil
}

func newAPIRequest(ctx context.Context, deps fixture.Values) (playwright.APIRequestContext, fixture.Teardown, error) {
	pw := fixture.MustGet[*playwright.Playwright](deps, FixturePlaywright)
	baseURL := fixture.MustGet[string](deps, FixtureAPIBaseURL)

	request, err := pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL:           playwright.String(baseURL),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating API request context: %w", err)
	}
	return request, func(ctx context.Context) error {
		return request.Dispose()
	}, nil
}

// CaptureScreenshot stores a full page screenshot of a failed test, if enabled and the page is still open.
// It returns the path of the screenshot, or an empty string if none was taken.
func CaptureScreenshot(cfg config.Config, info *runner.TestInfo, page playwright.Page) (string, error) {
	if !cfg.Browser.Screenshot || !info.Failed() || page.IsClosed() {
		return "", nil
	}
	path, err := artifactPath(cfg, info, "screenshot.png")
	if err != nil {
		return "", err
	}
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return "", fmt.Errorf("taking screenshot: %w", err)
	}
	return path, nil
}

func artifactPath(cfg config.Config, info *runner.TestInfo, name string) (string, error) {
	dir := info.OutputDir(cfg.ArtifactDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}
