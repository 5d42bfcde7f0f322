// Package storefront defines the fixture set used by the scenarios: configuration, browser,
// page objects and the session controller that prepares and cleans up every test.
package storefront

import (
	"context"
	"errors"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/storefront-e2e/browser"
	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/fixture"
	"github.com/networkteam/storefront-e2e/pages"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/uisync"
)

// Fixture names.
const (
	FixtureFaker             = "faker"
	FixtureHomePage          = "homePage"
	FixtureProductDetailPage = "productDetailPage"
	FixtureCartPage          = "cartPage"
	FixtureLoginModal        = "loginModal"
	FixtureSignupModal       = "signupModal"
	FixtureContactModal      = "contactModal"
	FixturePlaceOrderModal   = "placeOrderModal"
	FixtureConfirmationAlert = "confirmationAlert"
	FixtureSession           = "session"
)

var pageDeps = []string{config.FixtureName, browser.FixturePage, browser.FixtureDialogs, runner.FixtureTestInfo}

// Register defines config, browser, page object and session fixtures on reg.
func Register(reg *fixture.Registry, cfg config.Config) error {
	if err := config.Register(reg, cfg); err != nil {
		return err
	}
	if err := browser.Register(reg); err != nil {
		return err
	}

	withFaker := append([]string{FixtureFaker}, pageDeps...)
	return errors.Join(
		reg.Define(FixtureFaker, fixture.ScopeTest, nil, fixture.Provide(newFaker)),
		reg.Define(FixtureHomePage, fixture.ScopeTest, pageDeps, fixture.Provide(func(ctx context.Context, deps fixture.Values) (*pages.HomePage, fixture.Teardown, error) {
			cfg := fixture.MustGet[config.Config](deps, config.FixtureName)
			return pages.NewHomePage(pageDepsOf(deps), cfg.BaseURL), nil, nil
		})),
		reg.Define(FixtureProductDetailPage, fixture.ScopeTest, pageDeps, pageObject(pages.NewProductDetailPage)),
		reg.Define(FixtureCartPage, fixture.ScopeTest, pageDeps, pageObject(pages.NewCartPage)),
		reg.Define(FixtureLoginModal, fixture.ScopeTest, pageDeps, pageObject(pages.NewLoginModal)),
		reg.Define(FixtureConfirmationAlert, fixture.ScopeTest, pageDeps, pageObject(pages.NewConfirmationAlert)),
		reg.Define(FixtureSignupModal, fixture.ScopeTest, withFaker, fakerPageObject(pages.NewSignupModal)),
		reg.Define(FixtureContactModal, fixture.ScopeTest, withFaker, fakerPageObject(pages.NewContactModal)),
		reg.Define(FixturePlaceOrderModal, fixture.ScopeTest, withFaker, fakerPageObject(pages.NewPlaceOrderModal)),
		reg.Define(FixtureSession, fixture.ScopeTest,
			[]string{config.FixtureName, browser.FixturePage, runner.FixtureTestInfo, FixtureHomePage},
			fixture.Provide(newSession), fixture.Auto()),
	)
}

func newFaker(ctx context.Context, deps fixture.Values) (*gofakeit.Faker, fixture.Teardown, error) {
	// Seed 0 picks a random seed.
	return gofakeit.New(0), nil, nil
}

func pageDepsOf(deps fixture.Values) pages.Deps {
	cfg := fixture.MustGet[config.Config](deps, config.FixtureName)
	info := fixture.MustGet[*runner.TestInfo](deps, runner.FixtureTestInfo)
	return pages.Deps{
		Page:     fixture.MustGet[playwright.Page](deps, browser.FixturePage),
		Dialogs:  fixture.MustGet[*uisync.DialogBridge](deps, browser.FixtureDialogs),
		Timeouts: cfg.Timeouts,
		Logger:   info.Logger,
	}
}

func pageObject[P pages.PageObject](newFn func(pages.Deps) P) fixture.Factory {
	return fixture.Provide(func(ctx context.Context, deps fixture.Values) (P, fixture.Teardown, error) {
		return newFn(pageDepsOf(deps)), nil, nil
	})
}

func fakerPageObject[P pages.PageObject](newFn func(pages.Deps, *gofakeit.Faker) P) fixture.Factory {
	return fixture.Provide(func(ctx context.Context, deps fixture.Values) (P, fixture.Teardown, error) {
		faker := fixture.MustGet[*gofakeit.Faker](deps, FixtureFaker)
		return newFn(pageDepsOf(deps), faker), nil, nil
	})
}
