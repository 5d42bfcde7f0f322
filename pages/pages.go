// Package pages holds the page objects of the storefront: one struct per page, modal or alert,
// each owning its locators and the actions and verifications a test performs on it.
package pages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/uisync"
)

// PageObject is implemented by every page object. SetLocators (re)binds all locators to page.
type PageObject interface {
	SetLocators(page playwright.Page)
}

var (
	_ PageObject = (*HomePage)(nil)
	_ PageObject = (*ProductDetailPage)(nil)
	_ PageObject = (*CartPage)(nil)
	_ PageObject = (*LoginModal)(nil)
	_ PageObject = (*SignupModal)(nil)
	_ PageObject = (*ContactModal)(nil)
	_ PageObject = (*PlaceOrderModal)(nil)
	_ PageObject = (*ConfirmationAlert)(nil)
)

// Deps are the collaborators shared by all page objects of a test.
type Deps struct {
	Page     playwright.Page
	Dialogs  *uisync.DialogBridge
	Timeouts config.Timeouts
	Logger   *slog.Logger
}

type base struct {
	page     playwright.Page
	dialogs  *uisync.DialogBridge
	timeouts config.Timeouts
	logger   *slog.Logger
}

func newBase(d Deps) base {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		page:     d.Page,
		dialogs:  d.Dialogs,
		timeouts: d.Timeouts,
		logger:   logger,
	}
}

func milliseconds(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (b base) expectVisible(what string, loc playwright.Locator) error {
	return b.expectVisibleWithin(what, loc, b.timeouts.Expect)
}

func (b base) expectVisibleWithin(what string, loc playwright.Locator, timeout time.Duration) error {
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		return fmt.Errorf("expected %s to be visible: %w", what, err)
	}
	return nil
}

func (b base) expectHidden(what string, loc playwright.Locator, timeout time.Duration) error {
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		return fmt.Errorf("expected %s not to be visible: %w", what, err)
	}
	return nil
}

// element pairs a locator with a name for error messages.
type element struct {
	name string
	loc  playwright.Locator
}

func (b base) expectAllVisible(elements ...element) error {
	for _, el := range elements {
		if err := b.expectVisible(el.name, el.loc); err != nil {
			return err
		}
	}
	return nil
}

func (b base) expectContainsText(ctx context.Context, what string, loc playwright.Locator, text string, timeout time.Duration) error {
	return uisync.WaitFor(ctx, uisync.Condition{
		Description: fmt.Sprintf("%s to contain %q", what, text),
		Predicate: func(ctx context.Context) (bool, error) {
			content, err := loc.TextContent()
			if err != nil {
				return false, err
			}
			return strings.Contains(content, text), nil
		},
		Timeout: timeout,
	})
}

func (b base) expectEnabled(ctx context.Context, what string, loc playwright.Locator) error {
	return uisync.WaitFor(ctx, uisync.Condition{
		Description: what + " to be enabled",
		Predicate: func(ctx context.Context) (bool, error) {
			return loc.IsEnabled()
		},
		Timeout: b.timeouts.Expect,
	})
}

// expectDialog runs action and waits for the dialog it opens. The dialog is accepted.
func (b base) expectDialog(ctx context.Context, action func() error) (uisync.DialogEvent, error) {
	evt, err := b.dialogs.ExpectDialog(ctx, b.timeouts.Dialog, action)
	if err != nil {
		return evt, err
	}
	b.logger.Debug("Dialog accepted", slog.String("message", evt.Message))
	return evt, nil
}

// raceDialog clicks trigger and waits for either a dialog or settled to become true.
func (b base) raceDialog(ctx context.Context, trigger playwright.Locator, settled uisync.Condition, timeout time.Duration) (uisync.Outcome, error) {
	sub := b.dialogs.OnNextDialog(nil)
	if err := trigger.Click(); err != nil {
		sub.Cancel()
		return uisync.Outcome{}, err
	}
	outcome, err := uisync.RaceOutcome(ctx, sub, settled, timeout)
	if err != nil {
		return outcome, err
	}
	b.logger.Debug("Race settled", slog.Any("outcome", outcome))
	return outcome, nil
}

func byRole(page playwright.Page, role, name string, exact bool) playwright.Locator {
	opts := playwright.PageGetByRoleOptions{Name: name}
	if exact {
		opts.Exact = playwright.Bool(true)
	}
	return page.GetByRole(playwright.AriaRole(role), opts)
}
