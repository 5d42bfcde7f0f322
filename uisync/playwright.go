package uisync

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// AttachPage creates a dialog bridge fed by the page's dialog events.
// The bridge is the only dialog listener it installs; Close removes it again.
func AttachPage(page playwright.Page, opts ...BridgeOption) *DialogBridge {
	b := NewDialogBridge(opts...)
	handler := func(d playwright.Dialog) {
		b.Deliver(d)
	}
	page.OnDialog(handler)
	b.detach = func() {
		page.RemoveListener("dialog", handler)
	}
	return b
}

// LocatorHidden is true once the locator resolves to no visible element.
func LocatorHidden(loc playwright.Locator) Predicate {
	return func(ctx context.Context) (bool, error) {
		return loc.IsHidden()
	}
}

// LocatorVisible is true once the locator resolves to a visible element.
func LocatorVisible(loc playwright.Locator) Predicate {
	return func(ctx context.Context) (bool, error) {
		return loc.IsVisible()
	}
}

// LocatorCount is true once match accepts the number of elements the locator resolves to.
func LocatorCount(loc playwright.Locator, match func(n int) bool) Predicate {
	return func(ctx context.Context) (bool, error) {
		n, err := loc.Count()
		if err != nil {
			return false, err
		}
		return match(n), nil
	}
}

// PageFunction evaluates a JavaScript expression against the page and expects a boolean.
func PageFunction(page playwright.Page, expression string, arg any) Predicate {
	return func(ctx context.Context) (bool, error) {
		result, err := page.Evaluate(expression, arg)
		if err != nil {
			return false, err
		}
		ok, isBool := result.(bool)
		if !isBool {
			return false, fmt.Errorf("expression returned %T, expected bool", result)
		}
		return ok, nil
	}
}
