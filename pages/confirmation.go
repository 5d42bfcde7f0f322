package pages

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/playwright-community/playwright-go"
)

const purchaseThankYouText = "Thank you for your purchase!"

// confirmationLocator matches the purchase confirmation. Both alternatives can match the same
// alert, so the first match is used.
func confirmationLocator(page playwright.Page) playwright.Locator {
	return page.Locator(".sweet-alert").Or(
		page.Locator(fmt.Sprintf(`[role="dialog"]:has-text(%q)`, purchaseThankYouText)),
	).First()
}

// ConfirmationAlert is the order confirmation shown after a purchase.
type ConfirmationAlert struct {
	base

	alert                playwright.Locator
	confirmationTitle    playwright.Locator
	confirmationOKButton playwright.Locator
	purchaseButton       playwright.Locator
	orderID              playwright.Locator
	orderAmount          playwright.Locator
	orderCardNumber      playwright.Locator
	orderName            playwright.Locator
	orderDate            playwright.Locator
}

func NewConfirmationAlert(d Deps) *ConfirmationAlert {
	a := &ConfirmationAlert{base: newBase(d)}
	a.SetLocators(d.Page)
	return a
}

func (a *ConfirmationAlert) SetLocators(page playwright.Page) {
	a.alert = confirmationLocator(page)
	a.confirmationTitle = page.GetByText(purchaseThankYouText)
	a.confirmationOKButton = byRole(page, "button", "OK", false)
	a.purchaseButton = purchaseButton(page)
	a.orderID = page.GetByText(regexp.MustCompile(`Id: \d+`))
	a.orderAmount = page.GetByText(regexp.MustCompile(`Amount: \d+ USD`))
	a.orderCardNumber = page.GetByText(regexp.MustCompile(`Card Number: \d+`))
	a.orderName = page.GetByText(regexp.MustCompile(`Name: .+`))
	a.orderDate = page.GetByText(regexp.MustCompile(`Date: \d+/\d+/\d+`))
}

func (a *ConfirmationAlert) Alert() playwright.Locator {
	return a.alert
}

// VerifyOrderConfirmation checks the alert, its title and all order details are shown.
func (a *ConfirmationAlert) VerifyOrderConfirmation(ctx context.Context) error {
	err := a.expectAllVisible(
		element{"confirmation alert", a.alert},
		element{"confirmation title", a.confirmationTitle},
	)
	if err != nil {
		return err
	}
	if err := a.expectContainsText(ctx, "confirmation title", a.confirmationTitle, purchaseThankYouText, a.timeouts.Expect); err != nil {
		return err
	}
	return a.expectAllVisible(
		element{"order id", a.orderID},
		element{"order amount", a.orderAmount},
		element{"order card number", a.orderCardNumber},
		element{"order name", a.orderName},
		element{"order date", a.orderDate},
	)
}

// OrderConfirmationText verifies the confirmation and returns its text.
func (a *ConfirmationAlert) OrderConfirmationText(ctx context.Context) (string, error) {
	if err := a.VerifyOrderConfirmation(ctx); err != nil {
		return "", err
	}
	return a.alert.TextContent()
}

// CloseOrderConfirmation clicks OK and waits for the alert to go away.
func (a *ConfirmationAlert) CloseOrderConfirmation() error {
	if err := a.confirmationOKButton.Click(); err != nil {
		return fmt.Errorf("clicking OK: %w", err)
	}
	if err := a.expectHidden("confirmation alert", a.alert, a.timeouts.Expect); err != nil {
		return err
	}
	a.handleRemainingModal()
	return nil
}

// handleRemainingModal deals with the order modal occasionally staying open behind the alert.
// Failures are only logged.
func (a *ConfirmationAlert) handleRemainingModal() {
	visible, err := a.purchaseButton.IsVisible()
	if err != nil || !visible {
		return
	}
	err = a.purchaseButton.Click()
	if err == nil {
		err = a.confirmationOKButton.Click()
	}
	if err == nil {
		err = a.expectHidden("confirmation alert", a.alert, a.timeouts.Expect)
	}
	if err != nil {
		a.logger.Warn("Handling remaining order modal failed, continuing", slog.Any("error", err))
	}
}
