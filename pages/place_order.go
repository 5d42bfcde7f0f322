package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/storefront-e2e/uisync"
)

// RequiredFieldsMessage is the alert shown when purchasing without name or credit card.
const RequiredFieldsMessage = "Please fill out Name and Creditcard."

// OrderConfirmationDetails are the texts the purchase confirmation must contain.
var OrderConfirmationDetails = []string{
	purchaseThankYouText,
	"Id",
	"Amount",
	"Card Number",
	"Name",
	"Date",
}

// PurchaseData is the content of the order form.
type PurchaseData struct {
	Name    string
	Country string
	City    string
	Card    string
	Month   string
	Year    string
}

// RandomPurchaseData generates valid order data. The card expires two years after now.
func RandomPurchaseData(f *gofakeit.Faker, now time.Time) PurchaseData {
	return PurchaseData{
		Name:    f.Name(),
		Country: f.Country(),
		City:    f.City(),
		Card:    f.CreditCardNumber(nil),
		Month:   fmt.Sprintf("%02d", int(now.Month())),
		Year:    strconv.Itoa(now.Year() + 2),
	}
}

// PlaceOrderModal is the "Place order" dialog opened from the cart.
type PlaceOrderModal struct {
	base
	faker *gofakeit.Faker
	now   func() time.Time

	title          playwright.Locator
	nameField      playwright.Locator
	countryField   playwright.Locator
	cityField      playwright.Locator
	cardField      playwright.Locator
	monthField     playwright.Locator
	yearField      playwright.Locator
	purchaseButton playwright.Locator
	confirmation   playwright.Locator
}

func NewPlaceOrderModal(d Deps, faker *gofakeit.Faker) *PlaceOrderModal {
	m := &PlaceOrderModal{base: newBase(d), faker: faker, now: time.Now}
	m.SetLocators(d.Page)
	return m
}

func (m *PlaceOrderModal) SetLocators(page playwright.Page) {
	m.title = byRole(page, "dialog", "Place order", false)
	m.nameField = page.Locator("#name")
	m.countryField = byRole(page, "textbox", "Country:", false)
	m.cityField = byRole(page, "textbox", "City:", false)
	m.cardField = byRole(page, "textbox", "Credit card:", false)
	m.monthField = byRole(page, "textbox", "Month:", false)
	m.yearField = byRole(page, "textbox", "Year:", false)
	m.purchaseButton = purchaseButton(page)
	m.confirmation = confirmationLocator(page)
}

func purchaseButton(page playwright.Page) playwright.Locator {
	return byRole(page, "button", "Purchase", false)
}

func (m *PlaceOrderModal) PurchaseButton() playwright.Locator {
	return m.purchaseButton
}

func (m *PlaceOrderModal) FillName(v string) error       { return m.nameField.Fill(v) }
func (m *PlaceOrderModal) FillCountry(v string) error    { return m.countryField.Fill(v) }
func (m *PlaceOrderModal) FillCity(v string) error       { return m.cityField.Fill(v) }
func (m *PlaceOrderModal) FillCreditCard(v string) error { return m.cardField.Fill(v) }
func (m *PlaceOrderModal) FillMonth(v string) error      { return m.monthField.Fill(v) }
func (m *PlaceOrderModal) FillYear(v string) error       { return m.yearField.Fill(v) }

// FillPurchaseForm fills all fields. Empty fields of data are generated.
func (m *PlaceOrderModal) FillPurchaseForm(data PurchaseData) error {
	data = withPurchaseDefaults(data, RandomPurchaseData(m.faker, m.now()))

	fills := []struct {
		fill  func(string) error
		value string
	}{
		{m.FillName, data.Name},
		{m.FillCountry, data.Country},
		{m.FillCity, data.City},
		{m.FillCreditCard, data.Card},
		{m.FillMonth, data.Month},
		{m.FillYear, data.Year},
	}
	for _, f := range fills {
		if err := f.fill(f.value); err != nil {
			return err
		}
	}
	return nil
}

func withPurchaseDefaults(data, defaults PurchaseData) PurchaseData {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return PurchaseData{
		Name:    pick(data.Name, defaults.Name),
		Country: pick(data.Country, defaults.Country),
		City:    pick(data.City, defaults.City),
		Card:    pick(data.Card, defaults.Card),
		Month:   pick(data.Month, defaults.Month),
		Year:    pick(data.Year, defaults.Year),
	}
}

func (m *PlaceOrderModal) FillValidPurchaseForm() error {
	return m.FillPurchaseForm(PurchaseData{})
}

func (m *PlaceOrderModal) ClearPurchaseForm() error {
	for _, field := range []playwright.Locator{m.nameField, m.countryField, m.cityField, m.cardField, m.monthField, m.yearField} {
		if err := field.Clear(); err != nil {
			return err
		}
	}
	return nil
}

// ClickPurchaseButton submits the order and waits for the confirmation. A validation alert
// appearing instead is accepted and reported as a failure.
func (m *PlaceOrderModal) ClickPurchaseButton(ctx context.Context) error {
	outcome, err := m.raceDialog(ctx, m.purchaseButton, uisync.Condition{
		Description: "order confirmation to appear",
		Predicate:   uisync.LocatorVisible(m.confirmation),
	}, m.timeouts.Dialog)
	if err != nil {
		return err
	}
	if outcome.Kind == uisync.DialogWon {
		return uisync.Failf("purchase was rejected with alert %q", outcome.Dialog.Message)
	}
	return nil
}

func (m *PlaceOrderModal) VerifyModalIsOpen() error {
	return m.expectVisible("place order modal", m.title)
}

// VerifyAlertMessage clicks "Purchase" and expects an alert with exactly message.
func (m *PlaceOrderModal) VerifyAlertMessage(ctx context.Context, message string) error {
	evt, err := m.expectDialog(ctx, func() error {
		return m.purchaseButton.Click()
	})
	if err != nil {
		return err
	}
	if evt.Message != message {
		return uisync.Failf("expected alert %q, got %q", message, evt.Message)
	}
	return nil
}

// TestEmptyFieldValidation empties name and then credit card of an otherwise valid form and expects
// the required fields alert each time.
func (m *PlaceOrderModal) TestEmptyFieldValidation(ctx context.Context) error {
	fields := []struct {
		name      string
		fillEmpty func(string) error
	}{
		{"name", m.FillName},
		{"card", m.FillCreditCard},
	}
	for _, field := range fields {
		if err := m.FillValidPurchaseForm(); err != nil {
			return err
		}
		if err := field.fillEmpty(""); err != nil {
			return err
		}
		if err := m.VerifyAlertMessage(ctx, RequiredFieldsMessage); err != nil {
			return fmt.Errorf("empty %s: %w", field.name, err)
		}
	}
	return nil
}

// VerifyOrderConfirmationDetails checks the confirmation text for all order details.
// An empty text is not checked.
func VerifyOrderConfirmationDetails(text string) error {
	if text == "" {
		return nil
	}
	var missing []string
	for _, detail := range OrderConfirmationDetails {
		if !strings.Contains(text, detail) {
			missing = append(missing, detail)
		}
	}
	if len(missing) > 0 {
		return uisync.Failf("order confirmation is missing %s", strings.Join(missing, ", "))
	}
	return nil
}
