package pages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/storefront-e2e/uisync"
)

const loginText = "Log in"

// LoginModal is the "Log in" dialog.
type LoginModal struct {
	base

	loginModal      playwright.Locator
	usernameField   playwright.Locator
	passwordField   playwright.Locator
	loginButton     playwright.Locator
	usernameDisplay playwright.Locator
}

func NewLoginModal(d Deps) *LoginModal {
	m := &LoginModal{base: newBase(d)}
	m.SetLocators(d.Page)
	return m
}

func (m *LoginModal) SetLocators(page playwright.Page) {
	m.loginModal = byRole(page, "dialog", loginText, false)
	m.usernameField = page.Locator("#loginusername")
	m.passwordField = page.Locator("#loginpassword")
	m.loginButton = byRole(page, "button", loginText, false)
	m.usernameDisplay = page.Locator("#nameofuser")
}

func (m *LoginModal) FillUsername(username string) error {
	return m.fillVisible("username field", m.usernameField, username)
}

func (m *LoginModal) FillPassword(password string) error {
	return m.fillVisible("password field", m.passwordField, password)
}

func (m *LoginModal) fillVisible(what string, field playwright.Locator, value string) error {
	if err := m.expectVisible(what, field); err != nil {
		return err
	}
	return field.Fill(value)
}

func (m *LoginModal) FillLoginForm(ctx context.Context, username, password string) error {
	if err := m.WaitForModalToBeReady(ctx); err != nil {
		return err
	}
	if err := m.FillUsername(username); err != nil {
		return err
	}
	return m.FillPassword(password)
}

// ClickLoginButton submits the form. The site answers either with an alert (wrong credentials)
// or by closing the modal; whichever happens first settles the click. An alert is accepted and
// returned in the outcome.
func (m *LoginModal) ClickLoginButton(ctx context.Context) (uisync.Outcome, error) {
	outcome, err := m.raceDialog(ctx, m.loginButton, uisync.Condition{
		Description: "login modal to close",
		Predicate:   uisync.LocatorHidden(m.loginModal),
	}, m.timeouts.Login)
	if err != nil {
		return outcome, fmt.Errorf("neither alert nor modal close detected after clicking login button: %w", err)
	}
	if outcome.Kind == uisync.DialogWon {
		m.logger.Info("Login answered with alert", slog.String("message", outcome.Dialog.Message))
	}
	return outcome, nil
}

func (m *LoginModal) LoginWithCredentials(ctx context.Context, username, password string) (uisync.Outcome, error) {
	if err := m.FillLoginForm(ctx, username, password); err != nil {
		return uisync.Outcome{}, err
	}
	return m.ClickLoginButton(ctx)
}

func (m *LoginModal) VerifyModalIsOpen() error {
	return m.expectVisible("login modal", m.loginModal)
}

func (m *LoginModal) VerifyModalIsClosed() error {
	return m.expectHidden("login modal", m.loginModal, m.timeouts.Dialog)
}

func (m *LoginModal) VerifyLoginFormFields() error {
	return m.expectAllVisible(
		element{"username field", m.usernameField},
		element{"password field", m.passwordField},
		element{"login button", m.loginButton},
	)
}

// VerifySuccessfulLogin expects the welcome text to name the user and the modal to be gone.
func (m *LoginModal) VerifySuccessfulLogin(ctx context.Context, username string) error {
	if err := m.expectContainsText(ctx, "user greeting", m.usernameDisplay, username, m.timeouts.Verification); err != nil {
		return err
	}
	return m.VerifyModalIsClosed()
}

func (m *LoginModal) VerifyCompleteModal() error {
	if err := m.VerifyModalIsOpen(); err != nil {
		return err
	}
	return m.VerifyLoginFormFields()
}

func (m *LoginModal) WaitForModalToBeReady(ctx context.Context) error {
	err := m.expectAllVisible(
		element{"login modal", m.loginModal},
		element{"username field", m.usernameField},
		element{"password field", m.passwordField},
	)
	if err != nil {
		return err
	}
	return m.expectEnabled(ctx, "login button", m.loginButton)
}
