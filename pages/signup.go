package pages

import (
	"context"
	"log/slog"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/playwright-community/playwright-go"
)

// Credentials of a storefront user.
type Credentials struct {
	Username string
	Password string
}

// RandomCredentials generates a username and password that are unlikely to exist yet.
func RandomCredentials(f *gofakeit.Faker) Credentials {
	return Credentials{
		Username: f.Username() + f.DigitN(4),
		Password: f.Password(true, true, true, false, false, 12),
	}
}

// SignupModal is the "Sign up" dialog.
type SignupModal struct {
	base
	faker *gofakeit.Faker

	signupModal   playwright.Locator
	usernameField playwright.Locator
	passwordField playwright.Locator
	signupButton  playwright.Locator
	closeButton   playwright.Locator
}

// NewSignupModal creates the modal. faker generates credentials if none are given.
func NewSignupModal(d Deps, faker *gofakeit.Faker) *SignupModal {
	m := &SignupModal{base: newBase(d), faker: faker}
	m.SetLocators(d.Page)
	return m
}

func (m *SignupModal) SetLocators(page playwright.Page) {
	m.signupModal = byRole(page, "dialog", "Sign up", false)
	m.usernameField = byRole(page, "textbox", "Username:", false)
	m.passwordField = byRole(page, "textbox", "Password:", false)
	m.signupButton = byRole(page, "button", "Sign up", false)
	m.closeButton = byRole(page, "button", "Close", false)
}

func (m *SignupModal) FillUsername(username string) error {
	return m.usernameField.Fill(username)
}

func (m *SignupModal) FillPassword(password string) error {
	return m.passwordField.Fill(password)
}

// FillSignupForm fills the form. Empty fields of creds are generated.
func (m *SignupModal) FillSignupForm(creds Credentials) (Credentials, error) {
	random := RandomCredentials(m.faker)
	if creds.Username == "" {
		creds.Username = random.Username
	}
	if creds.Password == "" {
		creds.Password = random.Password
	}
	if err := m.FillUsername(creds.Username); err != nil {
		return creds, err
	}
	return creds, m.FillPassword(creds.Password)
}

// ClickSignupButton submits the form and accepts the alert that follows. It returns the alert message.
func (m *SignupModal) ClickSignupButton(ctx context.Context) (string, error) {
	evt, err := m.expectDialog(ctx, func() error {
		return m.signupButton.Click()
	})
	return evt.Message, err
}

func (m *SignupModal) RegisterUser(ctx context.Context, creds Credentials) (string, error) {
	if _, err := m.FillSignupForm(creds); err != nil {
		return "", err
	}
	return m.ClickSignupButton(ctx)
}

// RegisterWithUniqueUser signs up a freshly generated user and returns its credentials.
func (m *SignupModal) RegisterWithUniqueUser(ctx context.Context) (Credentials, error) {
	creds := RandomCredentials(m.faker)
	if _, err := m.FillSignupForm(creds); err != nil {
		return creds, err
	}
	message, err := m.ClickSignupButton(ctx)
	if err != nil {
		return creds, err
	}
	m.logger.Info("Registered user", slog.String("username", creds.Username), slog.String("message", message))
	return creds, nil
}

func (m *SignupModal) VerifyModalIsOpen() error {
	return m.expectVisible("signup modal", m.signupModal)
}

func (m *SignupModal) VerifyModalIsClosed() error {
	return m.expectHidden("signup modal", m.signupModal, m.timeouts.Dialog)
}

func (m *SignupModal) VerifySignupFormFields() error {
	return m.expectAllVisible(
		element{"username field", m.usernameField},
		element{"password field", m.passwordField},
		element{"signup button", m.signupButton},
		element{"close button", m.closeButton},
	)
}

func (m *SignupModal) VerifyCompleteModal() error {
	if err := m.VerifyModalIsOpen(); err != nil {
		return err
	}
	return m.VerifySignupFormFields()
}

// VerifySuccessfulRegistration expects the modal to close. If it stays open it is closed explicitly.
func (m *SignupModal) VerifySuccessfulRegistration() error {
	if err := m.VerifyModalIsClosed(); err == nil {
		return nil
	}
	visible, err := m.signupModal.IsVisible()
	if err != nil {
		return err
	}
	if visible {
		m.logger.Debug("Signup modal still open, closing it")
		return m.CloseModal()
	}
	return nil
}

func (m *SignupModal) CloseModal() error {
	return m.closeButton.Click()
}
