package pages

import (
	"context"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/playwright-community/playwright-go"
)

const contactTitle = "New message"

// ContactMessage is the content of the contact form.
type ContactMessage struct {
	Email   string
	Name    string
	Message string
}

// RandomContactMessage generates a plausible contact message.
func RandomContactMessage(f *gofakeit.Faker) ContactMessage {
	return ContactMessage{
		Email:   f.Email(),
		Name:    f.Name(),
		Message: f.Sentence(10),
	}
}

// ContactModal is the "New message" dialog.
type ContactModal struct {
	base
	faker *gofakeit.Faker

	contactModal      playwright.Locator
	emailField        playwright.Locator
	nameField         playwright.Locator
	messageField      playwright.Locator
	sendMessageButton playwright.Locator
	modalTitle        playwright.Locator
}

func NewContactModal(d Deps, faker *gofakeit.Faker) *ContactModal {
	m := &ContactModal{base: newBase(d), faker: faker}
	m.SetLocators(d.Page)
	return m
}

func (m *ContactModal) SetLocators(page playwright.Page) {
	m.contactModal = page.Locator("#exampleModal")
	m.emailField = page.Locator("#recipient-email")
	m.nameField = page.Locator("#recipient-name")
	m.messageField = byRole(page, "textbox", "Message:", false)
	m.sendMessageButton = byRole(page, "button", "Send message", false)
	m.modalTitle = byRole(page, "heading", contactTitle, false)
}

func (m *ContactModal) FillEmail(email string) error     { return m.emailField.Fill(email) }
func (m *ContactModal) FillName(name string) error       { return m.nameField.Fill(name) }
func (m *ContactModal) FillMessage(message string) error { return m.messageField.Fill(message) }

// FillContactForm fills the form. Empty fields of msg are generated.
func (m *ContactModal) FillContactForm(msg ContactMessage) error {
	random := RandomContactMessage(m.faker)
	if msg.Email == "" {
		msg.Email = random.Email
	}
	if msg.Name == "" {
		msg.Name = random.Name
	}
	if msg.Message == "" {
		msg.Message = random.Message
	}
	if err := m.FillEmail(msg.Email); err != nil {
		return err
	}
	if err := m.FillName(msg.Name); err != nil {
		return err
	}
	return m.FillMessage(msg.Message)
}

func (m *ContactModal) ClickSendMessage() error {
	return m.sendMessageButton.Click()
}

// SendMessage fills the form with generated data, sends it and returns the confirming alert message.
func (m *ContactModal) SendMessage(ctx context.Context) (string, error) {
	evt, err := m.expectDialog(ctx, func() error {
		if err := m.FillContactForm(ContactMessage{}); err != nil {
			return err
		}
		return m.ClickSendMessage()
	})
	return evt.Message, err
}

// AttemptSendWithEmptyFields sends the form as is and returns the alert message.
func (m *ContactModal) AttemptSendWithEmptyFields(ctx context.Context) (string, error) {
	evt, err := m.expectDialog(ctx, m.ClickSendMessage)
	return evt.Message, err
}

func (m *ContactModal) VerifyModalIsOpen() error {
	return m.expectVisible("contact modal", m.contactModal)
}

func (m *ContactModal) VerifyContactFormFields() error {
	return m.expectAllVisible(
		element{"email field", m.emailField},
		element{"name field", m.nameField},
		element{"message field", m.messageField},
		element{"send message button", m.sendMessageButton},
	)
}

func (m *ContactModal) VerifyModalTitle(ctx context.Context) error {
	return m.expectContainsText(ctx, "contact modal title", m.modalTitle, contactTitle, m.timeouts.Expect)
}

func (m *ContactModal) VerifyCompleteModal(ctx context.Context) error {
	if err := m.VerifyModalIsOpen(); err != nil {
		return err
	}
	if err := m.VerifyModalTitle(ctx); err != nil {
		return err
	}
	return m.VerifyContactFormFields()
}
