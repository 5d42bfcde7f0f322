package scenarios

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/pages"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/storefront"
)

const groupContact = "Contact Form Functionality"

func contactForm() []runner.Test {
	return []runner.Test{
		{
			Group:    groupContact,
			Name:     "Contact Form Functionality",
			Tags:     []string{TagAll, TagPriority3},
			Fixtures: []string{storefront.FixtureHomePage, storefront.FixtureContactModal},
			Body:     testContactForm,
		},
	}
}

func testContactForm(t *runner.T) {
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	contact := runner.Fixture[*pages.ContactModal](t, storefront.FixtureContactModal)
	ctx := t.Context()

	t.Step("Click 'Contact' in navigation menu", func() {
		require.NoError(t, home.ClickContactLink())
	})
	t.Step("Verify contact modal opens", func() {
		require.NoError(t, contact.VerifyModalIsOpen())
	})
	t.Step("Verify fields: email, name, message", func() {
		require.NoError(t, contact.VerifyContactFormFields())
		require.NoError(t, contact.VerifyModalTitle(ctx))
	})
	t.Step("Send message with valid data", func() {
		message, err := contact.SendMessage(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, message)
		t.Logf("Contact form answered with %q", message)
	})
}
