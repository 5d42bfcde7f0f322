package scenarios

import (
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/pages"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/storefront"
)

const groupValidation = "Priority 4: Validation & Security"

func validation() []runner.Test {
	return []runner.Test{
		{
			Group:    groupValidation,
			Name:     "Purchase Order - Field Validation",
			Tags:     []string{TagAll, TagPriority4},
			Fixtures: []string{storefront.FixtureHomePage, storefront.FixtureProductDetailPage, storefront.FixtureCartPage, storefront.FixturePlaceOrderModal},
			Body:     testPurchaseValidation,
		},
	}
}

func testPurchaseValidation(t *runner.T) {
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	product := runner.Fixture[*pages.ProductDetailPage](t, storefront.FixtureProductDetailPage)
	cart := runner.Fixture[*pages.CartPage](t, storefront.FixtureCartPage)
	order := runner.Fixture[*pages.PlaceOrderModal](t, storefront.FixturePlaceOrderModal)
	ctx := t.Context()

	t.Step("Add product to cart and open order form", func() {
		addProductsToCart(t, home, product, 0)
		require.NoError(t, home.ClickCartLink())
		require.NoError(t, cart.ClickPlaceOrder())
		require.NoError(t, order.VerifyModalIsOpen())
	})
	t.Step("Verify validation message for empty fields", func() {
		require.NoError(t, order.TestEmptyFieldValidation(ctx))
	})
}
