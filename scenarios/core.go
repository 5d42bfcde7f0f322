package scenarios

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/pages"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/storefront"
)

const groupCore = "Priority 1: Core Functionality & User Journeys"

func coreFunctionality() []runner.Test {
	return []runner.Test{
		{
			Group:    groupCore,
			Name:     "Page Load and Layout Verification",
			Tags:     []string{TagAll, TagPriority1},
			Fixtures: []string{storefront.FixtureHomePage},
			Body:     testPageLoad,
		},
		{
			Group:    groupCore,
			Name:     "Add Product to Cart (Guest User)",
			Tags:     []string{TagAll, TagPriority1},
			Fixtures: []string{storefront.FixtureHomePage, storefront.FixtureProductDetailPage, storefront.FixtureCartPage},
			Body:     testGuestAddToCart,
		},
		{
			Group: groupCore,
			Name:  "Complete Purchase Flow - Valid Order",
			Tags:  []string{TagAll, TagPriority1},
			Fixtures: []string{
				config.FixtureName,
				storefront.FixtureHomePage,
				storefront.FixtureLoginModal,
				storefront.FixtureProductDetailPage,
				storefront.FixtureCartPage,
				storefront.FixturePlaceOrderModal,
				storefront.FixtureConfirmationAlert,
			},
			Body: testCompletePurchase,
		},
	}
}

func testPageLoad(t *runner.T) {
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	ctx := t.Context()

	t.Step("Verify page title contains 'STORE'", func() {
		require.NoError(t, home.VerifyPageLoad(ctx))
	})
	t.Step("Verify header navigation", func() {
		require.NoError(t, home.VerifyNavigationElements(ctx))
	})
	t.Step("Verify categories sidebar shows: Phones, Laptops, Monitors", func() {
		require.NoError(t, home.VerifyCategorySidebar())
	})
	t.Step("Verify product grid displays products", func() {
		require.NoError(t, home.VerifyProductGrid())
	})
	t.Step("Verify footer information is present", func() {
		require.NoError(t, home.VerifyFooter())
	})
}

func testGuestAddToCart(t *runner.T) {
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	product := runner.Fixture[*pages.ProductDetailPage](t, storefront.FixtureProductDetailPage)
	cart := runner.Fixture[*pages.CartPage](t, storefront.FixtureCartPage)
	ctx := t.Context()

	var productName, alertMessage string

	t.Step("Navigate to any product detail page", func() {
		require.NoError(t, home.ClickFirstProduct())
	})
	t.Step("Click 'Add to cart' button", func() {
		var err error
		productName, err = product.ProductName()
		require.NoError(t, err)
		alertMessage, err = product.AddProductToCart(ctx)
		require.NoError(t, err)
	})
	t.Step("Verify success alert message appears", func() {
		assert.Contains(t, alertMessage, pages.ProductAddedMessage)
	})
	t.Step("Navigate to cart page via navigation menu", func() {
		require.NoError(t, home.ClickCartLink())
	})
	t.Step("Verify product appears in cart", func() {
		require.NoError(t, cart.VerifyCartContainsProduct(ctx, productName))
	})
}

func testCompletePurchase(t *runner.T) {
	cfg := runner.Fixture[config.Config](t, config.FixtureName)
	if err := cfg.RequireCredentials(); err != nil {
		t.Skipf("%v", err)
	}
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	login := runner.Fixture[*pages.LoginModal](t, storefront.FixtureLoginModal)
	product := runner.Fixture[*pages.ProductDetailPage](t, storefront.FixtureProductDetailPage)
	cart := runner.Fixture[*pages.CartPage](t, storefront.FixtureCartPage)
	order := runner.Fixture[*pages.PlaceOrderModal](t, storefront.FixturePlaceOrderModal)
	confirmation := runner.Fixture[*pages.ConfirmationAlert](t, storefront.FixtureConfirmationAlert)
	ctx := t.Context()

	t.Step("Log in with valid credentials", func() {
		require.NoError(t, home.ClickLoginLink())
		_, err := login.LoginWithCredentials(ctx, cfg.Username, cfg.Password)
		require.NoError(t, err)
	})
	t.Step("Add products to cart", func() {
		addProductsToCart(t, home, product, 0, 2)
	})
	t.Step("Navigate to cart page", func() {
		require.NoError(t, home.ClickCartLink())
	})
	t.Step("Click 'Place Order' button", func() {
		require.NoError(t, cart.ClickPlaceOrder())
	})
	t.Step("Verify order form modal opens", func() {
		require.NoError(t, order.VerifyModalIsOpen())
	})
	t.Step("Fill all required fields with valid data", func() {
		require.NoError(t, order.FillValidPurchaseForm())
	})
	t.Step("Click 'Purchase' button", func() {
		require.NoError(t, order.ClickPurchaseButton(ctx))
	})
	t.Step("Verify order confirmation message", func() {
		text, err := confirmation.OrderConfirmationText(ctx)
		require.NoError(t, err)
		require.NoError(t, pages.VerifyOrderConfirmationDetails(text))
	})
	t.Step("Close order confirmation and check the cart is empty", func() {
		require.NoError(t, confirmation.CloseOrderConfirmation())
		require.NoError(t, home.ClickCartLink())
		require.NoError(t, cart.VerifyCartIsEmpty())
	})
}

// addProductsToCart adds the products at the given grid indexes, starting from the home page.
func addProductsToCart(t *runner.T, home *pages.HomePage, product *pages.ProductDetailPage, indexes ...int) {
	t.Helper()

	for i, index := range indexes {
		if i > 0 {
			require.NoError(t, home.NavigateToHome())
		}
		require.NoError(t, home.ClickProductByIndex(index))
		_, err := product.AddProductToCart(t.Context())
		require.NoError(t, err)
	}
}
