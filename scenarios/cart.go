package scenarios

import (
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/browser"
	"github.com/networkteam/storefront-e2e/pages"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/storefront"
)

const groupCart = "Priority 3: Cart & Product Management"

func cartAndProducts() []runner.Test {
	return []runner.Test{
		{
			Group:    groupCart,
			Name:     "Product Category Navigation - Phones",
			Tags:     []string{TagAll, TagPriority3},
			Fixtures: []string{storefront.FixtureHomePage, browser.FixtureAPIRequest},
			Body:     testPhonesCategory,
		},
		{
			Group:    groupCart,
			Name:     "Add Multiple Different Products to Cart",
			Tags:     []string{TagAll, TagPriority3},
			Fixtures: []string{storefront.FixtureHomePage, storefront.FixtureProductDetailPage, storefront.FixtureCartPage},
			Body:     testMultipleProducts,
		},
		{
			Group:    groupCart,
			Name:     "Remove Product from Cart",
			Tags:     []string{TagAll, TagPriority3},
			Fixtures: []string{storefront.FixtureHomePage, storefront.FixtureProductDetailPage, storefront.FixtureCartPage},
			Body:     testRemoveProduct,
		},
	}
}

func testPhonesCategory(t *runner.T) {
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	request := runner.Fixture[playwright.APIRequestContext](t, browser.FixtureAPIRequest)

	t.Step("Click 'Phones' in categories sidebar", func() {
		require.NoError(t, home.ClickPhonesCategory())
	})
	t.Step("Verify only phone products are returned", func() {
		require.NoError(t, home.VerifyPhonesCategorySelected(request))
	})
	t.Step("Verify each product displays image, name and price", func() {
		require.NoError(t, home.VerifyProductInformation())
	})
}

func testMultipleProducts(t *runner.T) {
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	product := runner.Fixture[*pages.ProductDetailPage](t, storefront.FixtureProductDetailPage)
	cart := runner.Fixture[*pages.CartPage](t, storefront.FixtureCartPage)
	ctx := t.Context()

	categories := []struct {
		name  string
		click func() error
	}{
		{"phone", home.ClickPhonesCategory},
		{"laptop", home.ClickLaptopsCategory},
		{"monitor", home.ClickMonitorsCategory},
	}
	var names []string

	for i, category := range categories {
		t.Step("Add a "+category.name+" product to cart", func() {
			if i > 0 {
				require.NoError(t, home.NavigateToHome())
			}
			require.NoError(t, category.click())
			require.NoError(t, home.ClickFirstProduct())
			name, err := product.ProductName()
			require.NoError(t, err)
			names = append(names, name)
			_, err = product.AddProductToCart(ctx)
			require.NoError(t, err)
		})
	}
	t.Step("Navigate to cart page", func() {
		require.NoError(t, home.ClickCartLink())
	})
	t.Step("Verify all three products are listed", func() {
		require.NoError(t, cart.VerifyItemsInCart(ctx, len(categories)))
		for _, name := range names {
			require.NoError(t, cart.VerifyCartContainsProduct(ctx, name))
		}
	})
	t.Step("Verify total price calculation is accurate", func() {
		require.NoError(t, cart.VerifyTotalCalculation(ctx))
	})
}

func testRemoveProduct(t *runner.T) {
	home := runner.Fixture[*pages.HomePage](t, storefront.FixtureHomePage)
	product := runner.Fixture[*pages.ProductDetailPage](t, storefront.FixtureProductDetailPage)
	cart := runner.Fixture[*pages.CartPage](t, storefront.FixtureCartPage)
	ctx := t.Context()

	var (
		originalCount int
		originalTotal string
	)

	t.Step("Add multiple products to cart", func() {
		addProductsToCart(t, home, product, 0, 2)
	})
	t.Step("Navigate to cart page", func() {
		require.NoError(t, home.ClickCartLink())
		require.NoError(t, cart.VerifyItemsInCart(ctx, 2))
	})
	t.Step("Click 'Delete' for one product", func() {
		var err error
		originalCount, err = cart.ItemCount()
		require.NoError(t, err)
		originalTotal, err = cart.TotalPrice(ctx)
		require.NoError(t, err)
		require.NoError(t, cart.RemoveFirstItem(ctx))
	})
	t.Step("Verify product is removed", func() {
		require.NoError(t, cart.VerifyProductRemoved(ctx, originalCount))
	})
	t.Step("Verify total price updates", func() {
		require.NoError(t, cart.VerifyUpdatedTotalPrice(ctx, originalTotal))
	})
	t.Step("Verify remaining products stay in cart", func() {
		require.NoError(t, cart.VerifyRemainingProducts())
	})
}
