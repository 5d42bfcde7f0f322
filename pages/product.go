package pages

import (
	"context"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/storefront-e2e/uisync"
)

// ProductAddedMessage is the alert text after adding a product to the cart.
const ProductAddedMessage = "Product added"

var pricePattern = regexp.MustCompile(`\$?\d+(\.\d{2})?`)

// ProductDetailPage shows a single product.
type ProductDetailPage struct {
	base

	productImage    playwright.Locator
	productName     playwright.Locator
	productPrice    playwright.Locator
	addToCartButton playwright.Locator
}

func NewProductDetailPage(d Deps) *ProductDetailPage {
	p := &ProductDetailPage{base: newBase(d)}
	p.SetLocators(d.Page)
	return p
}

func (p *ProductDetailPage) SetLocators(page playwright.Page) {
	p.productImage = page.Locator(".item img")
	p.productName = page.Locator(".name")
	p.productPrice = page.Locator(".price-container")
	p.addToCartButton = byRole(page, "link", "Add to cart", false)
}

// AddProductToCart clicks "Add to cart" and returns the message of the confirming alert.
func (p *ProductDetailPage) AddProductToCart(ctx context.Context) (string, error) {
	evt, err := p.expectDialog(ctx, func() error {
		return p.addToCartButton.Click()
	})
	return evt.Message, err
}

func (p *ProductDetailPage) ProductName() (string, error) {
	return p.productName.InnerText()
}

func (p *ProductDetailPage) ProductPrice() (string, error) {
	return p.productPrice.InnerText()
}

func (p *ProductDetailPage) IsProductImageLoaded() (bool, error) {
	src, err := p.productImage.GetAttribute("src")
	if err != nil {
		return false, err
	}
	return src != "", nil
}

func (p *ProductDetailPage) VerifyProductDetailsVisible() error {
	return p.expectAllVisible(
		element{"product image", p.productImage},
		element{"product name", p.productName},
		element{"product price", p.productPrice},
		element{"add to cart button", p.addToCartButton},
	)
}

func (p *ProductDetailPage) VerifyProductHasValidImage() error {
	if err := p.expectVisible("product image", p.productImage); err != nil {
		return err
	}
	loaded, err := p.IsProductImageLoaded()
	if err != nil {
		return err
	}
	if !loaded {
		return uisync.Failf("product image has no src")
	}
	return nil
}

func (p *ProductDetailPage) VerifyProductHasValidPrice() error {
	price, err := p.ProductPrice()
	if err != nil {
		return err
	}
	return validatePrice(price)
}

func (p *ProductDetailPage) VerifyProductHasName() error {
	name, err := p.ProductName()
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return uisync.Failf("product name is empty")
	}
	return nil
}

func validatePrice(text string) error {
	if text == "" {
		return uisync.Failf("product price is empty")
	}
	if !pricePattern.MatchString(text) {
		return uisync.Failf("product price %q does not look like a price", text)
	}
	return nil
}
