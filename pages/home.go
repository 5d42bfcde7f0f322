package pages

import (
	"context"
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/storefront-e2e/uisync"
)

const brandText = "PRODUCT STORE"

var titlePattern = regexp.MustCompile(`STORE`)

// HomePage is the landing page with navigation, category sidebar and the product grid.
type HomePage struct {
	base
	baseURL string

	navbar      playwright.Locator
	brandLogo   playwright.Locator
	homeLink    playwright.Locator
	contactLink playwright.Locator
	aboutLink   playwright.Locator
	cartLink    playwright.Locator
	loginLink   playwright.Locator
	signupLink  playwright.Locator
	logoutLink  playwright.Locator

	categoriesSection playwright.Locator
	phonesCategory    playwright.Locator
	laptopsCategory   playwright.Locator
	monitorsCategory  playwright.Locator

	productGrid   playwright.Locator
	productCards  playwright.Locator
	productTitles playwright.Locator
	productPrices playwright.Locator
	productLinks  playwright.Locator

	footer playwright.Locator
}

// NewHomePage creates the home page object. baseURL is where NavigateToHome goes.
func NewHomePage(d Deps, baseURL string) *HomePage {
	p := &HomePage{base: newBase(d), baseURL: baseURL}
	p.SetLocators(d.Page)
	return p
}

func (p *HomePage) SetLocators(page playwright.Page) {
	p.navbar = page.Locator("nav.navbar")
	p.brandLogo = page.Locator("a.navbar-brand")
	p.homeLink = byRole(page, "link", "Home", false)
	p.contactLink = byRole(page, "link", "Contact", true)
	p.aboutLink = byRole(page, "link", "About us", false)
	p.cartLink = byRole(page, "link", "Cart", true)
	p.loginLink = byRole(page, "link", "Log in", false)
	p.signupLink = byRole(page, "link", "Sign up", false)
	p.logoutLink = byRole(page, "link", "Log out", false)

	p.categoriesSection = byRole(page, "link", "CATEGORIES", false)
	p.phonesCategory = byRole(page, "link", "Phones", false)
	p.laptopsCategory = byRole(page, "link", "Laptops", false)
	p.monitorsCategory = byRole(page, "link", "Monitors", false)

	p.productGrid = page.Locator("#tbodyid")
	p.productCards = page.Locator("#tbodyid .card")
	p.productTitles = page.Locator("#tbodyid .card .card-title")
	p.productPrices = page.Locator("#tbodyid .card h5")
	p.productLinks = page.Locator(".hrefch")

	p.footer = page.Locator("#footc")
}

func (p *HomePage) NavigateToHome() error {
	if _, err := p.page.Goto(p.baseURL); err != nil {
		return fmt.Errorf("navigating to %s: %w", p.baseURL, err)
	}
	return nil
}

func (p *HomePage) ClickContactLink() error { return p.contactLink.Click() }
func (p *HomePage) ClickCartLink() error    { return p.cartLink.Click() }
func (p *HomePage) ClickLoginLink() error   { return p.loginLink.Click() }
func (p *HomePage) ClickSignupLink() error  { return p.signupLink.Click() }

// IsLoggedIn reports whether the logout link is shown.
func (p *HomePage) IsLoggedIn() (bool, error) {
	return p.logoutLink.IsVisible()
}

// ClickLogout logs out if a user is logged in and waits for the guest navigation to return.
func (p *HomePage) ClickLogout() error {
	visible, err := p.logoutLink.IsVisible()
	if err != nil || !visible {
		return err
	}
	if err := p.logoutLink.Click(); err != nil {
		return fmt.Errorf("clicking logout: %w", err)
	}
	return p.VerifyUserLoggedOut()
}

func (p *HomePage) clickCategoryAndWaitForProducts(category playwright.Locator) error {
	if err := category.Click(); err != nil {
		return err
	}
	return p.expectVisible("first product card", p.productCards.First())
}

func (p *HomePage) ClickPhonesCategory() error {
	return p.clickCategoryAndWaitForProducts(p.phonesCategory)
}

func (p *HomePage) ClickLaptopsCategory() error {
	return p.clickCategoryAndWaitForProducts(p.laptopsCategory)
}

func (p *HomePage) ClickMonitorsCategory() error {
	return p.clickCategoryAndWaitForProducts(p.monitorsCategory)
}

// ClickProductByIndex opens the detail page of the product at index in the grid.
func (p *HomePage) ClickProductByIndex(index int) error {
	return p.productLinks.Nth(index).Click()
}

func (p *HomePage) ClickFirstProduct() error {
	return p.ClickProductByIndex(0)
}

func (p *HomePage) ProductCount() (int, error) {
	return p.productCards.Count()
}

// VerifyPageLoad checks the document title, the navbar and the brand.
func (p *HomePage) VerifyPageLoad(ctx context.Context) error {
	err := uisync.WaitFor(ctx, uisync.Condition{
		Description: "page title to match " + titlePattern.String(),
		Predicate: func(ctx context.Context) (bool, error) {
			title, err := p.page.Title()
			if err != nil {
				return false, err
			}
			return titlePattern.MatchString(title), nil
		},
		Timeout: p.timeouts.Expect,
	})
	if err != nil {
		return err
	}
	if err := p.expectVisible("navbar", p.navbar); err != nil {
		return err
	}
	return p.expectContainsText(ctx, "brand", p.brandLogo, brandText, p.timeouts.Expect)
}

func (p *HomePage) VerifyNavigationElements(ctx context.Context) error {
	links := []struct {
		loc  playwright.Locator
		text string
	}{
		{p.homeLink, "Home"},
		{p.contactLink, "Contact"},
		{p.aboutLink, "About us"},
		{p.cartLink, "Cart"},
		{p.loginLink, "Log in"},
		{p.signupLink, "Sign up"},
	}
	for _, l := range links {
		if err := p.expectContainsText(ctx, l.text+" link", l.loc, l.text, p.timeouts.Expect); err != nil {
			return err
		}
	}
	return nil
}

func (p *HomePage) VerifyCategorySidebar() error {
	return p.expectAllVisible(
		element{"categories section", p.categoriesSection},
		element{"phones category", p.phonesCategory},
		element{"laptops category", p.laptopsCategory},
		element{"monitors category", p.monitorsCategory},
	)
}

func (p *HomePage) VerifyProductGrid() error {
	return p.expectAllVisible(
		element{"product grid", p.productGrid},
		element{"first product card", p.productCards.First()},
	)
}

func (p *HomePage) VerifyFooter() error {
	return p.expectVisible("footer", p.footer)
}

func (p *HomePage) VerifyUserLoggedOut() error {
	return p.expectAllVisible(
		element{"login link", p.loginLink},
		element{"signup link", p.signupLink},
	)
}

// VerifyProductInformation checks title, price and image of every product in the grid.
func (p *HomePage) VerifyProductInformation() error {
	count, err := p.ProductCount()
	if err != nil {
		return err
	}
	for i := range count {
		if err := p.verifyIndividualProduct(i); err != nil {
			return fmt.Errorf("product %d: %w", i, err)
		}
	}
	return nil
}

func (p *HomePage) verifyIndividualProduct(index int) error {
	image := p.productCards.Nth(index).Locator("img")
	err := p.expectAllVisible(
		element{"title", p.productTitles.Nth(index)},
		element{"price", p.productPrices.Nth(index)},
		element{"image", image},
	)
	if err != nil {
		return err
	}
	src, err := image.GetAttribute("src")
	if err != nil {
		return err
	}
	if src == "" {
		return uisync.Failf("image has no src")
	}
	return nil
}

// VerifyPhonesCategorySelected asks the catalog API for the phone category and checks every item is a phone.
func (p *HomePage) VerifyPhonesCategorySelected(request playwright.APIRequestContext) error {
	items, err := FetchCategory(request, "phone")
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Cat != "phone" {
			return uisync.Failf("item %q has category %q, expected phone", item.Title, item.Cat)
		}
	}
	return nil
}
