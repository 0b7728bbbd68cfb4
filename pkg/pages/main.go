package pages

import (
	"context"

	"github.com/bookqa/bookqa/pkg/core"
)

var (
	mainLogo = core.NewTarget("logo",
		core.CSS("[data-testid='header--logo']"),
		core.CSS("a[class*='Logo']"))
	mainSearchInput = core.NewTarget("search input",
		core.CSS("input[type='search']"),
		core.CSS("input[name='q']"),
		core.CSS(".search-input"))
	mainSearchButton = core.NewTarget("search button",
		core.CSS(".search-button"),
		core.CSS("button[type='submit']"))
	mainCartIcon = core.NewTarget("cart icon",
		core.CSS("[href*='basket']"),
		core.CSS(".cart-icon"),
		core.CSS("[class*='cart']"))
	mainCatalogButton = core.NewTarget("catalog button",
		core.CSS(".catalog-button"),
		core.CSS("[class*='catalog']"))
	mainFavoritesLink = core.NewTarget("favorites link",
		core.CSS("[href*='favorite']"),
		core.CSS(".favorites"))
	mainLoyaltyLink = core.NewTarget("loyalty link",
		core.CSS("[href*='bonus']"),
		core.CSS("[href*='loyalty']"))
	mainBookCards = core.NewTarget("book cards",
		core.CSS(".book-card"),
		core.CSS(".art-item"),
		core.CSS("[class*='Book']"))
)

func mainTargets() []core.Target {
	return []core.Target{mainLogo, mainSearchInput, mainSearchButton, mainCartIcon,
		mainCatalogButton, mainFavoritesLink, mainLoyaltyLink, mainBookCards}
}

// MainPage is the store front page.
type MainPage struct{ base }

// URL returns the page address.
func (p *MainPage) URL() string { return p.url }

// Open loads the main page.
func (p *MainPage) Open(ctx context.Context) error {
	return p.open(ctx, "")
}

// IsLogoVisible reports whether the header logo is displayed.
func (p *MainPage) IsLogoVisible(ctx context.Context) bool {
	return p.visible(ctx, mainLogo)
}

// SearchBook types query into the search box, submits it with Enter and
// waits for the search results URL.
func (p *MainPage) SearchBook(ctx context.Context, query string) error {
	if err := p.s.Type(ctx, mainSearchInput, query, p.policy).Err(); err != nil {
		return err
	}
	if err := p.s.PressEnter(ctx, mainSearchInput, p.policy).Err(); err != nil {
		return err
	}
	return p.s.WaitURLContains(ctx, "search", p.policy).Err()
}

// ClickSearchButton submits the search form with its button.
func (p *MainPage) ClickSearchButton(ctx context.Context) error {
	return p.click(ctx, mainSearchButton)
}

// GoToCart follows the header cart link.
func (p *MainPage) GoToCart(ctx context.Context) error {
	return p.click(ctx, mainCartIcon)
}

// GoToCatalog opens the catalog.
func (p *MainPage) GoToCatalog(ctx context.Context) error {
	return p.click(ctx, mainCatalogButton)
}

// GoToFavorites opens the favorites list.
func (p *MainPage) GoToFavorites(ctx context.Context) error {
	return p.click(ctx, mainFavoritesLink)
}

// GoToLoyalty opens the loyalty program page.
func (p *MainPage) GoToLoyalty(ctx context.Context) error {
	return p.click(ctx, mainLoyaltyLink)
}

// BooksCount counts the book cards on the page.
func (p *MainPage) BooksCount(ctx context.Context) core.Result[int] {
	return p.count(ctx, mainBookCards)
}
