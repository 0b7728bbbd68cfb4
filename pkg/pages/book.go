package pages

import (
	"context"

	"github.com/bookqa/bookqa/pkg/core"
)

var (
	bookTitle = core.NewTarget("book title",
		core.CSS("h1"),
		core.CSS(".book-title"),
		core.CSS("[class*='Title']"))
	bookAuthor = core.NewTarget("book author",
		core.CSS(".author"),
		core.CSS("[class*='Author']"))
	bookPrice = core.NewTarget("book price",
		core.CSS(".price"),
		core.CSS("[class*='Price']"))
	bookAddToCart = core.NewTarget("add to cart",
		core.CSS(".add-to-cart"),
		core.CSS("[class*='addToCart']"),
		core.CSS("[class*='buy']"))
	bookAddToFavorites = core.NewTarget("add to favorites",
		core.CSS(".add-to-favorites"),
		core.CSS("[class*='favorite']"))
	bookReadSample = core.NewTarget("read sample",
		core.CSS(".read-sample"),
		core.CSS("[class*='sample']"))
	bookCover = core.NewTarget("book cover",
		core.CSS(".book-cover"),
		core.CSS("img[class*='cover']"))
)

func bookTargets() []core.Target {
	return []core.Target{bookTitle, bookAuthor, bookPrice, bookAddToCart, bookAddToFavorites, bookReadSample, bookCover}
}

// BookPage is a single book card.
type BookPage struct{ base }

// IsLoaded reports whether the book title is displayed.
func (p *BookPage) IsLoaded(ctx context.Context) bool {
	return p.visible(ctx, bookTitle)
}

// Title reads the book title.
func (p *BookPage) Title(ctx context.Context) core.Result[string] {
	return p.text(ctx, bookTitle)
}

// Author reads the book author.
func (p *BookPage) Author(ctx context.Context) core.Result[string] {
	return p.text(ctx, bookAuthor)
}

// Price reads the displayed price.
func (p *BookPage) Price(ctx context.Context) core.Result[string] {
	return p.text(ctx, bookPrice)
}

// AddToCart clicks the buy button.
func (p *BookPage) AddToCart(ctx context.Context) error {
	return p.click(ctx, bookAddToCart)
}

// AddToFavorites clicks the favorites button.
func (p *BookPage) AddToFavorites(ctx context.Context) error {
	return p.click(ctx, bookAddToFavorites)
}

// ReadSample opens the free fragment.
func (p *BookPage) ReadSample(ctx context.Context) error {
	return p.click(ctx, bookReadSample)
}

// HasCover reports whether the cover image is displayed.
func (p *BookPage) HasCover(ctx context.Context) bool {
	return p.visible(ctx, bookCover)
}
