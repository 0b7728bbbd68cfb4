package pages

import (
	"context"

	"github.com/bookqa/bookqa/pkg/core"
)

var (
	searchResults = core.NewTarget("search results",
		core.CSS(".search-result"),
		core.CSS(".art-item"),
		core.CSS("[class*='SearchResult']"))
	searchFirstBook = core.NewTarget("first result",
		core.CSS(".search-result:first-child"),
		core.CSS(".art-item:first-child"),
		core.XPath("(//*[contains(@class, 'SearchResult')])[1]")).FirstMatch()
	searchFirstTitle = core.NewTarget("first result title",
		core.CSS(".search-result:first-child .title"),
		core.CSS(".art-item:first-child [class*='Title']")).FirstMatch()
	searchFirstAuthor = core.NewTarget("first result author",
		core.CSS(".search-result:first-child .author"),
		core.CSS(".art-item:first-child [class*='Author']")).FirstMatch()
	searchNoResults = core.NewTarget("no results message",
		core.CSS(".no-results"),
		core.CSS("[class*='NoResults']"),
		core.CSS("[class*='empty']"))
)

func searchTargets() []core.Target {
	return []core.Target{searchResults, searchFirstBook, searchFirstTitle, searchFirstAuthor, searchNoResults}
}

// BookInfo is the title and author of a search result.
type BookInfo struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// SearchPage is the search results listing.
type SearchPage struct{ base }

// ResultsCount counts the result cards.
func (p *SearchPage) ResultsCount(ctx context.Context) core.Result[int] {
	return p.count(ctx, searchResults)
}

// HasResults reports whether at least one result card is present.
func (p *SearchPage) HasResults(ctx context.Context) bool {
	return p.ResultsCount(ctx).ValueOr(0) > 0
}

// WaitForResults waits until the first result is visible.
func (p *SearchPage) WaitForResults(ctx context.Context) core.Result[core.Element] {
	return p.s.IsVisible(ctx, searchFirstBook, p.policy)
}

// ClickFirstBook opens the first result. NotFound when there are no results.
func (p *SearchPage) ClickFirstBook(ctx context.Context) error {
	return p.click(ctx, searchFirstBook)
}

// FirstBookInfo reads title and author of the first result. The title is
// required; a missing author leaves Author empty.
func (p *SearchPage) FirstBookInfo(ctx context.Context) core.Result[BookInfo] {
	title := p.text(ctx, searchFirstTitle)
	if !title.OK() {
		return core.Map(title, BookInfo{})
	}
	author := p.text(ctx, searchFirstAuthor)
	return core.Map(title, BookInfo{Title: title.Value, Author: author.ValueOr("")})
}

// IsNoResultsVisible reports whether the empty search message is shown.
func (p *SearchPage) IsNoResultsVisible(ctx context.Context) bool {
	return p.visible(ctx, searchNoResults)
}
