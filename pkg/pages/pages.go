// Package pages holds the page objects of the book store: main page, search
// results, book card and cart. Locators stay private to this package; callers
// use the named actions.
package pages

import (
	"context"
	"sort"
	"strings"

	"github.com/bookqa/bookqa/pkg/action"
	"github.com/bookqa/bookqa/pkg/core"
)

// DefaultBaseURL is the production store.
const DefaultBaseURL = "https://www.litres.ru/"

// Pages bundles the page objects bound to one session.
type Pages struct {
	Main   *MainPage
	Search *SearchPage
	Book   *BookPage
	Cart   *CartPage
}

// New binds every page object to s. A zero policy uses the session default.
func New(s *action.Session, baseURL string, policy core.WaitPolicy) *Pages {
	b := base{s: s, url: normalizeBase(baseURL), policy: policy}
	return &Pages{
		Main:   &MainPage{b},
		Search: &SearchPage{b},
		Book:   &BookPage{b},
		Cart:   &CartPage{b},
	}
}

func normalizeBase(u string) string {
	if u == "" {
		u = DefaultBaseURL
	}
	return strings.TrimRight(u, "/") + "/"
}

// base carries what every page object needs.
type base struct {
	s      *action.Session
	url    string
	policy core.WaitPolicy
}

func (b base) open(ctx context.Context, path string) error {
	return b.s.Open(ctx, b.url+strings.TrimLeft(path, "/"), b.policy).Err()
}

func (b base) click(ctx context.Context, t core.Target) error {
	return b.s.Click(ctx, t, action.ClickOptions{Policy: b.policy}).Err()
}

func (b base) text(ctx context.Context, t core.Target) core.Result[string] {
	return b.s.ReadText(ctx, t, b.policy)
}

func (b base) count(ctx context.Context, t core.Target) core.Result[int] {
	return b.s.Count(ctx, t, b.policy)
}

// visible collapses the wait outcome to a boolean for existence checks.
func (b base) visible(ctx context.Context, t core.Target) bool {
	return b.s.IsVisible(ctx, t, b.policy).OK()
}

// Catalog returns every page's targets keyed by page name, sorted by target
// name. It exists for the locator audit.
func Catalog() map[string][]core.Target {
	out := map[string][]core.Target{
		"main":   mainTargets(),
		"search": searchTargets(),
		"book":   bookTargets(),
		"cart":   cartTargets(),
	}
	for _, ts := range out {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Name < ts[j].Name })
	}
	return out
}
