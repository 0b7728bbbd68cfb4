package pages

import (
	"context"
	"strings"

	"github.com/bookqa/bookqa/pkg/core"
)

// CartPath is the cart location relative to the store root.
const CartPath = "basket/"

var (
	cartTitle = core.NewTarget("page title",
		core.CSS("h1"),
		core.CSS(".page-title"))
	cartEmptyMessage = core.NewTarget("empty cart message",
		core.CSS(".empty-cart"),
		core.CSS("[class*='empty']"),
		core.CSS("[class*='Empty']"))
	cartEmptyTitle = core.NewTarget("empty cart title",
		core.CSS(".empty-cart h2"),
		core.CSS(".empty-cart-title"))
	cartItems = core.NewTarget("cart items",
		core.CSS(".cart-item"),
		core.CSS(".basket-item"),
		core.CSS("[class*='CartItem']"))
	cartTotal = core.NewTarget("total price",
		core.CSS(".total-price"),
		core.CSS("[class*='total']"))
	cartRemoveItem = core.NewTarget("remove item",
		core.CSS(".remove-item"),
		core.CSS("[class*='remove']"),
		core.CSS("[class*='delete']")).FirstMatch()
	cartCheckout = core.NewTarget("checkout",
		core.CSS(".checkout"),
		core.CSS("[class*='checkout']"),
		core.CSS("[class*='order']"))
)

func cartTargets() []core.Target {
	return []core.Target{cartTitle, cartEmptyMessage, cartEmptyTitle, cartItems, cartTotal, cartRemoveItem, cartCheckout}
}

// CartPage is the shopping cart.
type CartPage struct{ base }

// URL returns the cart address.
func (p *CartPage) URL() string { return p.url + CartPath }

// Open loads the cart directly.
func (p *CartPage) Open(ctx context.Context) error {
	return p.open(ctx, CartPath)
}

// IsOpen waits until the current URL is a cart URL.
func (p *CartPage) IsOpen(ctx context.Context) bool {
	r := p.s.WaitURLContains(ctx, "basket", p.policy)
	if r.OK() {
		return true
	}
	return strings.Contains(r.Value, "cart")
}

// PageTitle reads the page heading.
func (p *CartPage) PageTitle(ctx context.Context) core.Result[string] {
	return p.text(ctx, cartTitle)
}

// IsEmptyCartVisible reports whether the empty cart message is shown.
func (p *CartPage) IsEmptyCartVisible(ctx context.Context) bool {
	return p.visible(ctx, cartEmptyMessage)
}

// EmptyCartTitle reads the empty cart heading.
func (p *CartPage) EmptyCartTitle(ctx context.Context) core.Result[string] {
	return p.text(ctx, cartEmptyTitle)
}

// ItemsCount counts the cart lines.
func (p *CartPage) ItemsCount(ctx context.Context) core.Result[int] {
	return p.count(ctx, cartItems)
}

// TotalPrice reads the cart total.
func (p *CartPage) TotalPrice(ctx context.Context) core.Result[string] {
	return p.text(ctx, cartTotal)
}

// RemoveFirstItem removes the first cart line.
func (p *CartPage) RemoveFirstItem(ctx context.Context) error {
	return p.click(ctx, cartRemoveItem)
}

// Checkout starts checkout.
func (p *CartPage) Checkout(ctx context.Context) error {
	return p.click(ctx, cartCheckout)
}

// IsNotEmpty reports whether the cart has at least one line.
func (p *CartPage) IsNotEmpty(ctx context.Context) bool {
	return p.ItemsCount(ctx).ValueOr(0) > 0
}
