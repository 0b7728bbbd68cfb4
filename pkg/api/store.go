package api

import (
	"context"
	"fmt"
	"strconv"
)

// Store endpoints.
const (
	cartPath       = "/cart/arts"
	cartAddPath    = "/cart/arts/add"
	cartRemovePath = "/cart/arts/remove"
	cartClearPath  = "/cart/clear/"
	searchPath     = "/search/"
	favoritesPath  = "/my-books/favorite/"
	categoriesPath = "/catalog/categories/"
	categoryBooks  = "/catalog/books/"
)

// DefaultSearchLimit is the page size when none is given.
const DefaultSearchLimit = 10

// artIDs is the cart mutation payload.
type artIDs struct {
	ArtIDs []int64 `json:"art_ids"`
}

// GetCart returns the current cart.
func (c *Client) GetCart(ctx context.Context) (*Response, error) {
	return c.Get(ctx, cartPath)
}

// AddToCart puts books into the cart.
func (c *Client) AddToCart(ctx context.Context, ids ...int64) (*Response, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("add to cart: no book ids")
	}
	return c.Put(ctx, cartAddPath, WithJSON(artIDs{ArtIDs: ids}))
}

// RemoveFromCart takes books out of the cart.
func (c *Client) RemoveFromCart(ctx context.Context, ids ...int64) (*Response, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("remove from cart: no book ids")
	}
	return c.Put(ctx, cartRemovePath, WithJSON(artIDs{ArtIDs: ids}))
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) (*Response, error) {
	return c.Post(ctx, cartClearPath)
}

// SearchBooks runs a catalog search. limit <= 0 uses DefaultSearchLimit;
// offset is sent only when positive.
func (c *Client) SearchBooks(ctx context.Context, query string, limit, offset int) (*Response, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	opts := []RequestOption{WithQuery("q", query), WithQuery("limit", strconv.Itoa(limit))}
	if offset > 0 {
		opts = append(opts, WithQuery("offset", strconv.Itoa(offset)))
	}
	return c.Get(ctx, searchPath, opts...)
}

// GetBookDetails fetches one book.
func (c *Client) GetBookDetails(ctx context.Context, id int64) (*Response, error) {
	return c.Get(ctx, fmt.Sprintf("/books/%d/", id))
}

// GetFavorites lists the user's favorites.
func (c *Client) GetFavorites(ctx context.Context) (*Response, error) {
	return c.Get(ctx, favoritesPath)
}

// GetCatalogCategories lists catalog categories.
func (c *Client) GetCatalogCategories(ctx context.Context) (*Response, error) {
	return c.Get(ctx, categoriesPath)
}

// GetBooksByCategory lists books in a category.
func (c *Client) GetBooksByCategory(ctx context.Context, categoryID int64, limit int) (*Response, error) {
	if limit <= 0 {
		limit = 20
	}
	return c.Get(ctx, categoryBooks,
		WithQuery("category", strconv.FormatInt(categoryID, 10)),
		WithQuery("limit", strconv.Itoa(limit)))
}
