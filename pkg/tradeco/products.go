package tradeco

import (
	"context"
	"encoding/json"
	"net/http"
)

// GetProducts lists products newest first. A limit <= 0 asks for
// DefaultPageLimit.
func (c *Client) GetProducts(ctx context.Context, page, limit int, filter ProductFilter) Result[ProductPage] {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	raw := c.send(ctx, "get_products", call{
		method: http.MethodGet,
		path:   "/products/",
		route:  "/products/",
		query:  listQuery(page, limit, filter),
	})
	return as[ProductPage](c, "get_products", raw)
}

// SearchProducts lists products whose name or description matches query.
func (c *Client) SearchProducts(ctx context.Context, query string, page, limit int) Result[ProductPage] {
	raw := c.send(ctx, "search_products", call{
		method: http.MethodGet,
		path:   "/products/",
		route:  "/products/",
		query:  listQuery(page, limit, ProductFilter{Search: query}),
	})
	return as[ProductPage](c, "search_products", raw)
}

// FilterByCategory lists products in one category.
func (c *Client) FilterByCategory(ctx context.Context, category string, page, limit int) Result[ProductPage] {
	raw := c.send(ctx, "filter_by_category", call{
		method: http.MethodGet,
		path:   "/products/",
		route:  "/products/",
		query:  listQuery(page, limit, ProductFilter{Category: category}),
	})
	return as[ProductPage](c, "filter_by_category", raw)
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id ID) Result[Product] {
	raw := c.send(ctx, "get_product", call{
		method: http.MethodGet,
		path:   idPath("/products/", id),
		route:  "/products/{id}",
	})
	return as[Product](c, "get_product", raw)
}

// GetCategories returns the fixed category list.
func (c *Client) GetCategories(ctx context.Context) Result[[]string] {
	raw := c.send(ctx, "get_categories", call{
		method: http.MethodGet,
		path:   "/products/categories",
		route:  "/products/categories",
	})
	return as[[]string](c, "get_categories", raw)
}

// GetUserProducts lists the products published by one user.
func (c *Client) GetUserProducts(ctx context.Context, userID ID, page, limit int) Result[[]Product] {
	raw := c.send(ctx, "get_user_products", call{
		method: http.MethodGet,
		path:   idPath("/products/user/", userID),
		route:  "/products/user/{id}",
		query:  listQuery(page, limit, ProductFilter{}),
	})
	return as[[]Product](c, "get_user_products", raw)
}

// CreateProduct publishes a new product as the logged-in user.
func (c *Client) CreateProduct(ctx context.Context, form ProductForm) Result[Product] {
	return c.sendForm(ctx, "create_product", http.MethodPost, "/products/", "/products/", MsgMustLogInToPublish, form)
}

// UpdateProduct changes the non-empty fields of form on a product the
// logged-in user owns.
func (c *Client) UpdateProduct(ctx context.Context, id ID, form ProductForm) Result[Product] {
	return c.sendForm(ctx, "update_product", http.MethodPut, idPath("/products/", id), "/products/{id}", MsgMustLogIn, form)
}

// DeleteProduct removes a product the logged-in user owns.
func (c *Client) DeleteProduct(ctx context.Context, id ID) Result[Empty] {
	raw := c.send(ctx, "delete_product", call{
		method:      http.MethodDelete,
		path:        idPath("/products/", id),
		route:       "/products/{id}",
		authMessage: MsgMustLogIn,
	})
	return as[Empty](c, "delete_product", raw)
}

func (c *Client) sendForm(ctx context.Context, op, method, path, route, authMessage string, form ProductForm) Result[Product] {
	// Check the session before reading the image so nothing is consumed for
	// a call that cannot be sent.
	if !c.session.IsAuthenticated() {
		return failure[Product](KindUnauthenticated, authMessage, 0)
	}
	body, contentType, err := form.encode()
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("encode product form")
		return failure[Product](KindInvalidResponse, err.Error(), 0)
	}
	raw := c.send(ctx, op, call{
		method:      method,
		path:        path,
		route:       route,
		body:        body,
		contentType: contentType,
		authMessage: authMessage,
	})
	return as[Product](c, op, raw)
}

// Health reports whether the API is up.
func (c *Client) Health(ctx context.Context) Result[json.RawMessage] {
	return c.send(ctx, "health", call{
		method: http.MethodGet,
		path:   "/health",
		route:  "/health",
	})
}
