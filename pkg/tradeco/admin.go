package tradeco

import (
	"context"
	"net/http"
)

// ListUsers pages through every account. Admin only; the backend answers 403
// for other roles.
func (c *Client) ListUsers(ctx context.Context, page, limit int) Result[UserPage] {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	raw := c.send(ctx, "list_users", call{
		method:      http.MethodGet,
		path:        "/users/",
		route:       "/users/",
		query:       listQuery(page, limit, ProductFilter{}),
		authMessage: MsgMustLogIn,
	})
	return as[UserPage](c, "list_users", raw)
}

// DashboardStats returns user and product totals. Admin only.
func (c *Client) DashboardStats(ctx context.Context) Result[Stats] {
	raw := c.send(ctx, "dashboard_stats", call{
		method:      http.MethodGet,
		path:        "/dashboard/stats",
		route:       "/dashboard/stats",
		authMessage: MsgMustLogIn,
	})
	return as[Stats](c, "dashboard_stats", raw)
}

// ProductsByCategory returns product counts per category, largest first.
// Admin only.
func (c *Client) ProductsByCategory(ctx context.Context) Result[[]CategoryCount] {
	raw := c.send(ctx, "products_by_category", call{
		method:      http.MethodGet,
		path:        "/dashboard/products-by-category",
		route:       "/dashboard/products-by-category",
		authMessage: MsgMustLogIn,
	})
	return as[[]CategoryCount](c, "products_by_category", raw)
}

// RecentActivity returns the ten newest users and products. Admin only.
func (c *Client) RecentActivity(ctx context.Context) Result[RecentActivity] {
	raw := c.send(ctx, "recent_activity", call{
		method:      http.MethodGet,
		path:        "/dashboard/recent-activity",
		route:       "/dashboard/recent-activity",
		authMessage: MsgMustLogIn,
	})
	return as[RecentActivity](c, "recent_activity", raw)
}

// UsersGrowth returns monthly sign-up counts, oldest month first, at most
// twelve months. Admin only.
func (c *Client) UsersGrowth(ctx context.Context) Result[[]GrowthPoint] {
	raw := c.send(ctx, "users_growth", call{
		method:      http.MethodGet,
		path:        "/dashboard/users-growth",
		route:       "/dashboard/users-growth",
		authMessage: MsgMustLogIn,
	})
	return as[[]GrowthPoint](c, "users_growth", raw)
}

// TopSellers returns the ten users with the most products. Admin only.
func (c *Client) TopSellers(ctx context.Context) Result[[]TopSeller] {
	raw := c.send(ctx, "top_sellers", call{
		method:      http.MethodGet,
		path:        "/dashboard/top-sellers",
		route:       "/dashboard/top-sellers",
		authMessage: MsgMustLogIn,
	})
	return as[[]TopSeller](c, "top_sellers", raw)
}

// PriceStats returns the average, minimum and maximum product price. Admin
// only.
func (c *Client) PriceStats(ctx context.Context) Result[PriceStats] {
	raw := c.send(ctx, "price_stats", call{
		method:      http.MethodGet,
		path:        "/dashboard/price-stats",
		route:       "/dashboard/price-stats",
		authMessage: MsgMustLogIn,
	})
	return as[PriceStats](c, "price_stats", raw)
}
