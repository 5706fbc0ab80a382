package marketplace

import (
	"context"
	"net/http"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// CreateOrder submits POST /orders. It is never retried except by the auth
// retry policy.
func (c *Client) CreateOrder(ctx context.Context, tokens Tokens, req domain.CreateOrderRequest) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, tokens, call{op: "create_order", method: http.MethodPost, path: "/orders", body: req, out: &o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders fetches order history.
func (c *Client) ListOrders(ctx context.Context, tokens Tokens, f domain.OrderFilter) (*domain.OrderPage, error) {
	q := pageQuery(f.Limit, f.Offset)
	if f.BuyerID != "" {
		q.Set("buyer_id", f.BuyerID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}

	var page domain.OrderPage
	if err := c.do(ctx, tokens, call{op: "list_orders", method: http.MethodGet, path: "/orders", query: q, out: &page}); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, tokens Tokens, id string) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, tokens, call{op: "get_order", method: http.MethodGet, path: pathID("/orders", id), out: &o}); err != nil {
		return nil, err
	}
	return &o, nil
}
