package service

import (
	"context"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// OrderView is an order with its display badge.
type OrderView struct {
	domain.Order
	Badge domain.Badge `json:"badge"`
}

// NewOrderView decorates o with its status badge.
func NewOrderView(o domain.Order) OrderView {
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return OrderView{Order: o, Badge: domain.BadgeFor(o.Status)}
}

// OrderPage is one page of decorated order history.
type OrderPage struct {
	Orders []OrderView
	Total  int
	Limit  int
	Offset int
}

// OrderService reads the signed-in buyer's order history.
type OrderService struct {
	api OrderAPI
}

func NewOrderService(api OrderAPI) *OrderService {
	return &OrderService{api: api}
}

// List returns the buyer's orders. The buyer filter is always the caller's.
func (s *OrderService) List(ctx context.Context, p Principal, f domain.OrderFilter) (*OrderPage, error) {
	if p.BuyerID == "" {
		return nil, apperrors.SignInRequired()
	}
	if f.Status != "" && !f.Status.Known() {
		return nil, apperrors.InvalidInput("unknown order status " + string(f.Status))
	}
	f.BuyerID = p.BuyerID

	page, err := s.api.ListOrders(ctx, p.tokens(), f)
	if err != nil {
		return nil, err
	}

	out := &OrderPage{
		Orders: make([]OrderView, len(page.Orders)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for i, o := range page.Orders {
		out.Orders[i] = NewOrderView(o)
	}
	if out.Limit == 0 {
		out.Limit, out.Offset = f.Limit, f.Offset
	}
	return out, nil
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, p Principal, id string) (*OrderView, error) {
	if p.BuyerID == "" {
		return nil, apperrors.SignInRequired()
	}
	o, err := s.api.GetOrder(ctx, p.tokens(), id)
	if err != nil {
		return nil, err
	}
	v := NewOrderView(*o)
	return &v, nil
}
