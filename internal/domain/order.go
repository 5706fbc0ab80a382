package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the marketplace's order state. Transitions happen server
// side; the storefront only renders them.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusAssembled OrderStatus = "assembled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists the known statuses in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusAssembled,
	OrderStatusRejected,
	OrderStatusCancelled,
}

// Tone is the visual weight of a badge.
type Tone string

const (
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
	ToneMuted   Tone = "muted"
)

// Badge is how an order status is displayed.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

var badges = map[OrderStatus]Badge{
	OrderStatusPending:   {Label: "Pending", Tone: ToneWarning},
	OrderStatusConfirmed: {Label: "Confirmed", Tone: ToneInfo},
	OrderStatusAssembled: {Label: "Assembled", Tone: ToneSuccess},
	OrderStatusRejected:  {Label: "Rejected", Tone: ToneDanger},
	OrderStatusCancelled: {Label: "Cancelled", Tone: ToneMuted},
}

// BadgeFor returns the badge for status. Unknown statuses get the pending
// badge.
func BadgeFor(status OrderStatus) Badge {
	if b, ok := badges[status]; ok {
		return b
	}
	return badges[OrderStatusPending]
}

// Known reports whether s is one of OrderStatuses.
func (s OrderStatus) Known() bool {
	_, ok := badges[s]
	return ok
}

type Order struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"buyer_id"`
	SupplierID      string          `json:"supplier_id"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryDate    *string         `json:"delivery_date,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	Items           []OrderItem     `json:"items"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type OrderItem struct {
	OfferID    string          `json:"offer_id"`
	Name       string          `json:"name,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	BuyerID         string             `json:"buyer_id"`
	Items           []OrderItemRequest `json:"items"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryDate    *string            `json:"delivery_date,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
}

type OrderItemRequest struct {
	OfferID  string `json:"offer_id"`
	Quantity int    `json:"quantity"`
}

// NewCreateOrderRequest builds the order payload for one supplier group.
func NewCreateOrderRequest(buyerID string, group SupplierCartGroup, address string, date, notes *string) CreateOrderRequest {
	items := make([]OrderItemRequest, 0, len(group.Items))
	for _, l := range group.Items {
		items = append(items, OrderItemRequest{OfferID: l.OfferID, Quantity: l.Quantity})
	}
	return CreateOrderRequest{
		BuyerID:         buyerID,
		Items:           items,
		DeliveryAddress: address,
		DeliveryDate:    date,
		Notes:           notes,
	}
}

// OrderFilter narrows GET /orders.
type OrderFilter struct {
	BuyerID string
	Status  OrderStatus
	Limit   int
	Offset  int
}

// OrderPage is one page of order history.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
