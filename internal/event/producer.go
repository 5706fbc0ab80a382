// Package event publishes storefront domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	pkgkafka "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/kafka"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/logger"
)

// Kafka topics for storefront events.
var (
	TopicCartUpdated = pkgkafka.Topic("cart", "updated")
	TopicCartCleared = pkgkafka.Topic("cart", "cleared")
	TopicOrderPlaced = pkgkafka.Topic("order", "placed")
)

// Aggregate types.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events originating from the storefront.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	OwnerID    string             `json:"owner_id"`
	Action     string             `json:"action"`
	Suppliers  []SupplierCartData `json:"suppliers"`
	ItemCount  int                `json:"item_count"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
	Version    int                `json:"version"`
}

// SupplierCartData summarises one supplier group within cart events.
type SupplierCartData struct {
	SupplierID string          `json:"supplier_id"`
	Lines      int             `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	OwnerID string `json:"owner_id"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID     string          `json:"order_id"`
	OwnerID     string          `json:"owner_id"`
	BuyerID     string          `json:"buyer_id"`
	SupplierID  string          `json:"supplier_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       int             `json:"items"`
}

// Producer publishes storefront events. It never blocks a caller on Kafka
// being configured: with no brokers the underlying publisher drops events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	if publisher == nil {
		publisher = pkgkafka.NoopPublisher{}
	}
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishCartUpdated publishes a cart.updated event after action was applied.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart, action string) error {
	groups := make([]SupplierCartData, len(cart.Suppliers))
	for i, g := range cart.Suppliers {
		groups[i] = SupplierCartData{
			SupplierID: g.SupplierID,
			Lines:      len(g.Items),
			Subtotal:   g.Subtotal(),
		}
	}

	data := CartUpdatedData{
		OwnerID:    cart.OwnerID,
		Action:     action,
		Suppliers:  groups,
		ItemCount:  cart.ItemCount(),
		GrandTotal: cart.GrandTotal(),
		Version:    cart.Version,
	}

	if err := p.publish(ctx, TopicCartUpdated, cart.OwnerID, AggregateTypeCart, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("owner_id", cart.OwnerID),
		slog.String("action", action),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, ownerID string) error {
	if err := p.publish(ctx, TopicCartCleared, ownerID, AggregateTypeCart, CartClearedData{OwnerID: ownerID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("owner_id", ownerID),
	)
	return nil
}

// PublishOrderPlaced publishes an order.placed event for a successful checkout.
func (p *Producer) PublishOrderPlaced(ctx context.Context, ownerID string, order *domain.Order) error {
	data := OrderPlacedData{
		OrderID:     order.ID,
		OwnerID:     ownerID,
		BuyerID:     order.BuyerID,
		SupplierID:  order.SupplierID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		Items:       len(order.Items),
	}

	if err := p.publish(ctx, TopicOrderPlaced, order.ID, AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("order_id", order.ID),
		slog.String("supplier_id", order.SupplierID),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Close releases the underlying publisher.
func (p *Producer) Close() error {
	return p.publisher.Close()
}
