package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/event"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

const (
	minDeliveryAddressLen = 5
	deliveryDateLayout    = "2006-01-02"
)

// CheckoutInput holds the delivery details of one supplier checkout.
type CheckoutInput struct {
	DeliveryAddress string  `json:"delivery_address"`
	DeliveryDate    *string `json:"delivery_date,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// Validate checks the input without touching the network.
func (in CheckoutInput) Validate() error {
	if len([]rune(strings.TrimSpace(in.DeliveryAddress))) < minDeliveryAddressLen {
		return apperrors.InvalidInput(fmt.Sprintf("delivery address must be at least %d characters", minDeliveryAddressLen))
	}
	if in.DeliveryDate != nil && *in.DeliveryDate != "" {
		if _, err := time.Parse(deliveryDateLayout, *in.DeliveryDate); err != nil {
			return apperrors.InvalidInput("delivery date must be YYYY-MM-DD")
		}
	}
	return nil
}

func (in CheckoutInput) normalized() CheckoutInput {
	out := CheckoutInput{DeliveryAddress: strings.TrimSpace(in.DeliveryAddress)}
	if in.DeliveryDate != nil && *in.DeliveryDate != "" {
		out.DeliveryDate = in.DeliveryDate
	}
	if in.Notes != nil {
		if n := strings.TrimSpace(*in.Notes); n != "" {
			out.Notes = &n
		}
	}
	return out
}

// CheckoutService places one order per supplier group.
type CheckoutService struct {
	carts   *CartService
	orders  OrderAPI
	journal repository.CheckoutJournal
	events  *event.Producer
	logger  *slog.Logger
}

// NewCheckoutService creates a checkout service. journal may be nil.
func NewCheckoutService(carts *CartService, orders OrderAPI, journal repository.CheckoutJournal, events *event.Producer, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		carts:   carts,
		orders:  orders,
		journal: journal,
		events:  events,
		logger:  logger,
	}
}

// Checkout submits the supplier's group of the owner's cart as one order.
// It returns (nil, nil) when the cart has no group for supplierID. On
// success the ordered lines are taken off the cart, so lines added while
// the order was in flight stay; on failure the cart is left untouched and
// the request is not retried.
func (s *CheckoutService) Checkout(ctx context.Context, p Principal, supplierID string, in CheckoutInput) (*domain.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if p.BuyerID == "" {
		return nil, apperrors.SignInRequired()
	}
	in = in.normalized()
	ownerID := p.OwnerID

	cart, err := s.carts.GetCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	group, ok := cart.Group(supplierID)
	if !ok {
		s.logger.InfoContext(ctx, "checkout skipped, no items for supplier",
			slog.String("owner_id", ownerID),
			slog.String("supplier_id", supplierID),
		)
		checkoutsTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}

	req := domain.NewCreateOrderRequest(p.BuyerID, group, in.DeliveryAddress, in.DeliveryDate, in.Notes)
	attemptID := s.begin(ctx, ownerID, p.BuyerID, supplierID, len(req.Items))

	order, err := s.orders.CreateOrder(ctx, p.tokens(), req)
	if err != nil {
		checkoutsTotal.WithLabelValues("failed").Inc()
		s.finish(ctx, attemptID, repository.AttemptFailed, "", apperrors.UserMessage(err))
		s.logger.WarnContext(ctx, "checkout failed",
			slog.String("owner_id", ownerID),
			slog.String("supplier_id", supplierID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	checkoutsTotal.WithLabelValues("succeeded").Inc()
	s.finish(ctx, attemptID, repository.AttemptSucceeded, order.ID, "")

	if _, err := s.carts.SettleOrdered(ctx, ownerID, supplierID, req.Items); err != nil {
		s.logger.ErrorContext(ctx, "order placed but ordered lines not removed from cart",
			slog.String("owner_id", ownerID),
			slog.String("supplier_id", supplierID),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishOrderPlaced(ctx, ownerID, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("owner_id", ownerID),
		slog.String("supplier_id", supplierID),
		slog.String("order_id", order.ID),
		slog.Int("lines", len(req.Items)),
	)
	return order, nil
}

// Attempts lists the journaled checkout attempts of an owner, newest first.
func (s *CheckoutService) Attempts(ctx context.Context, ownerID string, limit int) ([]repository.CheckoutAttempt, error) {
	if s.journal == nil {
		return []repository.CheckoutAttempt{}, nil
	}
	return s.journal.ListByOwner(ctx, ownerID, limit)
}

func (s *CheckoutService) begin(ctx context.Context, ownerID, buyerID, supplierID string, lines int) string {
	if s.journal == nil {
		return ""
	}
	attempt := &repository.CheckoutAttempt{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		BuyerID:    buyerID,
		SupplierID: supplierID,
		LineCount:  lines,
		Status:     repository.AttemptPending,
	}
	if err := s.journal.Begin(ctx, attempt); err != nil {
		s.logger.WarnContext(ctx, "journal checkout attempt", slog.String("error", err.Error()))
		return ""
	}
	return attempt.ID
}

func (s *CheckoutService) finish(ctx context.Context, id string, status repository.AttemptStatus, orderID, errMsg string) {
	if s.journal == nil || id == "" {
		return
	}
	if err := s.journal.Finish(ctx, id, status, orderID, errMsg); err != nil {
		s.logger.WarnContext(ctx, "journal checkout result",
			slog.String("attempt_id", id),
			slog.String("error", err.Error()),
		)
	}
}
