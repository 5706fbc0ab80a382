package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/event"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// AddItemInput holds the parameters for adding an offer to the cart.
type AddItemInput struct {
	OfferID      string          `json:"offer_id" validate:"required"`
	ProductID    string          `json:"product_id"`
	SupplierID   string          `json:"supplier_id" validate:"required"`
	SupplierName string          `json:"supplier_name"`
	Name         string          `json:"name" validate:"required"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity" validate:"required,gte=1,lte=100000"`
	Stock        *int            `json:"stock,omitempty" validate:"omitempty,gte=0"`
	LengthCM     *int            `json:"length_cm,omitempty" validate:"omitempty,gte=0"`
}

// UpdateQuantityInput holds the new quantity of a line. Values below 1 are
// floored to 1.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"lte=100000"`
}

// CartService applies cart actions and persists the result. Mutations of one
// owner's cart are serialized inside the process.
type CartService struct {
	repo   repository.CartRepository
	events *event.Producer
	logger *slog.Logger
	locks  *keyedMutex
	now    func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, events *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		repo:   repo,
		events: events,
		logger: logger,
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
}

// GetCart returns the owner's cart, or an empty one.
func (s *CartService) GetCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("cart owner is required")
	}
	return s.load(ctx, ownerID)
}

// Dispatch loads the owner's cart, applies action and persists the result
// before returning it.
func (s *CartService) Dispatch(ctx context.Context, ownerID string, action domain.CartAction) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("cart owner is required")
	}

	unlock := s.locks.Lock(ownerID)
	defer unlock()

	current, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	next := domain.Reduce(*current, action)
	next.OwnerID = ownerID

	if _, ok := action.(domain.ClearCart); ok {
		if err := s.repo.Delete(ctx, ownerID); err != nil {
			return nil, fmt.Errorf("delete cart: %w", err)
		}
		cartMutationsTotal.WithLabelValues(action.Name()).Inc()

		if err := s.events.PublishCartCleared(ctx, ownerID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.InfoContext(ctx, "cart cleared", slog.String("owner_id", ownerID))
		return s.emptyCart(ownerID), nil
	}

	next.Version = current.Version + 1
	next.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	cartMutationsTotal.WithLabelValues(action.Name()).Inc()

	if err := s.events.PublishCartUpdated(ctx, &next, action.Name()); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.DebugContext(ctx, "cart action applied",
		slog.String("owner_id", ownerID),
		slog.String("action", action.Name()),
		slog.Int("version", next.Version),
		slog.Int("suppliers", len(next.Suppliers)),
	)

	return &next, nil
}

// AddToCart adds an offer line to its supplier's group, merging by offer.
func (s *CartService) AddToCart(ctx context.Context, ownerID, supplierID, supplierName string, line domain.CartLine) (*domain.Cart, error) {
	return s.Dispatch(ctx, ownerID, domain.AddToCart{SupplierID: supplierID, SupplierName: supplierName, Line: line})
}

// AddItem converts input into a cart line and adds it.
func (s *CartService) AddItem(ctx context.Context, ownerID string, input AddItemInput) (*domain.Cart, error) {
	line, err := input.line()
	if err != nil {
		return nil, err
	}
	return s.AddToCart(ctx, ownerID, input.SupplierID, input.SupplierName, line)
}

func (s *CartService) UpdateQuantity(ctx context.Context, ownerID, supplierID, offerID string, quantity int) (*domain.Cart, error) {
	return s.Dispatch(ctx, ownerID, domain.UpdateQuantity{SupplierID: supplierID, OfferID: offerID, Quantity: quantity})
}

func (s *CartService) RemoveItem(ctx context.Context, ownerID, supplierID, offerID string) (*domain.Cart, error) {
	return s.Dispatch(ctx, ownerID, domain.RemoveItem{SupplierID: supplierID, OfferID: offerID})
}

// ClearSupplierCart drops one supplier's group.
func (s *CartService) ClearSupplierCart(ctx context.Context, ownerID, supplierID string) (*domain.Cart, error) {
	return s.Dispatch(ctx, ownerID, domain.ClearSupplier{SupplierID: supplierID})
}

// SettleOrdered removes what an order took from a supplier group and keeps
// anything the cart gained since the order was built.
func (s *CartService) SettleOrdered(ctx context.Context, ownerID, supplierID string, items []domain.OrderItemRequest) (*domain.Cart, error) {
	return s.Dispatch(ctx, ownerID, domain.SettleOrdered{SupplierID: supplierID, Items: items})
}

// ClearCart empties the cart and erases the stored value.
func (s *CartService) ClearCart(ctx context.Context, ownerID string) error {
	_, err := s.Dispatch(ctx, ownerID, domain.ClearCart{})
	return err
}

// load reads the stored cart. A missing or unreadable value is an empty cart.
func (s *CartService) load(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, ownerID)
	switch {
	case err == nil:
		cart.OwnerID = ownerID
		return cart, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return s.emptyCart(ownerID), nil
	case errors.Is(err, repository.ErrCorrupt):
		cartLoadFallbacksTotal.WithLabelValues("corrupt").Inc()
		s.logger.WarnContext(ctx, "stored cart is unreadable, starting empty",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return s.emptyCart(ownerID), nil
	default:
		return nil, fmt.Errorf("get cart: %w", err)
	}
}

func (s *CartService) emptyCart(ownerID string) *domain.Cart {
	return &domain.Cart{
		OwnerID:   ownerID,
		Suppliers: []domain.SupplierCartGroup{},
	}
}

func (in AddItemInput) line() (domain.CartLine, error) {
	if in.Price.IsNegative() {
		return domain.CartLine{}, apperrors.InvalidInput("price must not be negative")
	}
	return domain.CartLine{
		OfferID:   in.OfferID,
		ProductID: in.ProductID,
		Name:      in.Name,
		Price:     in.Price,
		Quantity:  in.Quantity,
		Stock:     in.Stock,
		LengthCM:  in.LengthCM,
	}, nil
}
