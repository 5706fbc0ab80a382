package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/event"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

type checkoutFixture struct {
	svc     *CheckoutService
	carts   *CartService
	repo    *memCartRepository
	api     *mockMarketplace
	journal *mockJournal
	events  *recordingPublisher
	buyer   Principal
}

func newCheckoutFixture(t *testing.T, withJournal bool) *checkoutFixture {
	t.Helper()
	repo := newMemCartRepository()
	events, rec := newTestEvents()
	carts := NewCartService(repo, events, newTestLogger())
	api := new(mockMarketplace)

	f := &checkoutFixture{
		carts:  carts,
		repo:   repo,
		api:    api,
		events: rec,
		buyer: Principal{
			OwnerID: owner,
			BuyerID: "u1",
			Tokens:  marketplace.NewStaticTokens(domain.TokenPair{AccessToken: "a", RefreshToken: "r"}),
		},
	}
	var journal repository.CheckoutJournal
	if withJournal {
		f.journal = new(mockJournal)
		journal = f.journal
	}
	f.svc = NewCheckoutService(carts, api, journal, events, newTestLogger())

	ctx := context.Background()
	_, err := carts.AddToCart(ctx, owner, "A", "Alpha", line("o1", 120, 50))
	require.NoError(t, err)
	_, err = carts.AddToCart(ctx, owner, "A", "Alpha", line("o2", 85, 30))
	require.NoError(t, err)
	_, err = carts.AddToCart(ctx, owner, "B", "Beta", line("o3", 90, 10))
	require.NoError(t, err)
	return f
}

func validInput() CheckoutInput {
	return CheckoutInput{DeliveryAddress: "  Lenina 1, Moscow  "}
}

func placedOrder() *domain.Order {
	return &domain.Order{ID: "ord-1", BuyerID: "u1", SupplierID: "A", Status: domain.OrderStatusPending, TotalAmount: decimal.NewFromInt(8550)}
}

func TestCheckout_SuccessClearsOnlyThatSupplier(t *testing.T) {
	f := newCheckoutFixture(t, false)
	ctx := context.Background()

	want := domain.CreateOrderRequest{
		BuyerID:         "u1",
		Items:           []domain.OrderItemRequest{{OfferID: "o1", Quantity: 50}, {OfferID: "o2", Quantity: 30}},
		DeliveryAddress: "Lenina 1, Moscow",
	}
	f.api.On("CreateOrder", ctx, f.buyer.Tokens, want).Return(placedOrder(), nil).Once()

	order, err := f.svc.Checkout(ctx, f.buyer, "A", validInput())
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)

	cart, err := f.carts.GetCart(ctx, owner)
	require.NoError(t, err)
	_, hasA := cart.Group("A")
	assert.False(t, hasA)
	b, hasB := cart.Group("B")
	require.True(t, hasB)
	assert.Equal(t, 10, b.Items[0].Quantity)

	assert.Contains(t, f.events.published(), event.TopicOrderPlaced)
	f.api.AssertExpectations(t)
}

func TestCheckout_KeepsLinesAddedWhileOrderInFlight(t *testing.T) {
	f := newCheckoutFixture(t, false)
	ctx := context.Background()

	f.api.On("CreateOrder", ctx, f.buyer.Tokens, mock.Anything).
		Run(func(mock.Arguments) {
			_, err := f.carts.AddToCart(ctx, owner, "A", "Alpha", line("o1", 120, 5))
			require.NoError(t, err)
			_, err = f.carts.AddToCart(ctx, owner, "A", "Alpha", line("o4", 60, 12))
			require.NoError(t, err)
		}).
		Return(placedOrder(), nil).Once()

	_, err := f.svc.Checkout(ctx, f.buyer, "A", validInput())
	require.NoError(t, err)

	cart, err := f.carts.GetCart(ctx, owner)
	require.NoError(t, err)
	a, ok := cart.Group("A")
	require.True(t, ok, "lines added during checkout stay in the cart")
	require.Len(t, a.Items, 2)
	assert.Equal(t, "o1", a.Items[0].OfferID)
	assert.Equal(t, 5, a.Items[0].Quantity)
	assert.Equal(t, "o4", a.Items[1].OfferID)
	assert.Equal(t, 12, a.Items[1].Quantity)
}

func TestCheckout_FailureLeavesCartUntouched(t *testing.T) {
	f := newCheckoutFixture(t, false)
	ctx := context.Background()
	before, _ := f.repo.stored(owner)

	f.api.On("CreateOrder", ctx, f.buyer.Tokens, mock.Anything).
		Return(nil, apperrors.InvalidInput("o2: offer is no longer available")).Once()

	order, err := f.svc.Checkout(ctx, f.buyer, "A", validInput())
	require.Error(t, err)
	assert.Nil(t, order)
	assert.Equal(t, "o2: offer is no longer available", apperrors.UserMessage(err))

	after, _ := f.repo.stored(owner)
	assert.Equal(t, before, after)
	assert.NotContains(t, f.events.published(), event.TopicOrderPlaced)
	f.api.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestCheckout_MissingSupplierAbortsSilently(t *testing.T) {
	f := newCheckoutFixture(t, false)

	order, err := f.svc.Checkout(context.Background(), f.buyer, "Z", validInput())
	assert.NoError(t, err)
	assert.Nil(t, order)
	f.api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_ValidationBeforeNetwork(t *testing.T) {
	date := "19.10.2026"
	tests := []struct {
		name  string
		input CheckoutInput
		want  error
	}{
		{"short address", CheckoutInput{DeliveryAddress: " abc "}, apperrors.ErrInvalidInput},
		{"bad date", CheckoutInput{DeliveryAddress: "Lenina 1", DeliveryDate: &date}, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t, false)
			_, err := f.svc.Checkout(context.Background(), f.buyer, "A", tt.input)
			assert.ErrorIs(t, err, tt.want)
			f.api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCheckout_GuestMustSignIn(t *testing.T) {
	f := newCheckoutFixture(t, false)

	_, err := f.svc.Checkout(context.Background(), Principal{OwnerID: owner}, "A", validInput())
	assert.ErrorIs(t, err, apperrors.ErrSignInRequired)
	f.api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_OptionalFieldsNormalized(t *testing.T) {
	f := newCheckoutFixture(t, false)
	ctx := context.Background()

	date := "2026-10-21"
	notes := "  call before delivery "
	blank := "   "
	f.api.On("CreateOrder", ctx, f.buyer.Tokens, mock.MatchedBy(func(r domain.CreateOrderRequest) bool {
		return r.DeliveryDate != nil && *r.DeliveryDate == date && r.Notes != nil && *r.Notes == "call before delivery"
	})).Return(placedOrder(), nil).Once()
	f.api.On("CreateOrder", ctx, f.buyer.Tokens, mock.MatchedBy(func(r domain.CreateOrderRequest) bool {
		return r.DeliveryDate == nil && r.Notes == nil
	})).Return(&domain.Order{ID: "ord-2", SupplierID: "B"}, nil).Once()

	_, err := f.svc.Checkout(ctx, f.buyer, "A", CheckoutInput{DeliveryAddress: "Lenina 1", DeliveryDate: &date, Notes: &notes})
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.buyer, "B", CheckoutInput{DeliveryAddress: "Lenina 1", Notes: &blank})
	require.NoError(t, err)

	f.api.AssertExpectations(t)
}

func TestCheckout_JournalRecordsOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeded", func(t *testing.T) {
		f := newCheckoutFixture(t, true)
		f.journal.On("Begin", ctx, mock.MatchedBy(func(a *repository.CheckoutAttempt) bool {
			return a.OwnerID == owner && a.SupplierID == "A" && a.LineCount == 2 && a.Status == repository.AttemptPending
		})).Return(nil).Once()
		f.journal.On("Finish", ctx, mock.AnythingOfType("string"), repository.AttemptSucceeded, "ord-1", "").Return(nil).Once()
		f.api.On("CreateOrder", ctx, f.buyer.Tokens, mock.Anything).Return(placedOrder(), nil).Once()

		_, err := f.svc.Checkout(ctx, f.buyer, "A", validInput())
		require.NoError(t, err)
		f.journal.AssertExpectations(t)
	})

	t.Run("failed", func(t *testing.T) {
		f := newCheckoutFixture(t, true)
		f.journal.On("Begin", ctx, mock.Anything).Return(nil).Once()
		f.journal.On("Finish", ctx, mock.AnythingOfType("string"), repository.AttemptFailed, "", "marketplace is unavailable, please try again").Return(nil).Once()
		f.api.On("CreateOrder", ctx, f.buyer.Tokens, mock.Anything).
			Return(nil, apperrors.ServiceUnavailable("marketplace is unavailable, please try again")).Once()

		_, err := f.svc.Checkout(ctx, f.buyer, "A", validInput())
		assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
		f.journal.AssertExpectations(t)
	})

	t.Run("journal errors do not change the outcome", func(t *testing.T) {
		f := newCheckoutFixture(t, true)
		f.journal.On("Begin", ctx, mock.Anything).Return(errors.New("pg down")).Once()
		f.api.On("CreateOrder", ctx, f.buyer.Tokens, mock.Anything).Return(placedOrder(), nil).Once()

		order, err := f.svc.Checkout(ctx, f.buyer, "A", validInput())
		require.NoError(t, err)
		assert.Equal(t, "ord-1", order.ID)
		f.journal.AssertNotCalled(t, "Finish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCheckout_Attempts(t *testing.T) {
	ctx := context.Background()

	f := newCheckoutFixture(t, false)
	attempts, err := f.svc.Attempts(ctx, owner, 10)
	require.NoError(t, err)
	assert.Empty(t, attempts)

	f = newCheckoutFixture(t, true)
	f.journal.On("ListByOwner", ctx, owner, 10).Return([]repository.CheckoutAttempt{{ID: "at-1"}}, nil)
	attempts, err = f.svc.Attempts(ctx, owner, 10)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}
