package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/event"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
	pkgkafka "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/kafka"
)

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recordingPublisher captures published events by topic.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}

func newTestEvents() (*event.Producer, *recordingPublisher) {
	rec := &recordingPublisher{}
	return event.NewProducer(rec, newTestLogger()), rec
}

// --- In-memory cart store ---

type memCartRepository struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
	saves int
}

func newMemCartRepository() *memCartRepository {
	return &memCartRepository{carts: map[string]domain.Cart{}}
}

func (m *memCartRepository) Get(_ context.Context, ownerID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[ownerID]
	if !ok {
		return nil, apperrors.NotFound("cart", ownerID)
	}
	out := c.Clone()
	return &out, nil
}

func (m *memCartRepository) Save(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.OwnerID] = cart.Clone()
	m.saves++
	return nil
}

func (m *memCartRepository) Delete(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, ownerID)
	return nil
}

func (m *memCartRepository) stored(ownerID string) (domain.Cart, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[ownerID]
	return c, ok
}

// --- Mock Repositories ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, ownerID string) error {
	return m.Called(ctx, ownerID).Error(0)
}

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) Begin(ctx context.Context, a *repository.CheckoutAttempt) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockJournal) Finish(ctx context.Context, id string, status repository.AttemptStatus, orderID, errMsg string) error {
	return m.Called(ctx, id, status, orderID, errMsg).Error(0)
}

func (m *mockJournal) ListByOwner(ctx context.Context, ownerID string, limit int) ([]repository.CheckoutAttempt, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.CheckoutAttempt), args.Error(1)
}

// --- Mock marketplace ---

// mockMarketplace implements every API interface the services use.
type mockMarketplace struct {
	mock.Mock
}

func (m *mockMarketplace) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.TokenPair), args.Error(1)
}

func (m *mockMarketplace) Me(ctx context.Context, tokens marketplace.Tokens) (*domain.User, error) {
	args := m.Called(ctx, tokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockMarketplace) UpdateMe(ctx context.Context, tokens marketplace.Tokens, upd domain.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, tokens, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockMarketplace) Logout(ctx context.Context, tokens marketplace.Tokens) error {
	return m.Called(ctx, tokens).Error(0)
}

func (m *mockMarketplace) ListOffers(ctx context.Context, tokens marketplace.Tokens, f domain.OfferFilter) (*domain.OfferPage, error) {
	args := m.Called(ctx, tokens, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OfferPage), args.Error(1)
}

func (m *mockMarketplace) CreateOrder(ctx context.Context, tokens marketplace.Tokens, req domain.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, tokens, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockMarketplace) ListOrders(ctx context.Context, tokens marketplace.Tokens, f domain.OrderFilter) (*domain.OrderPage, error) {
	args := m.Called(ctx, tokens, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderPage), args.Error(1)
}

func (m *mockMarketplace) GetOrder(ctx context.Context, tokens marketplace.Tokens, id string) (*domain.Order, error) {
	args := m.Called(ctx, tokens, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockMarketplace) ListSupplierItems(ctx context.Context, tokens marketplace.Tokens, q marketplace.SupplierItemQuery) (*marketplace.SupplierItemPage, error) {
	args := m.Called(ctx, tokens, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.SupplierItemPage), args.Error(1)
}

func (m *mockMarketplace) GetSupplierItem(ctx context.Context, tokens marketplace.Tokens, id string) (*domain.SupplierItem, error) {
	args := m.Called(ctx, tokens, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SupplierItem), args.Error(1)
}

func (m *mockMarketplace) PatchSupplierItem(ctx context.Context, tokens marketplace.Tokens, id string, fields map[string]any) (*domain.SupplierItem, error) {
	args := m.Called(ctx, tokens, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SupplierItem), args.Error(1)
}

func (m *mockMarketplace) GetOfferCandidate(ctx context.Context, tokens marketplace.Tokens, id string) (*domain.OfferCandidate, error) {
	args := m.Called(ctx, tokens, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OfferCandidate), args.Error(1)
}

func (m *mockMarketplace) PatchOfferCandidate(ctx context.Context, tokens marketplace.Tokens, id string, fields map[string]any) (*domain.OfferCandidate, error) {
	args := m.Called(ctx, tokens, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OfferCandidate), args.Error(1)
}

func (m *mockMarketplace) ListSuggestions(ctx context.Context, tokens marketplace.Tokens, status domain.SuggestionStatus, f domain.SuggestionFilter) (*marketplace.SuggestionPage, error) {
	args := m.Called(ctx, tokens, status, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.SuggestionPage), args.Error(1)
}

func (m *mockMarketplace) AcceptSuggestion(ctx context.Context, tokens marketplace.Tokens, id string) (*domain.Suggestion, error) {
	args := m.Called(ctx, tokens, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Suggestion), args.Error(1)
}

func (m *mockMarketplace) RejectSuggestion(ctx context.Context, tokens marketplace.Tokens, id, reason string) (*domain.Suggestion, error) {
	args := m.Called(ctx, tokens, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Suggestion), args.Error(1)
}
