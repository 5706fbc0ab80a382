package service

import (
	"context"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
)

// Principal is who a storefront call acts for: the cart owner, the signed-in
// buyer (empty for guests) and the credentials to reach the marketplace with.
type Principal struct {
	OwnerID string
	BuyerID string
	Tokens  marketplace.Tokens
}

func (p Principal) tokens() marketplace.Tokens {
	if p.Tokens == nil {
		return marketplace.Anonymous
	}
	return p.Tokens
}

// The marketplace calls each service needs. *marketplace.Client implements
// all of them.

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domain.TokenPair, error)
	Me(ctx context.Context, tokens marketplace.Tokens) (*domain.User, error)
	UpdateMe(ctx context.Context, tokens marketplace.Tokens, upd domain.ProfileUpdate) (*domain.User, error)
	Logout(ctx context.Context, tokens marketplace.Tokens) error
}

type CatalogAPI interface {
	ListOffers(ctx context.Context, tokens marketplace.Tokens, f domain.OfferFilter) (*domain.OfferPage, error)
}

type OrderAPI interface {
	CreateOrder(ctx context.Context, tokens marketplace.Tokens, req domain.CreateOrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, tokens marketplace.Tokens, f domain.OrderFilter) (*domain.OrderPage, error)
	GetOrder(ctx context.Context, tokens marketplace.Tokens, id string) (*domain.Order, error)
}

type AssortmentAPI interface {
	ListSupplierItems(ctx context.Context, tokens marketplace.Tokens, q marketplace.SupplierItemQuery) (*marketplace.SupplierItemPage, error)
	GetSupplierItem(ctx context.Context, tokens marketplace.Tokens, id string) (*domain.SupplierItem, error)
	PatchSupplierItem(ctx context.Context, tokens marketplace.Tokens, id string, fields map[string]any) (*domain.SupplierItem, error)
	GetOfferCandidate(ctx context.Context, tokens marketplace.Tokens, id string) (*domain.OfferCandidate, error)
	PatchOfferCandidate(ctx context.Context, tokens marketplace.Tokens, id string, fields map[string]any) (*domain.OfferCandidate, error)
}

type SuggestionAPI interface {
	ListSuggestions(ctx context.Context, tokens marketplace.Tokens, status domain.SuggestionStatus, f domain.SuggestionFilter) (*marketplace.SuggestionPage, error)
	AcceptSuggestion(ctx context.Context, tokens marketplace.Tokens, id string) (*domain.Suggestion, error)
	RejectSuggestion(ctx context.Context, tokens marketplace.Tokens, id, reason string) (*domain.Suggestion, error)
}

var (
	_ AuthAPI       = (*marketplace.Client)(nil)
	_ CatalogAPI    = (*marketplace.Client)(nil)
	_ OrderAPI      = (*marketplace.Client)(nil)
	_ AssortmentAPI = (*marketplace.Client)(nil)
	_ SuggestionAPI = (*marketplace.Client)(nil)
)
