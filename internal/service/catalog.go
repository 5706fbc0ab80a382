package service

import (
	"context"
	"log/slog"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
)

// CatalogService runs catalog queries.
type CatalogService struct {
	api    CatalogAPI
	logger *slog.Logger
}

func NewCatalogService(api CatalogAPI, logger *slog.Logger) *CatalogService {
	return &CatalogService{api: api, logger: logger}
}

// Search fetches the page of offers matching f.
func (s *CatalogService) Search(ctx context.Context, tokens marketplace.Tokens, f domain.OfferFilter) (*domain.OfferPage, error) {
	page, err := s.api.ListOffers(ctx, tokens, f)
	if err != nil {
		return nil, err
	}
	if page.Offers == nil {
		page.Offers = []domain.Offer{}
	}

	s.logger.DebugContext(ctx, "catalog query",
		slog.String("query", f.Values().Encode()),
		slog.Int("total", page.Total),
	)
	return page, nil
}
