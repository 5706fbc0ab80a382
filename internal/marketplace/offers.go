package marketplace

import (
	"context"
	"net/http"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// ListOffers fetches one catalog page. Only the filter's set fields are sent.
func (c *Client) ListOffers(ctx context.Context, tokens Tokens, f domain.OfferFilter) (*domain.OfferPage, error) {
	var page domain.OfferPage
	err := c.do(ctx, tokens, call{
		op:     "list_offers",
		method: http.MethodGet,
		path:   "/offers",
		query:  f.Values(),
		out:    &page,
	})
	if err != nil {
		return nil, err
	}
	if page.Limit == 0 {
		page.Limit = f.Limit
		page.Offset = f.Offset
	}
	return &page, nil
}
