package marketplace

import (
	"context"
	"net/http"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// SupplierItemQuery narrows GET /admin/supplier-items.
type SupplierItemQuery struct {
	SupplierID string
	Q          string
	Status     []string
	Limit      int
	Offset     int
}

// SupplierItemPage is one page of supplier items with their variants.
type SupplierItemPage struct {
	Items  []domain.SupplierItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

func (c *Client) ListSupplierItems(ctx context.Context, tokens Tokens, sq SupplierItemQuery) (*SupplierItemPage, error) {
	q := pageQuery(sq.Limit, sq.Offset)
	if sq.SupplierID != "" {
		q.Set("supplier_id", sq.SupplierID)
	}
	if sq.Q != "" {
		q.Set("q", sq.Q)
	}
	for _, s := range sq.Status {
		q.Add("status", s)
	}

	var page SupplierItemPage
	err := c.do(ctx, tokens, call{op: "list_supplier_items", method: http.MethodGet, path: "/admin/supplier-items", query: q, out: &page})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetSupplierItem(ctx context.Context, tokens Tokens, id string) (*domain.SupplierItem, error) {
	var it domain.SupplierItem
	if err := c.do(ctx, tokens, call{op: "get_supplier_item", method: http.MethodGet, path: pathID("/admin/supplier-items", id), out: &it}); err != nil {
		return nil, err
	}
	return &it, nil
}

// PatchSupplierItem sends a partial update and returns the stored item.
func (c *Client) PatchSupplierItem(ctx context.Context, tokens Tokens, id string, fields map[string]any) (*domain.SupplierItem, error) {
	var it domain.SupplierItem
	err := c.do(ctx, tokens, call{op: "patch_supplier_item", method: http.MethodPatch, path: pathID("/admin/supplier-items", id), body: fields, out: &it})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (c *Client) GetOfferCandidate(ctx context.Context, tokens Tokens, id string) (*domain.OfferCandidate, error) {
	var oc domain.OfferCandidate
	if err := c.do(ctx, tokens, call{op: "get_offer_candidate", method: http.MethodGet, path: pathID("/admin/offer-candidates", id), out: &oc}); err != nil {
		return nil, err
	}
	return &oc, nil
}

// PatchOfferCandidate sends a partial update and returns the stored variant.
func (c *Client) PatchOfferCandidate(ctx context.Context, tokens Tokens, id string, fields map[string]any) (*domain.OfferCandidate, error) {
	var oc domain.OfferCandidate
	err := c.do(ctx, tokens, call{op: "patch_offer_candidate", method: http.MethodPatch, path: pathID("/admin/offer-candidates", id), body: fields, out: &oc})
	if err != nil {
		return nil, err
	}
	return &oc, nil
}
