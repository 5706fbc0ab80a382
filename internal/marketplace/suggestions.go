package marketplace

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// SuggestionPage is one page of the AI suggestion queue.
type SuggestionPage struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Total       int                 `json:"total"`
}

func (c *Client) ListSuggestions(ctx context.Context, tokens Tokens, status domain.SuggestionStatus, f domain.SuggestionFilter) (*SuggestionPage, error) {
	q := pageQuery(f.Limit, f.Offset)
	if status != "" {
		q.Set("status", string(status))
	}
	if f.SupplierID != "" {
		q.Set("supplier_id", f.SupplierID)
	}
	if f.MinConfidence > 0 {
		q.Set("min_confidence", strconv.FormatFloat(f.MinConfidence, 'f', -1, 64))
	}

	var page SuggestionPage
	err := c.do(ctx, tokens, call{op: "list_suggestions", method: http.MethodGet, path: "/admin/ai/suggestions", query: q, out: &page})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) AcceptSuggestion(ctx context.Context, tokens Tokens, id string) (*domain.Suggestion, error) {
	var s domain.Suggestion
	err := c.do(ctx, tokens, call{op: "accept_suggestion", method: http.MethodPatch, path: pathID("/admin/ai/suggestions", id, "accept"), out: &s})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type rejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (c *Client) RejectSuggestion(ctx context.Context, tokens Tokens, id, reason string) (*domain.Suggestion, error) {
	var s domain.Suggestion
	err := c.do(ctx, tokens, call{
		op:     "reject_suggestion",
		method: http.MethodPatch,
		path:   pathID("/admin/ai/suggestions", id, "reject"),
		body:   rejectRequest{Reason: reason},
		out:    &s,
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}
