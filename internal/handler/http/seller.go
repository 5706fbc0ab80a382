package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httputil"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/pagination"
)

// SellerHandler serves the supplier's assortment table and the AI
// suggestion review queue. Routes require the supplier or admin role.
type SellerHandler struct {
	base
	assortment  *service.AssortmentService
	suggestions *service.SuggestionService
}

func newSellerHandler(assortment *service.AssortmentService, suggestions *service.SuggestionService, b base) *SellerHandler {
	return &SellerHandler{base: b, assortment: assortment, suggestions: suggestions}
}

// --- Request DTOs ---

// EditFieldRequest is the body of an inline edit. Previous is the value the
// editor last saw confirmed, shown again if the save and the re-read fail.
type EditFieldRequest struct {
	Field    string `json:"field" validate:"required"`
	Value    any    `json:"value"`
	Previous any    `json:"previous"`
}

// RejectRequest is the optional body of a suggestion rejection.
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AcceptAboveRequest accepts every pending suggestion at or above Threshold.
type AcceptAboveRequest struct {
	Threshold float64 `json:"threshold" validate:"gt=0,lte=1"`
}

type assortmentResponse struct {
	Data   []domain.AssortmentRow `json:"data"`
	Items  int                    `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Sort   string                 `json:"sort,omitempty"`
}

type reviewBatchResponse struct {
	Results  []domain.ReviewResult `json:"results"`
	Accepted int                   `json:"accepted"`
	Failed   int                   `json:"failed"`
}

// supplierID scopes a request to the caller's supplier. Admins may pick any
// supplier with ?supplier_id=, or none.
func (h *SellerHandler) supplierID(r *http.Request) (string, error) {
	sess := sessionFromContext(r.Context())
	if sess == nil || sess.User == nil {
		return "", apperrors.SignInRequired()
	}
	if sess.User.Role == domain.RoleAdmin {
		return r.URL.Query().Get("supplier_id"), nil
	}
	if sess.User.SupplierID == nil || *sess.User.SupplierID == "" {
		return "", apperrors.Forbidden("account is not linked to a supplier")
	}
	return *sess.User.SupplierID, nil
}

// --- Assortment ---

// Assortment handles GET /api/v1/seller/assortment. Categorical columns
// filter by repeated parameters (?color=red&color=white), numeric columns by
// <column>_min and <column>_max, and sort takes a column name with an
// optional leading "-" for descending.
func (h *SellerHandler) Assortment(w http.ResponseWriter, r *http.Request) {
	supplierID, err := h.supplierID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q, errs := parseAssortmentQuery(r.URL.Query())
	if errs != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid query parameters", Fields: errs},
		})
		return
	}
	q.SupplierID = supplierID
	page := pagination.FromRequest(r)
	q.Limit, q.Offset = page.Limit, page.Offset

	view, err := h.assortment.List(r.Context(), h.principal(r).Tokens, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, assortmentResponse{
		Data:   view.Rows,
		Items:  view.Items,
		Total:  view.Total,
		Limit:  q.Limit,
		Offset: q.Offset,
		Sort:   r.URL.Query().Get("sort"),
	})
}

var (
	categoricalColumns = []domain.Column{domain.ColProductType, domain.ColColor, domain.ColOriginCountry, domain.ColStatus}
	numericColumns     = []domain.Column{domain.ColLengthCM, domain.ColPrice, domain.ColStock}
)

func parseAssortmentQuery(v url.Values) (service.AssortmentQuery, map[string]string) {
	errs := map[string]string{}
	q := service.AssortmentQuery{
		Filter: domain.AssortmentFilter{
			Search:  v.Get("q"),
			Selects: map[domain.Column][]string{},
			Ranges:  map[domain.Column]domain.Range{},
		},
	}

	for _, col := range categoricalColumns {
		if vals := v[string(col)]; len(vals) > 0 {
			q.Filter.Selects[col] = vals
		}
	}

	bound := func(key string) *decimal.Decimal {
		s := v.Get(key)
		if s == "" {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			errs[key] = "must be a number"
			return nil
		}
		return &d
	}
	for _, col := range numericColumns {
		rg := domain.Range{Min: bound(string(col) + "_min"), Max: bound(string(col) + "_max")}
		if rg.Min != nil || rg.Max != nil {
			q.Filter.Ranges[col] = rg
		}
	}

	sort, err := domain.ParseSort(v.Get("sort"))
	if err != nil {
		errs["sort"] = err.Error()
	}
	q.Sort = sort

	if len(errs) > 0 {
		return q, errs
	}
	return q, nil
}

// EditItem handles PATCH /api/v1/seller/items/{itemId}
func (h *SellerHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, domain.EditItem, chi.URLParam(r, "itemId"))
}

// EditVariant handles PATCH /api/v1/seller/variants/{variantId}
func (h *SellerHandler) EditVariant(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, domain.EditVariant, chi.URLParam(r, "variantId"))
}

// edit answers 200 with the EditResult whether or not the save succeeded;
// the result's status and value tell the table what to show.
func (h *SellerHandler) edit(w http.ResponseWriter, r *http.Request, kind domain.EditKind, id string) {
	var req EditFieldRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.assortment.EditField(r.Context(), h.principal(r).Tokens, domain.FieldEdit{
		Kind:     kind,
		ID:       id,
		Field:    req.Field,
		Value:    req.Value,
		Previous: req.Previous,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// --- Suggestions ---

// Suggestions handles GET /api/v1/seller/suggestions?min_confidence=&limit=&offset=
func (h *SellerHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	supplierID, err := h.supplierID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	minConfidence, ok := queryFloat(r, "min_confidence")
	if !ok {
		h.writeError(w, r, apperrors.InvalidInput("min_confidence must be a number"))
		return
	}
	page := pagination.FromRequest(r)

	pending, total, err := h.suggestions.Pending(r.Context(), h.principal(r).Tokens, domain.SuggestionFilter{
		SupplierID:    supplierID,
		MinConfidence: minConfidence,
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(pending, total, page.Limit, page.Offset))
}

// AcceptSuggestion handles POST /api/v1/seller/suggestions/{id}/accept
func (h *SellerHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	res, err := h.suggestions.Accept(r.Context(), h.principal(r).Tokens, chi.URLParam(r, "id"))
	h.review(w, r, res, err)
}

// RejectSuggestion handles POST /api/v1/seller/suggestions/{id}/reject. The
// body is optional.
func (h *SellerHandler) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	res, err := h.suggestions.Reject(r.Context(), h.principal(r).Tokens, chi.URLParam(r, "id"), req.Reason)
	h.review(w, r, res, err)
}

func (h *SellerHandler) review(w http.ResponseWriter, r *http.Request, res domain.ReviewResult, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// AcceptAbove handles POST /api/v1/seller/suggestions/accept-above
func (h *SellerHandler) AcceptAbove(w http.ResponseWriter, r *http.Request) {
	supplierID, err := h.supplierID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req AcceptAboveRequest
	if !h.decode(w, r, &req) {
		return
	}

	results, err := h.suggestions.AcceptAbove(r.Context(), h.principal(r).Tokens,
		domain.SuggestionFilter{SupplierID: supplierID, Limit: pagination.MaxLimit}, req.Threshold)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := reviewBatchResponse{Results: results}
	if out.Results == nil {
		out.Results = []domain.ReviewResult{}
	}
	for _, res := range results {
		if res.OK {
			out.Accepted++
		} else {
			out.Failed++
		}
	}
	httputil.WriteData(w, http.StatusOK, out)
}
