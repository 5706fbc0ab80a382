package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httputil"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/pagination"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	base
	carts    *service.CartService
	checkout *service.CheckoutService
}

func newCartHandler(carts *service.CartService, checkout *service.CheckoutService, b base) *CartHandler {
	return &CartHandler{base: b, carts: carts, checkout: checkout}
}

// --- Response DTOs ---

type cartLineView struct {
	domain.CartLine
	LineTotal    decimal.Decimal `json:"line_total"`
	ExceedsStock bool            `json:"exceeds_stock"`
}

type supplierGroupView struct {
	SupplierID   string          `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Items        []cartLineView  `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	OwnerID    string              `json:"owner_id"`
	Suppliers  []supplierGroupView `json:"suppliers"`
	ItemCount  int                 `json:"item_count"`
	GrandTotal decimal.Decimal     `json:"grand_total"`
	Version    int                 `json:"version"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func newCartView(c *domain.Cart) cartView {
	v := cartView{
		OwnerID:    c.OwnerID,
		Suppliers:  make([]supplierGroupView, 0, len(c.Suppliers)),
		ItemCount:  c.ItemCount(),
		GrandTotal: c.GrandTotal(),
		Version:    c.Version,
		UpdatedAt:  c.UpdatedAt,
	}
	for _, g := range c.Suppliers {
		gv := supplierGroupView{
			SupplierID:   g.SupplierID,
			SupplierName: g.SupplierName,
			Items:        make([]cartLineView, 0, len(g.Items)),
			Subtotal:     g.Subtotal(),
		}
		for _, l := range g.Items {
			gv.Items = append(gv.Items, cartLineView{CartLine: l, LineTotal: l.LineTotal(), ExceedsStock: l.ExceedsStock()})
		}
		v.Suppliers = append(v.Suppliers, gv)
	}
	return v
}

// owner resolves the cart owner, writing an error when there is none.
func (h *CartHandler) owner(w http.ResponseWriter, r *http.Request) (service.Principal, bool) {
	p := h.principal(r)
	if p.OwnerID == "" {
		h.writeError(w, r, apperrors.InvalidInput(CartHeader+" header is required when not signed in"))
		return p, false
	}
	return p, true
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartView(cart))
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.owner(w, r)
	if !ok {
		return
	}
	cart, err := h.carts.GetCart(r.Context(), p.OwnerID)
	h.respond(w, r, cart, err)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req service.AddItemInput
	if !h.decode(w, r, &req) {
		return
	}

	cart, err := h.carts.AddItem(r.Context(), p.OwnerID, req)
	h.respond(w, r, cart, err)
}

// UpdateItemQuantity handles PUT /api/v1/cart/suppliers/{supplierId}/items/{offerId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	p, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req service.UpdateQuantityInput
	if !h.decode(w, r, &req) {
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), p.OwnerID, chi.URLParam(r, "supplierId"), chi.URLParam(r, "offerId"), req.Quantity)
	h.respond(w, r, cart, err)
}

// RemoveItem handles DELETE /api/v1/cart/suppliers/{supplierId}/items/{offerId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.owner(w, r)
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(r.Context(), p.OwnerID, chi.URLParam(r, "supplierId"), chi.URLParam(r, "offerId"))
	h.respond(w, r, cart, err)
}

// ClearSupplier handles DELETE /api/v1/cart/suppliers/{supplierId}
func (h *CartHandler) ClearSupplier(w http.ResponseWriter, r *http.Request) {
	p, ok := h.owner(w, r)
	if !ok {
		return
	}
	cart, err := h.carts.ClearSupplierCart(r.Context(), p.OwnerID, chi.URLParam(r, "supplierId"))
	h.respond(w, r, cart, err)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.carts.ClearCart(r.Context(), p.OwnerID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /api/v1/cart/suppliers/{supplierId}/checkout. It
// answers 201 with the placed order, or 204 when the cart has nothing from
// that supplier.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req service.CheckoutInput
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.checkout.Checkout(r.Context(), p, chi.URLParam(r, "supplierId"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if order == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteData(w, http.StatusCreated, service.NewOrderView(*order))
}

type checkoutAttemptView struct {
	ID         string     `json:"id"`
	SupplierID string     `json:"supplier_id"`
	LineCount  int        `json:"line_count"`
	Status     string     `json:"status"`
	OrderID    string     `json:"order_id,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CheckoutHistory handles GET /api/v1/cart/checkouts. It lists the owner's
// journaled checkout attempts, newest first; empty when the journal is off.
func (h *CartHandler) CheckoutHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.owner(w, r)
	if !ok {
		return
	}

	limit := pagination.FromRequest(r).Limit
	attempts, err := h.checkout.Attempts(r.Context(), p.OwnerID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]checkoutAttemptView, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, checkoutAttemptView{
			ID:         a.ID,
			SupplierID: a.SupplierID,
			LineCount:  a.LineCount,
			Status:     string(a.Status),
			OrderID:    a.OrderID,
			Error:      a.Error,
			CreatedAt:  a.CreatedAt,
			FinishedAt: a.FinishedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(views, len(views), limit, 0))
}
