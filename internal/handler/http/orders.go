package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httputil"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/pagination"
)

// OrderHandler serves the buyer's order history.
type OrderHandler struct {
	base
	orders *service.OrderService
}

func newOrderHandler(orders *service.OrderService, b base) *OrderHandler {
	return &OrderHandler{base: b, orders: orders}
}

// ListOrders handles GET /api/v1/orders?status=&limit=&offset=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}

	out, err := h.orders.List(r.Context(), h.principal(r), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(out.Orders, out.Total, out.Limit, out.Offset))
}

// GetOrder handles GET /api/v1/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), h.principal(r), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}
