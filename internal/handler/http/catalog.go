package http

import (
	"log/slog"
	"net/http"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httputil"
)

// CatalogHandler serves the offer catalog.
type CatalogHandler struct {
	base
	catalog *service.CatalogService
}

func newCatalogHandler(catalog *service.CatalogService, b base) *CatalogHandler {
	return &CatalogHandler{base: b, catalog: catalog}
}

// ListOffers handles GET /api/v1/offers. Query parameters use the same names
// the marketplace does.
func (h *CatalogHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	filter, errs := domain.ParseOfferFilter(r.URL.Query())
	if errs != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid query parameters", Fields: errs},
		})
		return
	}

	page, err := h.catalog.Search(r.Context(), h.principal(r).Tokens, filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "catalog searched",
		slog.Int("offers", len(page.Offers)),
		slog.Int("total", page.Total),
	)
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(page.Offers, page.Total, page.Limit, page.Offset))
}
