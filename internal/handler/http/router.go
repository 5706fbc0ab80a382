package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/health"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/middleware"
)

const serviceName = "storefront"

// Services are the storefront services the router exposes.
type Services struct {
	Sessions    *service.SessionService
	Carts       *service.CartService
	Checkout    *service.CheckoutService
	Catalog     *service.CatalogService
	Orders      *service.OrderService
	Assortment  *service.AssortmentService
	Suggestions *service.SuggestionService
}

// Options tune the router's cross-cutting behavior.
type Options struct {
	CORS middleware.CORSConfig
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	// LoginLimiter throttles POST /auth/login per client IP. Nil disables it.
	LoginLimiter *middleware.RateLimiter
	// CatalogMaxAge is the Cache-Control max-age of catalog responses, in seconds.
	CatalogMaxAge  int
	OperationCIDRs []string
	EnablePprof    bool
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, opts Options, logger *slog.Logger) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	cookies := cookieConfig{secure: opts.CookieSecure}
	b := base{sessions: svcs.Sessions, cookies: cookies, logger: logger}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(opts.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(opts.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	// /metrics and pprof with IP allowlist.
	middleware.RegisterOperational(r, opts.OperationCIDRs, promhttp.Handler(), opts.EnablePprof, logger)

	authHandler := newAuthHandler(b)
	catalogHandler := newCatalogHandler(svcs.Catalog, b)
	cartHandler := newCartHandler(svcs.Carts, svcs.Checkout, b)
	orderHandler := newOrderHandler(svcs.Orders, b)
	sellerHandler := newSellerHandler(svcs.Assortment, svcs.Suggestions, b)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(resolveSession(svcs.Sessions, cookies, logger))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Group(func(r chi.Router) {
				if opts.LoginLimiter != nil {
					r.Use(opts.LoginLimiter.Handler)
				}
				r.Post("/login", authHandler.Login)
			})
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Get("/me", authHandler.Me)
				r.Patch("/me", authHandler.UpdateMe)
			})
		})

		r.With(middleware.CacheControl(opts.CatalogMaxAge)).Get("/offers", catalogHandler.ListOffers)

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Get("/checkouts", cartHandler.CheckoutHistory)

			r.Route("/suppliers/{supplierId}", func(r chi.Router) {
				r.Delete("/", cartHandler.ClearSupplier)
				r.Put("/items/{offerId}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{offerId}", cartHandler.RemoveItem)
				r.Post("/checkout", cartHandler.Checkout)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RequireUser)

			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderId}", orderHandler.GetOrder)
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RequireRole(domain.RoleSupplier, domain.RoleAdmin))

			r.Get("/assortment", sellerHandler.Assortment)
			r.Patch("/items/{itemId}", sellerHandler.EditItem)
			r.Patch("/variants/{variantId}", sellerHandler.EditVariant)

			r.Get("/suggestions", sellerHandler.Suggestions)
			r.Post("/suggestions/accept-above", sellerHandler.AcceptAbove)
			r.Post("/suggestions/{id}/accept", sellerHandler.AcceptSuggestion)
			r.Post("/suggestions/{id}/reject", sellerHandler.RejectSuggestion)
		})
	})

	return r
}
