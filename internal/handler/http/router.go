package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/storefront"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// catalogMaxAge is how long browsers may cache the catalog, in seconds.
const catalogMaxAge = 60

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	sf *storefront.Storefront,
	healthHandler *health.Handler,
	cors middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger, func(*http.Request) string {
		return sf.Session().UserID
	}))
	r.Use(middleware.CORS(cors))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	h := NewStorefrontHandler(sf, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(catalogMaxAge)).Get("/catalog", h.GetCatalog)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/state", h.GetState)

			r.Post("/cart/items", h.AddItem)
			r.Put("/cart/items/{productId}", h.UpdateItemQuantity)
			r.Delete("/cart/items/{productId}", h.RemoveItem)
			r.Delete("/cart", h.ClearCart)
			r.Post("/cart/checkout", h.Checkout)

			r.Post("/session/register", h.Register)
			r.Post("/session/login", h.Login)
			r.Post("/session/logout", h.Logout)
			r.Delete("/session/account", h.DeleteAccount)
			r.Get("/session/operations", h.GetOperations)
		})
	})

	return r
}
