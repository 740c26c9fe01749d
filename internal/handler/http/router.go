package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/shopvista/internal/service"
	"github.com/utafrali/shopvista/pkg/health"
	"github.com/utafrali/shopvista/pkg/middleware"
)

const serviceName = "storefront"

// catalogMaxAge is how long clients may cache catalog responses, in seconds.
const catalogMaxAge = 300

// RouterConfig carries the HTTP-level settings of the router.
type RouterConfig struct {
	CORS       middleware.CORSConfig
	PprofCIDRs []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svc *service.StorefrontService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	productHandler := NewProductHandler(svc, logger)
	cartHandler := NewCartHandler(svc, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogMaxAge))

			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/{productId}", productHandler.GetProduct)
			r.Get("/categories", productHandler.ListCategories)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(ContentTypeJSON)
			r.Use(middleware.Session)
			// Rebuild the request logger so it carries the resolved session.
			r.Use(middleware.RequestLogger(logger))

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)

			r.Post("/checkout", cartHandler.Checkout)
		})
	})

	return r
}
