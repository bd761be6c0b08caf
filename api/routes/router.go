package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodkoop/grouporder-backend/api/controllers"
	"github.com/foodkoop/grouporder-backend/api/middleware"
	"github.com/foodkoop/grouporder-backend/internal/activegroup"
	bundlesvc "github.com/foodkoop/grouporder-backend/internal/bundles"
	groupsvc "github.com/foodkoop/grouporder-backend/internal/groups"
	productsvc "github.com/foodkoop/grouporder-backend/internal/products"
	unitsvc "github.com/foodkoop/grouporder-backend/internal/units"
	"github.com/foodkoop/grouporder-backend/pkg/config"
	"github.com/foodkoop/grouporder-backend/pkg/db"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
	"github.com/foodkoop/grouporder-backend/pkg/metrics"
	"github.com/foodkoop/grouporder-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	resolver *activegroup.Resolver,
	groupService groupsvc.Service,
	unitService unitsvc.Service,
	productService productsvc.Service,
	bundleService bundlesvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", controllers.ListGroups(groupService, logg))
			r.Post("/", controllers.CreateGroup(groupService, logg))
			r.Patch("/{groupID}", controllers.UpdateGroup(groupService, logg))
			r.Delete("/{groupID}", controllers.DeleteGroup(groupService, logg))
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/", controllers.ListUnits(unitService, logg))
			r.Post("/", controllers.CreateUnit(unitService, logg))
			r.Patch("/{unitID}", controllers.UpdateUnit(unitService, logg))
			r.Delete("/{unitID}", controllers.DeleteUnit(unitService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Patch("/{productID}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{productID}", controllers.DeleteProduct(productService, logg))
		})

		r.Route("/bundles", func(r chi.Router) {
			r.Get("/", controllers.ListBundles(bundleService, logg))
			r.Post("/", controllers.CreateBundle(bundleService, logg))
			r.Get("/latest", controllers.LatestBundle(bundleService, logg))

			r.Route("/{bundleID}", func(r chi.Router) {
				r.Get("/", controllers.GetBundle(bundleService, productService, resolver, logg))
				r.Delete("/", controllers.DeleteBundle(bundleService, logg))
				r.Post("/close", controllers.CloseBundle(bundleService, logg))
				r.Post("/reopen", controllers.ReopenBundle(bundleService, logg))

				r.Get("/price", controllers.BundlePrice(bundleService, logg))
				r.Get("/order-summary", controllers.OrderSummary(bundleService, logg))
				r.Get("/output", controllers.OutputSummary(bundleService, logg))

				r.Post("/orders", controllers.RecordOrder(bundleService, resolver, logg))
				r.Post("/deliveries", controllers.RecordDelivery(bundleService, logg))
			})
		})
	})

	return r
}
