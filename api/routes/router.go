package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aaryaclothing/commerce-core/api/controllers"
	"github.com/aaryaclothing/commerce-core/api/middleware"
	cartsvc "github.com/aaryaclothing/commerce-core/internal/cart"
	catalogsvc "github.com/aaryaclothing/commerce-core/internal/catalog"
	checkoutsvc "github.com/aaryaclothing/commerce-core/internal/checkout"
	inventorysvc "github.com/aaryaclothing/commerce-core/internal/inventory"
	ordersvc "github.com/aaryaclothing/commerce-core/internal/orders"
	"github.com/aaryaclothing/commerce-core/pkg/config"
	"github.com/aaryaclothing/commerce-core/pkg/db"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
	pkgredis "github.com/aaryaclothing/commerce-core/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP pkgredis.Pinger,
	inventoryService inventorysvc.Service,
	catalogService catalogsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", controllers.PaymentWebhook(checkoutService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", controllers.ProductUpsert(catalogService, logg))
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/restock", controllers.InventoryRestock(inventoryService, logg))
		r.Get("/{sku}/availability", controllers.InventoryAvailability(inventoryService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireOwner(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items/{sku}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{sku}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Post("/checkout", controllers.CheckoutSubmit(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderID}", controllers.OrderFetch(ordersService, logg))
		})
	})

	return r
}
