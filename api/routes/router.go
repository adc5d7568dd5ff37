package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweetfrozen/storefront/api/controllers"
	cartcontrollers "github.com/sweetfrozen/storefront/api/controllers/cart"
	"github.com/sweetfrozen/storefront/api/middleware"
	"github.com/sweetfrozen/storefront/internal/accounts"
	"github.com/sweetfrozen/storefront/internal/cart"
	"github.com/sweetfrozen/storefront/internal/catalog"
	checkoutsvc "github.com/sweetfrozen/storefront/internal/checkout"
	"github.com/sweetfrozen/storefront/internal/coupons"
	"github.com/sweetfrozen/storefront/internal/orders"
	"github.com/sweetfrozen/storefront/pkg/config"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

// Dependencies carries everything the HTTP surface is built from.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	Pingers  map[string]controllers.Pinger

	Accounts accounts.Service
	Products *catalog.Products
	Coupons  *coupons.Engine
	Carts    *cart.Service
	Checkout *checkoutsvc.Service
	Orders   *orders.Log
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(deps.Accounts, logg))
		r.Post("/login", controllers.AuthLogin(deps.Accounts, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Products, logg))
		r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
	})

	cartHandlers := cartcontrollers.NewHandlers(deps.Carts, deps.Products, deps.Checkout, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.CartSession(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandlers.Fetch())
			r.Delete("/", cartHandlers.Clear())
			r.Get("/pricing", cartHandlers.Pricing())
			r.Post("/items", cartHandlers.AddItem())
			r.Put("/items/{productId}", cartHandlers.UpdateItem())
			r.Delete("/items/{productId}", cartHandlers.RemoveItem())
			r.Post("/coupon", cartHandlers.RedeemCoupon())
			r.Delete("/coupon", cartHandlers.RemoveCoupon())
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.CouponsActive(deps.Coupons, logg))
			r.Get("/available", controllers.CouponsAvailable(deps.Coupons, deps.Checkout, logg))
			r.Get("/validate", controllers.CouponValidate(deps.Coupons, deps.Checkout, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/usage", controllers.CouponUsage(deps.Coupons, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.Get("/orders", controllers.OrdersList(deps.Orders, logg))
		})
	})

	if !cfg.App.IsProd() {
		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Post("/catalog/reload", controllers.AdminReloadCatalog(map[string]controllers.Reloadable{
				"products": deps.Products,
				"coupons":  deps.Coupons,
			}, logg))
			r.Delete("/coupons/usage/{userKey}", controllers.AdminResetCouponUsage(deps.Coupons, logg))
		})
	}

	return r
}
