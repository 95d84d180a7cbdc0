package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Services bundles the domain services mounted by the router.
type Services struct {
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Payments payments.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	registry *metrics.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if registry != nil {
		httpMetrics = registry.HTTP
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(nil),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutUserLimit,
		cfg.RateLimit.CheckoutIPLimit,
	)
	paymentPolicy := middleware.NewRateLimitPolicy(
		"payment",
		cfg.RateLimit.PaymentWindow,
		cfg.RateLimit.PaymentUserLimit,
		cfg.RateLimit.PaymentIPLimit,
	)

	// a typed nil *redis.Client must not reach the interfaces below
	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["db"] = dbP
	}
	var limiter *redis.Client
	if redisClient != nil {
		deps["redis"] = redisClient
		limiter = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if registry != nil {
		r.Handle("/metrics", metrics.Handler(registry.Registry))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.With(rateLimit(checkoutPolicy, limiter, logg)).Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
		r.With(rateLimit(paymentPolicy, limiter, logg)).Post("/payments", controllers.CreatePayment(svcs.Payments, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", ordercontrollers.Detail(svcs.Orders, logg))
			r.Post("/cancel", ordercontrollers.Cancel(svcs.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).
				Post("/status", ordercontrollers.UpdateStatus(svcs.Orders, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(svcs.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(svcs.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(svcs.Cart, logg))
			r.Put("/items/{itemId}", cartcontrollers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(svcs.Cart, logg))
		})
	})

	return r
}

func rateLimit(policy middleware.RateLimitPolicy, limiter *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(policy, limiter, logg)
}
