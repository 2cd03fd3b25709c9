package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokrilabs/tokri-backend/api/controllers"
	"github.com/tokrilabs/tokri-backend/api/middleware"
	"github.com/tokrilabs/tokri-backend/internal/addresses"
	cartsvc "github.com/tokrilabs/tokri-backend/internal/cart"
	checkoutsvc "github.com/tokrilabs/tokri-backend/internal/checkout"
	"github.com/tokrilabs/tokri-backend/internal/notifications"
	ordersvc "github.com/tokrilabs/tokri-backend/internal/orders"
	paymentsvc "github.com/tokrilabs/tokri-backend/internal/payments"
	"github.com/tokrilabs/tokri-backend/internal/pricing"
	"github.com/tokrilabs/tokri-backend/pkg/config"
	"github.com/tokrilabs/tokri-backend/pkg/db"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
	"github.com/tokrilabs/tokri-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	calc *pricing.Calculator,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService ordersvc.Service,
	paymentsService paymentsvc.Service,
	addressRepo addresses.Repository,
	notificationRepo notifications.Repository,
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

	// The gateway calls back without credentials; signature verification is
	// the auth for this route.
	r.Post("/api/v1/payments/verify", controllers.PaymentVerify(paymentsService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, calc, logg))
			r.Post("/items", controllers.CartAddItem(cartService, calc, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(cartService, calc, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, calc, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.Checkout(checkoutService, logg))
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/{orderNumber}", controllers.OrderDetail(ordersService, logg))
		})

		r.Post("/payments/{orderNumber}/fail", controllers.PaymentFail(paymentsService, logg))

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(addressRepo, logg))
			r.Post("/", controllers.AddressCreate(addressRepo, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationRepo, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationRepo, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Patch("/orders/{orderNumber}/status", controllers.AdminUpdateOrderStatus(ordersService, logg))
		})
	})

	return r
}
