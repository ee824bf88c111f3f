package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adesivalab/adesiva-backend/api/controllers"
	webhookcontrollers "github.com/adesivalab/adesiva-backend/api/controllers/webhooks"
	"github.com/adesivalab/adesiva-backend/api/middleware"
	checkoutsvc "github.com/adesivalab/adesiva-backend/internal/checkout"
	"github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/internal/pending"
	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	abacatewebhook "github.com/adesivalab/adesiva-backend/internal/webhooks/abacatepay"
	stripewebhook "github.com/adesivalab/adesiva-backend/internal/webhooks/stripe"
	pkgauth "github.com/adesivalab/adesiva-backend/pkg/auth"
	"github.com/adesivalab/adesiva-backend/pkg/config"
	"github.com/adesivalab/adesiva-backend/pkg/db"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/adesivalab/adesiva-backend/pkg/metrics"
	"github.com/adesivalab/adesiva-backend/pkg/redis"
	"github.com/adesivalab/adesiva-backend/pkg/stripe"
)

// Deps carries everything the HTTP surface needs wired in.
type Deps struct {
	Config              *config.Config
	Logger              *logger.Logger
	DB                  db.Pinger
	Redis               *redis.Client
	CheckoutService     checkoutsvc.Service
	OrdersService       orders.Service
	PendingService      pending.Service
	ReconcileService    reconcile.Service
	StripeClient        *stripe.Client
	StripeWebhookSvc    *stripewebhook.Service
	StripeWebhookGuard  *abacatewebhook.IdempotencyGuard
	AbacateWebhookSvc   *abacatewebhook.Service
	AbacateWebhookGuard *abacatewebhook.IdempotencyGuard
	PaymentMetrics      *metrics.PaymentMetrics
	PrometheusRegistry  *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.PrometheusRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PrometheusRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/abacatepay", webhookcontrollers.AbacatePayWebhook(deps.AbacateWebhookSvc, cfg.AbacatePay.WebhookSecret, deps.AbacateWebhookGuard, deps.PaymentMetrics, logg))
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhookSvc, deps.StripeClient, deps.StripeWebhookGuard, deps.PaymentMetrics, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersService, logg))
			r.With(middleware.RefreshRateLimit(cfg.RateLimit, deps.Redis, logg)).
				Post("/{orderId}/refresh-status", controllers.OrderRefreshStatus(deps.ReconcileService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(pkgauth.RoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.OrdersService, logg))
			r.Patch("/{orderId}", controllers.AdminOrderPatch(deps.OrdersService, logg))
		})
		r.Route("/pending-checkouts", func(r chi.Router) {
			r.Get("/", controllers.AdminPendingCheckoutList(deps.PendingService, logg))
			r.Post("/{pendingId}/contacted", controllers.AdminPendingCheckoutContacted(deps.PendingService, logg))
			r.Post("/{pendingId}/notes", controllers.AdminPendingCheckoutNote(deps.PendingService, logg))
		})
	})

	return r
}
