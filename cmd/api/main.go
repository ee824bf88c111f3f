package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/adesivalab/adesiva-backend/api/routes"
	checkoutsvc "github.com/adesivalab/adesiva-backend/internal/checkout"
	"github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/internal/pending"
	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	abacatewebhook "github.com/adesivalab/adesiva-backend/internal/webhooks/abacatepay"
	stripewebhook "github.com/adesivalab/adesiva-backend/internal/webhooks/stripe"
	"github.com/adesivalab/adesiva-backend/pkg/config"
	"github.com/adesivalab/adesiva-backend/pkg/db"
	"github.com/adesivalab/adesiva-backend/pkg/instance"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/adesivalab/adesiva-backend/pkg/metrics"
	"github.com/adesivalab/adesiva-backend/pkg/migrate"
	"github.com/adesivalab/adesiva-backend/pkg/outbox"
	"github.com/adesivalab/adesiva-backend/pkg/redis"
	"github.com/adesivalab/adesiva-backend/pkg/stripe"
)

const webhookGuardTTL = 48 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := newGateway(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payment gateway", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	payments := metrics.NewPaymentMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	pendingRepo := pending.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersSvc, err := orders.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	pendingSvc, err := pending.NewService(pendingRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create pending checkout service", err)
		os.Exit(1)
	}

	reconcileSvc, err := reconcile.NewService(dbClient, ordersRepo, gateway, pendingSvc, outboxSvc, payments, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkoutsvc.NewService(
		dbClient,
		ordersRepo,
		pendingRepo,
		gateway,
		stripeClient,
		outboxSvc,
		checkoutsvc.Config{
			PixExpiry:  time.Duration(cfg.AbacatePay.PixExpiryMin) * time.Minute,
			Storefront: cfg.Checkout,
		},
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	abacateWebhookSvc, err := abacatewebhook.NewService(abacatewebhook.ServiceParams{
		OrdersRepo: ordersRepo,
		Reconciler: reconcileSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create abacatepay webhook service", err)
		os.Exit(1)
	}

	stripeWebhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Reconciler: reconcileSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	abacateGuard, err := abacatewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "abacatepay")
	if err != nil {
		logg.Error(context.Background(), "failed to create abacatepay webhook guard", err)
		os.Exit(1)
	}
	stripeGuard, err := abacatewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:              cfg,
			Logger:              logg,
			DB:                  dbClient,
			Redis:               redisClient,
			CheckoutService:     checkoutSvc,
			OrdersService:       ordersSvc,
			PendingService:      pendingSvc,
			ReconcileService:    reconcileSvc,
			StripeClient:        stripeClient,
			StripeWebhookSvc:    stripeWebhookSvc,
			StripeWebhookGuard:  stripeGuard,
			AbacateWebhookSvc:   abacateWebhookSvc,
			AbacateWebhookGuard: abacateGuard,
			PaymentMetrics:      payments,
			PrometheusRegistry:  registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
