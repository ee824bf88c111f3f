package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/adesivalab/adesiva-backend/internal/cron"
	"github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/internal/pending"
	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	"github.com/adesivalab/adesiva-backend/pkg/abacatepay"
	"github.com/adesivalab/adesiva-backend/pkg/config"
	"github.com/adesivalab/adesiva-backend/pkg/db"
	"github.com/adesivalab/adesiva-backend/pkg/instance"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/adesivalab/adesiva-backend/pkg/metrics"
	"github.com/adesivalab/adesiva-backend/pkg/migrate"
	"github.com/adesivalab/adesiva-backend/pkg/outbox"
	"github.com/adesivalab/adesiva-backend/pkg/redis"
)

const (
	lockKeyFormat       = "adesiva:cron-worker:lock:%s:%s"
	outboxRetentionDays = 30
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	var gateway abacatepay.Gateway
	if cfg.AbacatePay.IsMock() {
		logg.Warn(context.Background(), "using mock payment gateway")
		gateway = abacatepay.NewMockGateway(context.Background(), logg)
	} else {
		gateway, err = abacatepay.NewClient(context.Background(), cfg.AbacatePay, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap payment gateway", err)
			os.Exit(1)
		}
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	pendingRepo := pending.NewRepository(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outboxRepo, logg)

	pendingSvc, err := pending.NewService(pendingRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create pending checkout service", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	payments := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	reconcileSvc, err := reconcile.NewService(dbClient, ordersRepo, gateway, pendingSvc, outboxSvc, payments, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewPaymentSweepJob(cron.PaymentSweepJobParams{
		Logger:     logg,
		Orders:     ordersRepo,
		Gateway:    gateway,
		Reconciler: reconcileSvc,
		Batch:      cfg.Reconcile.SweepBatch,
		StaleAfter: time.Duration(cfg.Reconcile.StaleAfterMin) * time.Minute,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment sweep job", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewPendingExpiryJob(cron.PendingExpiryJobParams{
		Logger: logg,
		DB:     dbClient,
		Repo:   pendingRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pending expiry job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  outboxRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	schedules := []schedule{
		{name: "payment-sweep", job: sweepJob, interval: cfg.Reconcile.Interval},
		{name: "pending-expiry", job: expiryJob, interval: cfg.Reconcile.PendingSweep},
		{name: "outbox-retention", job: retentionJob, interval: 24 * time.Hour},
	}

	services := make([]*cron.Service, 0, len(schedules))
	for _, sched := range schedules {
		lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env, sched.name), cfg.Reconcile.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		service, err := cron.NewService(cron.ServiceParams{
			Logger:   logg,
			Registry: cron.NewRegistry(sched.job),
			Lock:     lock,
			Metrics:  jobMetrics,
			Interval: sched.interval,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create cron service", err)
			os.Exit(1)
		}
		services = append(services, service)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, service := range services {
		wg.Add(1)
		go func(svc *cron.Service) {
			defer wg.Done()
			if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(service)
	}
	wg.Wait()

	if errs != nil {
		logg.Error(ctx, "cron worker stopped unexpectedly", errs)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

type schedule struct {
	name     string
	job      cron.Job
	interval time.Duration
}

func lockKey(env, name string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env, name)
}
