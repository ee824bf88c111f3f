package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	"github.com/adesivalab/adesiva-backend/pkg/abacatepay"
	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
)

const (
	defaultSweepBatch     = 100
	defaultStaleAfterMins = 1
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type awaitingGatewayReader interface {
	FindAwaitingGateway(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type statusChecker interface {
	CheckPixStatus(ctx context.Context, transactionID string) (*abacatepay.PaymentStatus, error)
	CheckBillingStatus(ctx context.Context, billingID string) (*abacatepay.PaymentStatus, error)
}

type orderReconciler interface {
	Apply(ctx context.Context, order *models.Order, status enums.GatewayStatus, source string) (*reconcile.Transition, error)
}

// PaymentSweepJobParams configure the stuck-payment sweep.
type PaymentSweepJobParams struct {
	Logger     *logger.Logger
	Orders     awaitingGatewayReader
	Gateway    statusChecker
	Reconciler orderReconciler
	Batch      int
	StaleAfter time.Duration
}

// NewPaymentSweepJob re-checks orders that have a gateway transaction but no
// terminal payment status yet. It backstops lost webhooks and abandoned
// polling sessions.
func NewPaymentSweepJob(params PaymentSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfterMins * time.Minute
	}
	return &paymentSweepJob{
		logg:       params.Logger,
		orders:     params.Orders,
		gateway:    params.Gateway,
		reconciler: params.Reconciler,
		batch:      batch,
		staleAfter: staleAfter,
		now:        time.Now,
	}, nil
}

type paymentSweepJob struct {
	logg       *logger.Logger
	orders     awaitingGatewayReader
	gateway    statusChecker
	reconciler orderReconciler
	batch      int
	staleAfter time.Duration
	now        func() time.Time
}

func (j *paymentSweepJob) Name() string { return "payment-sweep" }

func (j *paymentSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	rows, err := j.orders.FindAwaitingGateway(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("load awaiting orders: %w", err)
	}

	var errs error
	swept, advanced := 0, 0
	for i := range rows {
		order := rows[i]
		transition, sweepErr := j.sweepOrder(ctx, &order)
		if sweepErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, sweepErr))
			continue
		}
		swept++
		if transition != nil && transition.Changed {
			advanced++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":   cutoff,
		"batch":    len(rows),
		"swept":    swept,
		"advanced": advanced,
	})
	j.logg.Info(logCtx, "payment sweep complete")
	return errs
}

func (j *paymentSweepJob) sweepOrder(ctx context.Context, order *models.Order) (*reconcile.Transition, error) {
	var report *abacatepay.PaymentStatus
	var err error
	switch order.PaymentMethod {
	case enums.PaymentMethodPix:
		report, err = j.gateway.CheckPixStatus(ctx, order.GatewayTransactionID)
	case enums.PaymentMethodBoleto:
		report, err = j.gateway.CheckBillingStatus(ctx, order.GatewayTransactionID)
	default:
		// card orders are confirmed by the processor webhook, not by polling
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	status := report.Status
	if status == enums.GatewayStatusPending && report.ExpiresAt != nil && report.ExpiresAt.Before(j.now().UTC()) {
		status = enums.GatewayStatusExpired
	}
	return j.reconciler.Apply(ctx, order, status, "sweep")
}
