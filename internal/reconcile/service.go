package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/pkg/abacatepay"
	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/adesivalab/adesiva-backend/pkg/metrics"
	"github.com/adesivalab/adesiva-backend/pkg/outbox"
	"github.com/adesivalab/adesiva-backend/pkg/outbox/payloads"
	"github.com/adesivalab/adesiva-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type pendingConverger interface {
	MarkPaidByTransaction(ctx context.Context, tx *gorm.DB, transactionID string, orderID uuid.UUID) error
}

// Transition reports what a reconciliation pass did to an order.
type Transition struct {
	OrderID       uuid.UUID           `json:"order_id"`
	GatewayStatus enums.GatewayStatus `json:"gateway_status"`
	From          enums.PaymentStatus `json:"from"`
	To            enums.PaymentStatus `json:"to"`
	OrderStatus   enums.OrderStatus   `json:"order_status"`
	Changed       bool                `json:"changed"`
}

// Service maps gateway status reports onto order state. All three entry
// points (webhook, polling, sweep) funnel through the same Apply so the
// no-regression rule holds everywhere.
type Service interface {
	Apply(ctx context.Context, order *models.Order, status enums.GatewayStatus, source string) (*Transition, error)
	ApplyByTransaction(ctx context.Context, transactionID string, status enums.GatewayStatus, source string) (*Transition, error)
	RefreshOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, *Transition, error)
}

type service struct {
	tx       txRunner
	repo     orders.Repository
	gateway  abacatepay.Gateway
	pending  pendingConverger
	outbox   outboxPublisher
	payments *metrics.PaymentMetrics
	logg     *logger.Logger
}

// NewService builds the reconciler.
func NewService(
	tx txRunner,
	repo orders.Repository,
	gateway abacatepay.Gateway,
	pendingSvc pendingConverger,
	publisher outboxPublisher,
	payments *metrics.PaymentMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if pendingSvc == nil {
		return nil, fmt.Errorf("pending checkout service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if payments == nil {
		payments = metrics.NewPaymentMetrics(nil)
	}
	return &service{
		tx:       tx,
		repo:     repo,
		gateway:  gateway,
		pending:  pendingSvc,
		outbox:   publisher,
		payments: payments,
		logg:     logg,
	}, nil
}

// Apply maps one gateway status report onto the order. Terminal payment
// states are never rewritten, which makes out-of-order and duplicate reports
// safe to replay.
func (s *service) Apply(ctx context.Context, order *models.Order, status enums.GatewayStatus, source string) (*Transition, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order is required")
	}

	transition := &Transition{
		OrderID:       order.ID,
		GatewayStatus: status,
		From:          order.PaymentStatus,
		To:            order.PaymentStatus,
		OrderStatus:   order.OrderStatus,
	}

	if order.PaymentStatus.IsTerminal() {
		s.logSkip(ctx, order, status, source, "payment status already terminal")
		return transition, nil
	}

	target, ok := targetFor(status)
	if !ok {
		s.logSkip(ctx, order, status, source, "gateway status does not advance the order")
		return transition, nil
	}

	now := time.Now().UTC()
	updates := map[string]any{"payment_status": target.payment}
	if target.order != "" {
		updates["order_status"] = target.order
	}
	if target.payment == enums.PaymentStatusCompleted {
		updates["paid_at"] = &now
		tracking := types.TrackingInfo{}
		if order.TrackingInfo != nil {
			tracking = *order.TrackingInfo
		}
		tracking.LastUpdated = &now
		updates["tracking_info"] = &tracking
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, order.ID, updates); err != nil {
			return err
		}
		switch target.payment {
		case enums.PaymentStatusCompleted:
			if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentConfirmed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.PaymentConfirmedEvent{
					OrderID:              order.ID,
					OrderNumber:          order.OrderNumber,
					GatewayTransactionID: order.GatewayTransactionID,
					PaidAt:               now,
				},
			}); err != nil {
				return err
			}
			return s.pending.MarkPaidByTransaction(ctx, tx, order.GatewayTransactionID, order.ID)
		case enums.PaymentStatusFailed:
			return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.PaymentFailedEvent{
					OrderID:              order.ID,
					OrderNumber:          order.OrderNumber,
					GatewayTransactionID: order.GatewayTransactionID,
					GatewayStatus:        status,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	transition.To = target.payment
	if target.order != "" {
		transition.OrderStatus = target.order
	}
	transition.Changed = transition.From != transition.To || target.order != ""

	order.PaymentStatus = target.payment
	if target.order != "" {
		order.OrderStatus = target.order
	}
	if target.payment == enums.PaymentStatusCompleted {
		order.PaidAt = &now
	}

	s.payments.IncTransition(string(transition.From), string(transition.To))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":       order.ID.String(),
		"gateway_status": status,
		"from":           transition.From,
		"to":             transition.To,
		"source":         source,
	})
	s.logg.Info(logCtx, "payment status reconciled")
	return transition, nil
}

// ApplyByTransaction resolves the order by its stored gateway id first. Used
// by the webhook path, which only knows the transaction.
func (s *service) ApplyByTransaction(ctx context.Context, transactionID string, status enums.GatewayStatus, source string) (*Transition, error) {
	if transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	order, err := s.repo.FindByGatewayTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for transaction")
		}
		return nil, err
	}
	return s.Apply(ctx, order, status, source)
}

// RefreshOrder is the polling path. It re-checks the gateway using the id
// stored on the order, never a client-supplied status.
func (s *service) RefreshOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, *Transition, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, nil, err
	}
	if userID != uuid.Nil && order.UserID != userID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	if order.PaymentStatus.IsTerminal() || order.GatewayTransactionID == "" || order.GatewayProvider != abacatepay.Provider {
		transition := &Transition{
			OrderID:       order.ID,
			GatewayStatus: "",
			From:          order.PaymentStatus,
			To:            order.PaymentStatus,
			OrderStatus:   order.OrderStatus,
		}
		return order, transition, nil
	}

	var report *abacatepay.PaymentStatus
	switch order.PaymentMethod {
	case enums.PaymentMethodPix:
		report, err = s.gateway.CheckPixStatus(ctx, order.GatewayTransactionID)
	default:
		report, err = s.gateway.CheckBillingStatus(ctx, order.GatewayTransactionID)
	}
	if err != nil {
		return nil, nil, err
	}

	status := report.Status
	if status == enums.GatewayStatusPending && report.ExpiresAt != nil && report.ExpiresAt.Before(time.Now().UTC()) {
		status = enums.GatewayStatusExpired
	}

	transition, err := s.Apply(ctx, order, status, "poll")
	if err != nil {
		return nil, nil, err
	}
	return order, transition, nil
}

type mappedTarget struct {
	payment enums.PaymentStatus
	order   enums.OrderStatus
}

// targetFor translates the gateway vocabulary into the internal pair. The
// gateway status is never stored verbatim.
func targetFor(status enums.GatewayStatus) (mappedTarget, bool) {
	switch status {
	case enums.GatewayStatusPaid, enums.GatewayStatusCompleted:
		return mappedTarget{payment: enums.PaymentStatusCompleted, order: enums.OrderStatusProcessing}, true
	case enums.GatewayStatusFailed, enums.GatewayStatusCancelled, enums.GatewayStatusExpired:
		return mappedTarget{payment: enums.PaymentStatusFailed, order: enums.OrderStatusCancelled}, true
	case enums.GatewayStatusProcessing:
		return mappedTarget{payment: enums.PaymentStatusProcessing}, true
	default:
		return mappedTarget{}, false
	}
}

func (s *service) logSkip(ctx context.Context, order *models.Order, status enums.GatewayStatus, source, reason string) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":       order.ID.String(),
		"gateway_status": status,
		"payment_status": order.PaymentStatus,
		"source":         source,
	})
	s.logg.Info(logCtx, "reconcile skipped: "+reason)
}
