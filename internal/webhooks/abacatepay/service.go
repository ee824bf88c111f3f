package abacatewebhook

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
)

type ServiceParams struct {
	OrdersRepo orders.Repository
	Reconciler reconcile.Service
}

type Service struct {
	ordersRepo orders.Repository
	reconciler reconcile.Service
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciler required")
	}
	return &Service{
		ordersRepo: params.OrdersRepo,
		reconciler: params.Reconciler,
	}, nil
}

// Event is the payload AbacatePay posts to the webhook endpoint.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}

// EventID resolves the idempotency key for the delivery. Events without an
// explicit id fall back to type+transaction so replays still collapse.
func (e Event) EventID() string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id
	}
	if e.Data.TransactionID != "" {
		return e.Type + ":" + e.Data.TransactionID
	}
	return e.Type + ":" + e.Data.OrderID
}

// HandleEvent maps the event onto a gateway status and feeds the reconciler.
// Event types this service does not know are acknowledged and ignored so the
// gateway does not retry them forever.
func (s *Service) HandleEvent(ctx context.Context, event *Event) (*reconcile.Transition, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}

	var status enums.GatewayStatus
	switch strings.ToLower(strings.TrimSpace(event.Type)) {
	case "payment.succeeded":
		status = enums.GatewayStatusPaid
	case "payment.failed":
		status = enums.GatewayStatusFailed
	case "payment.processing":
		status = enums.GatewayStatusProcessing
	case "payment.expired":
		status = enums.GatewayStatusExpired
	default:
		return nil, nil
	}

	if event.Data.TransactionID != "" {
		return s.reconciler.ApplyByTransaction(ctx, event.Data.TransactionID, status, "webhook")
	}

	orderID, err := uuid.Parse(strings.TrimSpace(event.Data.OrderID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event carries no usable order reference")
	}
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return s.reconciler.Apply(ctx, order, status, "webhook")
}
