package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
)

type ServiceParams struct {
	Reconciler reconcile.Service
}

// Service turns Stripe checkout session events into reconciliation calls.
// The session id is the gateway transaction id stored on card orders.
type Service struct {
	reconciler reconcile.Service
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciler required")
	}
	return &Service{reconciler: params.Reconciler}, nil
}

// HandleEvent processes checkout session lifecycle events. Events for other
// Stripe objects are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (*reconcile.Transition, error) {
	if event == nil || event.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe event required")
	}

	var status enums.GatewayStatus
	switch string(event.Type) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		status = enums.GatewayStatusPaid
	case "checkout.session.async_payment_failed":
		status = enums.GatewayStatusFailed
	case "checkout.session.expired":
		status = enums.GatewayStatusExpired
	default:
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	return s.reconciler.ApplyByTransaction(ctx, session.ID, status, "webhook")
}
