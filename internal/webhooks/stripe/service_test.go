package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
)

type stubReconciler struct {
	reconcile.Service
	byTxn   []string
	applied []enums.GatewayStatus
}

func (s *stubReconciler) ApplyByTransaction(ctx context.Context, transactionID string, status enums.GatewayStatus, source string) (*reconcile.Transition, error) {
	s.byTxn = append(s.byTxn, transactionID)
	s.applied = append(s.applied, status)
	return &reconcile.Transition{GatewayStatus: status, Changed: true}, nil
}

func sessionEvent(t *testing.T, eventType, sessionID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": sessionID})
	require.NoError(t, err)
	return &stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventSessionCompleted(t *testing.T) {
	rec := &stubReconciler{}
	svc, err := NewService(ServiceParams{Reconciler: rec})
	require.NoError(t, err)

	transition, err := svc.HandleEvent(context.Background(), sessionEvent(t, "checkout.session.completed", "cs_test_1"))
	require.NoError(t, err)
	require.NotNil(t, transition)
	assert.Equal(t, []string{"cs_test_1"}, rec.byTxn)
	assert.Equal(t, []enums.GatewayStatus{enums.GatewayStatusPaid}, rec.applied)
}

func TestHandleEventSessionExpired(t *testing.T) {
	rec := &stubReconciler{}
	svc, err := NewService(ServiceParams{Reconciler: rec})
	require.NoError(t, err)

	_, err = svc.HandleEvent(context.Background(), sessionEvent(t, "checkout.session.expired", "cs_test_2"))
	require.NoError(t, err)
	assert.Equal(t, []enums.GatewayStatus{enums.GatewayStatusExpired}, rec.applied)
}

func TestHandleEventIgnoresOtherObjects(t *testing.T) {
	rec := &stubReconciler{}
	svc, err := NewService(ServiceParams{Reconciler: rec})
	require.NoError(t, err)

	transition, err := svc.HandleEvent(context.Background(), sessionEvent(t, "invoice.paid", "in_test_1"))
	require.NoError(t, err)
	assert.Nil(t, transition)
	assert.Empty(t, rec.byTxn)
}

func TestHandleEventRejectsMissingSessionID(t *testing.T) {
	rec := &stubReconciler{}
	svc, err := NewService(ServiceParams{Reconciler: rec})
	require.NoError(t, err)

	_, err = svc.HandleEvent(context.Background(), sessionEvent(t, "checkout.session.completed", ""))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
