package reconcile

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/pkg/abacatepay"
	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/adesivalab/adesiva-backend/pkg/outbox"
	"github.com/adesivalab/adesiva-backend/pkg/types"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOrdersRepo struct {
	orders.Repository
	byID    map[uuid.UUID]*models.Order
	byTxnID map[string]*models.Order
	updates []map[string]any
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{}, byTxnID: map[string]*models.Order{}}
}

func (s *stubOrdersRepo) add(order *models.Order) {
	s.byID[order.ID] = order
	if order.GatewayTransactionID != "" {
		s.byTxnID[order.GatewayTransactionID] = order
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *order
	return &copy, nil
}

func (s *stubOrdersRepo) FindByGatewayTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	order, ok := s.byTxnID[transactionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *order
	return &copy, nil
}

func (s *stubOrdersRepo) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.updates = append(s.updates, updates)
	order := s.byID[orderID]
	if status, ok := updates["payment_status"].(enums.PaymentStatus); ok {
		order.PaymentStatus = status
	}
	if status, ok := updates["order_status"].(enums.OrderStatus); ok {
		order.OrderStatus = status
	}
	if paidAt, ok := updates["paid_at"].(*time.Time); ok {
		order.PaidAt = paidAt
	}
	if tracking, ok := updates["tracking_info"].(*types.TrackingInfo); ok {
		order.TrackingInfo = tracking
	}
	return nil
}

type stubGateway struct {
	abacatepay.Gateway
	status    enums.GatewayStatus
	expiresAt *time.Time
	pixCalls  int
	billCalls int
}

func (s *stubGateway) CheckPixStatus(ctx context.Context, transactionID string) (*abacatepay.PaymentStatus, error) {
	s.pixCalls++
	return &abacatepay.PaymentStatus{ID: transactionID, Status: s.status, ExpiresAt: s.expiresAt}, nil
}

func (s *stubGateway) CheckBillingStatus(ctx context.Context, billingID string) (*abacatepay.PaymentStatus, error) {
	s.billCalls++
	return &abacatepay.PaymentStatus{ID: billingID, Status: s.status, ExpiresAt: s.expiresAt}, nil
}

type stubConverger struct {
	calls []string
}

func (s *stubConverger) MarkPaidByTransaction(ctx context.Context, tx *gorm.DB, transactionID string, orderID uuid.UUID) error {
	s.calls = append(s.calls, transactionID)
	return nil
}

type stubPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range s.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	s.events = append(s.events, event)
	return nil
}

type fixture struct {
	svc       Service
	repo      *stubOrdersRepo
	gateway   *stubGateway
	converger *stubConverger
	publisher *stubPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubOrdersRepo()
	gateway := &stubGateway{status: enums.GatewayStatusPending}
	converger := &stubConverger{}
	publisher := &stubPublisher{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(stubTxRunner{}, repo, gateway, converger, publisher, nil, logg)
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, gateway: gateway, converger: converger, publisher: publisher}
}

func pendingOrder(method enums.PaymentMethod, transactionID string) *models.Order {
	return &models.Order{
		ID:                   uuid.New(),
		OrderNumber:          "ADS-20250901-TEST",
		UserID:               uuid.New(),
		PaymentMethod:        method,
		PaymentStatus:        enums.PaymentStatusPending,
		OrderStatus:          enums.OrderStatusPending,
		GatewayProvider:      "abacatepay",
		GatewayTransactionID: transactionID,
	}
}

func TestApplyPaidCompletesOrder(t *testing.T) {
	f := newFixture(t)
	order := pendingOrder(enums.PaymentMethodPix, "pix_char_1")
	f.repo.add(order)

	transition, err := f.svc.Apply(context.Background(), order, enums.GatewayStatusPaid, "webhook")
	require.NoError(t, err)

	assert.True(t, transition.Changed)
	assert.Equal(t, enums.PaymentStatusCompleted, transition.To)
	assert.Equal(t, enums.OrderStatusProcessing, transition.OrderStatus)

	stored := f.repo.byID[order.ID]
	assert.Equal(t, enums.PaymentStatusCompleted, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusProcessing, stored.OrderStatus)
	require.NotNil(t, stored.PaidAt)
	require.NotNil(t, stored.TrackingInfo)
	require.NotNil(t, stored.TrackingInfo.LastUpdated)
	assert.WithinDuration(t, time.Now().UTC(), *stored.TrackingInfo.LastUpdated, 5*time.Second)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, enums.EventPaymentConfirmed, f.publisher.events[0].EventType)
	assert.Equal(t, []string{"pix_char_1"}, f.converger.calls)
}

func TestApplyFailureCancelsOrder(t *testing.T) {
	f := newFixture(t)
	order := pendingOrder(enums.PaymentMethodBoleto, "bill_1")
	f.repo.add(order)

	transition, err := f.svc.Apply(context.Background(), order, enums.GatewayStatusCancelled, "webhook")
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusFailed, transition.To)
	assert.Equal(t, enums.OrderStatusCancelled, transition.OrderStatus)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, enums.EventPaymentFailed, f.publisher.events[0].EventType)
	assert.Empty(t, f.converger.calls)
}

func TestApplyProcessingLeavesOrderStatus(t *testing.T) {
	f := newFixture(t)
	order := pendingOrder(enums.PaymentMethodPix, "pix_char_2")
	f.repo.add(order)

	transition, err := f.svc.Apply(context.Background(), order, enums.GatewayStatusProcessing, "poll")
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusProcessing, transition.To)
	assert.Equal(t, enums.OrderStatusPending, f.repo.byID[order.ID].OrderStatus)
	assert.Empty(t, f.publisher.events)
}

func TestTerminalStateNeverRegresses(t *testing.T) {
	f := newFixture(t)
	order := pendingOrder(enums.PaymentMethodPix, "pix_char_3")
	f.repo.add(order)

	_, err := f.svc.Apply(context.Background(), order, enums.GatewayStatusPaid, "webhook")
	require.NoError(t, err)

	// out-of-order delivery after confirmation
	for _, late := range []enums.GatewayStatus{
		enums.GatewayStatusProcessing,
		enums.GatewayStatusPending,
		enums.GatewayStatusFailed,
	} {
		transition, err := f.svc.Apply(context.Background(), order, late, "webhook")
		require.NoError(t, err)
		assert.False(t, transition.Changed, "late %s must be a no-op", late)
		assert.Equal(t, enums.PaymentStatusCompleted, f.repo.byID[order.ID].PaymentStatus)
	}
}

func TestApplyByTransactionUnknownID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ApplyByTransaction(context.Background(), "pix_char_missing", enums.GatewayStatusPaid, "webhook")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRefreshOrderChecksGatewayByStoredID(t *testing.T) {
	f := newFixture(t)
	f.gateway.status = enums.GatewayStatusPaid
	order := pendingOrder(enums.PaymentMethodPix, "pix_char_4")
	f.repo.add(order)

	refreshed, transition, err := f.svc.RefreshOrder(context.Background(), order.UserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.gateway.pixCalls)
	assert.Equal(t, enums.PaymentStatusCompleted, refreshed.PaymentStatus)
	assert.True(t, transition.Changed)
}

func TestRefreshOrderHidesOtherUsers(t *testing.T) {
	f := newFixture(t)
	order := pendingOrder(enums.PaymentMethodPix, "pix_char_5")
	f.repo.add(order)

	_, _, err := f.svc.RefreshOrder(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Zero(t, f.gateway.pixCalls)
}

func TestRefreshOrderExpiredPixMapsToFailed(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour).UTC()
	f.gateway.status = enums.GatewayStatusPending
	f.gateway.expiresAt = &past
	order := pendingOrder(enums.PaymentMethodPix, "pix_char_6")
	f.repo.add(order)

	_, transition, err := f.svc.RefreshOrder(context.Background(), order.UserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayStatusExpired, transition.GatewayStatus)
	assert.Equal(t, enums.PaymentStatusFailed, f.repo.byID[order.ID].PaymentStatus)
}

func TestRefreshOrderSkipsCardOrders(t *testing.T) {
	f := newFixture(t)
	order := pendingOrder(enums.PaymentMethodCreditCard, "cs_test_1")
	order.GatewayProvider = "stripe"
	f.repo.add(order)

	refreshed, transition, err := f.svc.RefreshOrder(context.Background(), order.UserID, order.ID)
	require.NoError(t, err)
	assert.False(t, transition.Changed)
	assert.Equal(t, enums.PaymentStatusPending, refreshed.PaymentStatus)
	assert.Zero(t, f.gateway.pixCalls)
	assert.Zero(t, f.gateway.billCalls)
}
