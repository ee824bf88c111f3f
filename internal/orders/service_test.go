package orders

import (
	"context"
	"testing"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/pagination"
	"github.com/adesivalab/adesiva-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubOrdersRepo struct {
	Repository
	orders  map[uuid.UUID]*models.Order
	updates []map[string]any
	findErr error
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *order
	return &copy, nil
}

func (s *stubOrdersRepo) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.updates = append(s.updates, updates)
	order := s.orders[orderID]
	if status, ok := updates["payment_status"].(enums.PaymentStatus); ok {
		order.PaymentStatus = status
	}
	if status, ok := updates["order_status"].(enums.OrderStatus); ok {
		order.OrderStatus = status
	}
	return nil
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	var rows []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			rows = append(rows, *o)
		}
	}
	return &OrderList{Orders: rows}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{})
	require.NoError(t, err)
	return svc
}

func TestGetHidesOtherUsersOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	owner := uuid.New()
	order := &models.Order{ID: uuid.New(), UserID: owner}
	repo.orders[order.ID] = order
	svc := newTestService(t, repo)

	found, err := svc.Get(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.Get(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAdminPatchKeepsTerminalPaymentStatus(t *testing.T) {
	repo := newStubOrdersRepo()
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		PaymentStatus: enums.PaymentStatusCompleted,
		OrderStatus:   enums.OrderStatusProcessing,
	}
	repo.orders[order.ID] = order
	svc := newTestService(t, repo)

	pending := enums.PaymentStatusPending
	_, err := svc.AdminPatch(context.Background(), AdminPatchInput{
		OrderID:       order.ID,
		PaymentStatus: &pending,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Empty(t, repo.updates)
}

func TestAdminPatchUpdatesOrderStatusAndTracking(t *testing.T) {
	repo := newStubOrdersRepo()
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		PaymentStatus: enums.PaymentStatusCompleted,
		OrderStatus:   enums.OrderStatusProcessing,
	}
	repo.orders[order.ID] = order
	svc := newTestService(t, repo)

	completed := enums.OrderStatusCompleted
	patched, err := svc.AdminPatch(context.Background(), AdminPatchInput{
		OrderID:      order.ID,
		OrderStatus:  &completed,
		TrackingInfo: &types.TrackingInfo{Carrier: "Correios", Location: "Curitiba/PR"},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, patched.OrderStatus)
	require.NotNil(t, patched.TrackingInfo)
	require.NotNil(t, patched.TrackingInfo.LastUpdated)
	assert.WithinDuration(t, time.Now(), *patched.TrackingInfo.LastUpdated, time.Minute)
	require.Len(t, repo.updates, 1)
}

func TestAdminPatchRejectsInvalidStatus(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo())
	bogus := enums.OrderStatus("teleported")
	_, err := svc.AdminPatch(context.Background(), AdminPatchInput{
		OrderID:     uuid.New(),
		OrderStatus: &bogus,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestNewServiceValidatesDeps(t *testing.T) {
	_, err := NewService(nil, stubTxRunner{})
	require.Error(t, err)
	_, err = NewService(newStubOrdersRepo(), nil)
	require.Error(t, err)
}
