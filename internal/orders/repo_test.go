package orders

import (
	"context"
	"testing"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT,
  customer_tax_id TEXT,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  order_status TEXT NOT NULL DEFAULT 'pending',
  subtotal_cents INTEGER NOT NULL,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  shipping_address TEXT,
  tracking_info TEXT,
  pix_artifacts TEXT,
  gateway_provider TEXT,
  gateway_transaction_id TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  image_url TEXT,
  customization TEXT,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, number string, created time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   number,
		UserID:        userID,
		CustomerName:  "Ana Souza",
		CustomerEmail: "ana@example.com",
		PaymentMethod: enums.PaymentMethodPix,
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPending,
		SubtotalCents: 2000,
		TotalCents:    2000,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestCreateAndFindOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order, err := repo.Create(ctx, &models.Order{
		OrderNumber:          "PED-0001",
		UserID:               uuid.New(),
		CustomerName:         "Ana Souza",
		CustomerEmail:        "ana@example.com",
		PaymentMethod:        enums.PaymentMethodPix,
		PaymentStatus:        enums.PaymentStatusPending,
		OrderStatus:          enums.OrderStatusPending,
		SubtotalCents:        1980,
		TotalCents:           1980,
		GatewayTransactionID: "pix_char_abc",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, order.ID)

	require.NoError(t, repo.CreateLineItems(ctx, []models.OrderLineItem{
		{OrderID: order.ID, ProductID: "p1", ProductName: "Sticker pack", Quantity: 2, UnitPriceCents: 990, TotalCents: 1980},
	}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "PED-0001", found.OrderNumber)
	assert.Len(t, found.LineItems, 1)

	byTx, err := repo.FindByGatewayTransactionID(ctx, "pix_char_abc")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byTx.ID)

	byNumber, err := repo.FindByOrderNumber(ctx, "PED-0001")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestListByUserPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrder(t, db, userID, uuid.NewString()[:8], base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, db, uuid.New(), "other-user", base)

	page, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)

	next, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Orders, 1)
	assert.Empty(t, next.NextCursor)

	// Newest first.
	assert.True(t, page.Orders[0].CreatedAt.After(page.Orders[1].CreatedAt))
}

func TestListAdminFilters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	paid := seedOrder(t, db, uuid.New(), "PED-0100", time.Now().Add(-time.Minute))
	require.NoError(t, repo.Update(ctx, paid.ID, map[string]any{"payment_status": enums.PaymentStatusCompleted}))
	seedOrder(t, db, uuid.New(), "PED-0101", time.Now())

	status := enums.PaymentStatusCompleted
	page, err := repo.ListAdmin(ctx, pagination.Params{}, OrderFilters{PaymentStatus: &status})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, paid.ID, page.Orders[0].ID)

	byQuery, err := repo.ListAdmin(ctx, pagination.Params{}, OrderFilters{Query: "PED-0101"})
	require.NoError(t, err)
	require.Len(t, byQuery.Orders, 1)
}

func TestFindAwaitingGateway(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	stale := seedOrder(t, db, uuid.New(), "PED-0200", time.Now().Add(-2*time.Hour))
	require.NoError(t, repo.Update(ctx, stale.ID, map[string]any{"gateway_transaction_id": "pix_char_1"}))

	recent := seedOrder(t, db, uuid.New(), "PED-0201", time.Now())
	require.NoError(t, repo.Update(ctx, recent.ID, map[string]any{"gateway_transaction_id": "pix_char_2"}))

	done := seedOrder(t, db, uuid.New(), "PED-0202", time.Now().Add(-3*time.Hour))
	require.NoError(t, repo.Update(ctx, done.ID, map[string]any{
		"gateway_transaction_id": "pix_char_3",
		"payment_status":         enums.PaymentStatusCompleted,
	}))

	rows, err := repo.FindAwaitingGateway(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)
}
