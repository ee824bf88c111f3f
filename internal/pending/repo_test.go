package pending

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

func setupPendingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS pending_checkouts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT,
  payment_method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_cents INTEGER NOT NULL,
  items TEXT,
  shipping_address TEXT,
  pix_artifacts TEXT,
  notes TEXT,
  gateway_transaction_id TEXT,
  order_id TEXT,
  contacted INTEGER NOT NULL DEFAULT 0,
  contacted_at DATETIME,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedPending(t *testing.T, db *gorm.DB, status enums.PendingCheckoutStatus, expires *time.Time) *models.PendingCheckout {
	t.Helper()
	record := &models.PendingCheckout{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		CustomerName:  "Bruna Lima",
		CustomerEmail: "bruna@example.com",
		PaymentMethod: enums.PaymentMethodPix,
		Status:        status,
		TotalCents:    4500,
		Items: models.PendingCheckoutItems{
			{ProductID: "p1", ProductName: "Sticker pack", Quantity: 3, UnitPriceCents: 1500},
		},
		ExpiresAt: expires,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

func TestCreateAndFindPending(t *testing.T) {
	db := setupPendingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	record, err := repo.Create(ctx, &models.PendingCheckout{
		UserID:               uuid.New(),
		CustomerName:         "Bruna Lima",
		CustomerEmail:        "bruna@example.com",
		PaymentMethod:        enums.PaymentMethodPix,
		Status:               enums.PendingCheckoutStatusPending,
		TotalCents:           1500,
		GatewayTransactionID: "pix_char_77",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, record.ID)

	found, err := repo.FindByGatewayTransactionID(ctx, "pix_char_77")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
}

func TestLegacySingleObjectSnapshotNormalizes(t *testing.T) {
	db := setupPendingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	id := uuid.New()
	legacy := `{"product_id":"p9","product_name":"Vinil","quantity":1,"unit_price_cents":2500}`
	require.NoError(t, db.Exec(`
INSERT INTO pending_checkouts (id, user_id, customer_name, customer_email, payment_method, status, total_cents, items, created_at, updated_at)
VALUES (?, ?, 'Caio', 'caio@example.com', 'pix', 'pending', 2500, ?, ?, ?)`,
		id.String(), uuid.NewString(), legacy, time.Now(), time.Now()).Error)

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "p9", found.Items[0].ProductID)
	assert.Equal(t, 1, found.Items[0].Quantity)
}

func TestListFilters(t *testing.T) {
	db := setupPendingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	pending := seedPending(t, db, enums.PendingCheckoutStatusPending, nil)
	expired := seedPending(t, db, enums.PendingCheckoutStatusExpired, nil)
	require.NoError(t, repo.Update(ctx, expired.ID, map[string]any{"contacted": true}))

	status := enums.PendingCheckoutStatusPending
	list, err := repo.List(ctx, pagination.Params{}, Filters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.PendingCheckouts, 1)
	assert.Equal(t, pending.ID, list.PendingCheckouts[0].ID)

	contacted := true
	list, err = repo.List(ctx, pagination.Params{}, Filters{Contacted: &contacted})
	require.NoError(t, err)
	require.Len(t, list.PendingCheckouts, 1)
	assert.Equal(t, expired.ID, list.PendingCheckouts[0].ID)
}

func TestFindExpiredPending(t *testing.T) {
	db := setupPendingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	stale := seedPending(t, db, enums.PendingCheckoutStatusPending, &past)
	seedPending(t, db, enums.PendingCheckoutStatusPending, &future)
	seedPending(t, db, enums.PendingCheckoutStatusPaid, &past)

	rows, err := repo.FindExpiredPending(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)
}
