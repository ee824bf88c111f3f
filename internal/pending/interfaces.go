package pending

import (
	"context"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for pending checkout records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.PendingCheckout) (*models.PendingCheckout, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PendingCheckout, error)
	FindByGatewayTransactionID(ctx context.Context, transactionID string) (*models.PendingCheckout, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.PendingCheckout, error)
}

// Filters describe the inputs supported by the admin pending checkout list.
type Filters struct {
	Status    *enums.PendingCheckoutStatus
	Contacted *bool
	Query     string
}

// List wraps the paginated records plus the next page cursor.
type List struct {
	PendingCheckouts []models.PendingCheckout `json:"pending_checkouts"`
	NextCursor       string                   `json:"next_cursor,omitempty"`
}
