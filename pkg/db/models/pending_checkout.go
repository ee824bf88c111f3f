package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/types"
	"github.com/google/uuid"
)

// PendingCheckoutItem is a normalized cart line captured when the checkout
// was abandoned before payment confirmation.
type PendingCheckoutItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Customization  string `json:"customization,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// PendingCheckoutItems tolerates the legacy snapshot shape. Early records
// stored a single item object instead of an array; both decode to a slice.
type PendingCheckoutItems []PendingCheckoutItem

func (p *PendingCheckoutItems) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = nil
		return nil
	}
	if trimmed[0] == '{' {
		var single PendingCheckoutItem
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*p = PendingCheckoutItems{single}
		return nil
	}
	var many []PendingCheckoutItem
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*p = PendingCheckoutItems(many)
	return nil
}

// PendingCheckout records a checkout attempt awaiting payment so the shop can
// follow up with the customer and so sweeps can expire stale attempts.
type PendingCheckout struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`

	CustomerName  string `gorm:"column:customer_name;size:255;not null" json:"customer_name"`
	CustomerEmail string `gorm:"column:customer_email;size:255;not null;index" json:"customer_email"`
	CustomerPhone string `gorm:"column:customer_phone;size:32" json:"customer_phone"`

	PaymentMethod enums.PaymentMethod         `gorm:"column:payment_method;size:20;not null" json:"payment_method"`
	Status        enums.PendingCheckoutStatus `gorm:"column:status;size:20;not null;default:'pending';index" json:"status"`

	TotalCents int64 `gorm:"column:total_cents;not null" json:"total_cents"`

	Items           PendingCheckoutItems   `gorm:"column:items;type:jsonb;serializer:json" json:"items"`
	ShippingAddress *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address,omitempty"`
	PixArtifacts    *types.PixArtifacts    `gorm:"column:pix_artifacts;type:jsonb;serializer:json" json:"pix_artifacts,omitempty"`
	Notes           []types.Note           `gorm:"column:notes;type:jsonb;serializer:json" json:"notes,omitempty"`

	GatewayTransactionID string     `gorm:"column:gateway_transaction_id;size:128;index" json:"gateway_transaction_id,omitempty"`
	OrderID              *uuid.UUID `gorm:"column:order_id;type:uuid;index" json:"order_id,omitempty"`

	Contacted   bool       `gorm:"column:contacted;not null;default:false" json:"contacted"`
	ContactedAt *time.Time `gorm:"column:contacted_at" json:"contacted_at,omitempty"`
	ExpiresAt   *time.Time `gorm:"column:expires_at;index" json:"expires_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PendingCheckout) TableName() string { return "pending_checkouts" }
