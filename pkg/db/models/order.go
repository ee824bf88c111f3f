package models

import (
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/types"
	"github.com/google/uuid"
)

// Order is a confirmed purchase. Payment state and fulfillment state are
// tracked independently so a webhook can confirm payment while the order is
// still being packed.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber string    `gorm:"column:order_number;size:32;uniqueIndex;not null" json:"order_number"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`

	CustomerName  string `gorm:"column:customer_name;size:255;not null" json:"customer_name"`
	CustomerEmail string `gorm:"column:customer_email;size:255;not null;index" json:"customer_email"`
	CustomerPhone string `gorm:"column:customer_phone;size:32" json:"customer_phone"`
	CustomerTaxID string `gorm:"column:customer_tax_id;size:20" json:"customer_tax_id"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;size:20;not null" json:"payment_method"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;size:20;not null;default:'pending';index" json:"payment_status"`
	OrderStatus   enums.OrderStatus   `gorm:"column:order_status;size:20;not null;default:'pending';index" json:"order_status"`

	SubtotalCents int64 `gorm:"column:subtotal_cents;not null" json:"subtotal_cents"`
	ShippingCents int64 `gorm:"column:shipping_cents;not null;default:0" json:"shipping_cents"`
	DiscountCents int64 `gorm:"column:discount_cents;not null;default:0" json:"discount_cents"`
	TotalCents    int64 `gorm:"column:total_cents;not null" json:"total_cents"`

	ShippingAddress *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address,omitempty"`
	TrackingInfo    *types.TrackingInfo    `gorm:"column:tracking_info;type:jsonb;serializer:json" json:"tracking_info,omitempty"`
	PixArtifacts    *types.PixArtifacts    `gorm:"column:pix_artifacts;type:jsonb;serializer:json" json:"pix_artifacts,omitempty"`

	GatewayProvider      string `gorm:"column:gateway_provider;size:32" json:"gateway_provider,omitempty"`
	GatewayTransactionID string `gorm:"column:gateway_transaction_id;size:128;index" json:"gateway_transaction_id,omitempty"`

	PaidAt *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`

	LineItems []OrderLineItem `gorm:"foreignKey:OrderID" json:"line_items,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }
