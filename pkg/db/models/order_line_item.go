package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots a purchased product at checkout time. Product data
// is denormalized so later catalog edits do not rewrite order history.
type OrderLineItem struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`

	ProductID     string `gorm:"column:product_id;size:64;not null" json:"product_id"`
	ProductName   string `gorm:"column:product_name;size:255;not null" json:"product_name"`
	ImageURL      string `gorm:"column:image_url;size:512" json:"image_url,omitempty"`
	Customization string `gorm:"column:customization" json:"customization,omitempty"`

	Quantity       int   `gorm:"column:quantity;not null" json:"quantity"`
	UnitPriceCents int64 `gorm:"column:unit_price_cents;not null" json:"unit_price_cents"`
	TotalCents     int64 `gorm:"column:total_cents;not null" json:"total_cents"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }
