// Package payloads holds the event bodies written to the outbox. These are a
// published contract: the notification bridge decodes them, so fields are only
// ever added, never renamed.
package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesivalab/adesiva-backend/pkg/enums"
)

// OrderCreatedEvent announces a freshly submitted order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalCents    int64               `json:"total_cents"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	CustomerPhone string              `json:"customer_phone,omitempty"`
}

// PaymentConfirmedEvent announces that the gateway confirmed payment.
type PaymentConfirmedEvent struct {
	OrderID              uuid.UUID `json:"order_id"`
	OrderNumber          string    `json:"order_number"`
	GatewayTransactionID string    `json:"gateway_transaction_id,omitempty"`
	PaidAt               time.Time `json:"paid_at"`
}

// PaymentFailedEvent announces a failed or cancelled payment attempt.
type PaymentFailedEvent struct {
	OrderID              uuid.UUID           `json:"order_id"`
	OrderNumber          string              `json:"order_number"`
	GatewayTransactionID string              `json:"gateway_transaction_id,omitempty"`
	GatewayStatus        enums.GatewayStatus `json:"gateway_status"`
}
