package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/types"
)

// CartItemInput is one line of the submitted cart. Prices arrive as decimal
// BRL strings and are converted to centavos before anything is persisted.
type CartItemInput struct {
	ProductID     string `json:"product_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	ImageURL      string `json:"image_url,omitempty"`
	Customization string `json:"customization,omitempty"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice     string `json:"unit_price" validate:"required"`
}

// CustomerInput identifies the buyer on the submitted checkout.
type CustomerInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
	TaxID string `json:"tax_id,omitempty"`
}

// SubmitInput is everything a checkout submission carries.
type SubmitInput struct {
	UserID          uuid.UUID             `json:"-"`
	Customer        CustomerInput         `json:"customer" validate:"required"`
	Items           []CartItemInput       `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method" validate:"required"`
}

// BoletoPayment is what the shopper needs to pay a boleto.
type BoletoPayment struct {
	BillingID  string    `json:"billing_id"`
	BillingURL string    `json:"billing_url,omitempty"`
	Barcode    string    `json:"barcode"`
	PDFURL     string    `json:"pdf_url"`
	DueDate    time.Time `json:"due_date"`
}

// Result is the payment-method specific outcome of a submission. Exactly one
// of RedirectURL, Pix or Boleto is set, matching the chosen method.
type Result struct {
	Order             *models.Order       `json:"order"`
	RedirectURL       string              `json:"redirect_url,omitempty"`
	Pix               *types.PixArtifacts `json:"pix,omitempty"`
	Boleto            *BoletoPayment      `json:"boleto,omitempty"`
	PendingCheckoutID *uuid.UUID          `json:"pending_checkout_id,omitempty"`
}
