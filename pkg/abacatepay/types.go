package abacatepay

import (
	"context"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/enums"
)

// Gateway is the surface checkout and reconciliation depend on. The real HTTP
// client and the deterministic mock both satisfy it.
type Gateway interface {
	CreatePixQrCode(ctx context.Context, params PixQrCodeParams) (*PixQrCode, error)
	CheckPixStatus(ctx context.Context, transactionID string) (*PaymentStatus, error)
	CreateBilling(ctx context.Context, params BillingParams) (*Billing, error)
	CheckBillingStatus(ctx context.Context, billingID string) (*PaymentStatus, error)
	GenerateBoleto(ctx context.Context, billingID string) (*Boleto, error)
}

// Customer identifies the payer on gateway requests.
type Customer struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Cellphone string `json:"cellphone,omitempty"`
	TaxID     string `json:"taxId,omitempty"`
}

// PixQrCodeParams describes a PIX charge request.
type PixQrCodeParams struct {
	AmountCents   int64
	ExpiresIn     time.Duration
	Description   string
	Customer      Customer
	ExternalRefID string
}

// PixQrCode is the created PIX charge with its copy-paste code and QR image.
type PixQrCode struct {
	ID          string
	Status      enums.GatewayStatus
	Amount      int64
	BRCode      string
	BRCodeB64   string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	Description string
}

// BillingItem is one purchasable line on a billing request.
type BillingItem struct {
	ExternalID string
	Name       string
	Quantity   int
	PriceCents int64
}

// BillingParams describes a hosted-billing request (boleto today).
type BillingParams struct {
	Methods       []string
	Items         []BillingItem
	Customer      Customer
	ExternalRefID string
	ReturnURL     string
	CompletionURL string
}

// Billing is the created billing with the payment URL the shopper is sent to.
type Billing struct {
	ID        string
	Status    enums.GatewayStatus
	Amount    int64
	URL       string
	Methods   []string
	CreatedAt time.Time
}

// Boleto is the printable payment slip generated from an existing billing.
type Boleto struct {
	BillingID string
	Barcode   string
	PDFURL    string
	DueDate   time.Time
}

// PaymentStatus is the polled state of a PIX charge or billing.
type PaymentStatus struct {
	ID        string
	Status    enums.GatewayStatus
	ExpiresAt *time.Time
}

// wire shapes

type apiEnvelope[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error,omitempty"`
}

type pixQrCodeRequest struct {
	Amount      int64          `json:"amount"`
	ExpiresIn   int64          `json:"expiresIn,omitempty"`
	Description string         `json:"description,omitempty"`
	Customer    *Customer      `json:"customer,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type pixQrCodeResponse struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	BRCode    string `json:"brCode"`
	BRCodeB64 string `json:"brCodeBase64"`
	ExpiresAt string `json:"expiresAt"`
	CreatedAt string `json:"createdAt"`
}

type billingRequest struct {
	Frequency     string             `json:"frequency"`
	Methods       []string           `json:"methods"`
	Products      []billingProduct   `json:"products"`
	Customer      *Customer          `json:"customer,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
	ReturnURL     string             `json:"returnUrl,omitempty"`
	CompletionURL string             `json:"completionUrl,omitempty"`
}

type billingProduct struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`
}

type billingResponse struct {
	ID        string   `json:"id"`
	Amount    int64    `json:"amount"`
	Status    string   `json:"status"`
	URL       string   `json:"url"`
	Methods   []string `json:"methods"`
	CreatedAt string   `json:"createdAt"`
}

type boletoRequest struct {
	BillingID string `json:"billing_id"`
}

type boletoResponse struct {
	Barcode string `json:"barcode"`
	PDFURL  string `json:"pdf_url"`
	DueDate string `json:"due_date"`
}

type statusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}
