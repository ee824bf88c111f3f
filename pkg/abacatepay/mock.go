package abacatepay

import (
	"context"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
)

// MockGateway simulates AbacatePay for development and tests. It is selected
// once at startup via configuration, never per call. Outcomes are
// deterministic: the simulated status is derived from a hash of the
// transaction id, so repeated checks of the same charge agree.
type MockGateway struct {
	logger *logger.Logger

	mu      sync.Mutex
	seq     int
	charges map[string]mockCharge
}

type mockCharge struct {
	amount    int64
	createdAt time.Time
	expiresAt time.Time
}

// NewMockGateway builds the in-memory gateway simulator.
func NewMockGateway(ctx context.Context, logg *logger.Logger) *MockGateway {
	if logg != nil {
		logg.Warn(ctx, "abacatepay mock gateway enabled, no real charges will be created")
	}
	return &MockGateway{logger: logg, charges: map[string]mockCharge{}}
}

func (m *MockGateway) CreatePixQrCode(ctx context.Context, params PixQrCodeParams) (*PixQrCode, error) {
	if params.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayRejected, "amount must be positive")
	}

	now := time.Now().UTC()
	expiry := params.ExpiresIn
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	id := m.nextID("pix_char")
	m.remember(id, params.AmountCents, now, now.Add(expiry))

	code := fmt.Sprintf("00020126580014br.gov.bcb.pix%s5204000053039865802BR", id)
	return &PixQrCode{
		ID:          id,
		Status:      enums.GatewayStatusPending,
		Amount:      params.AmountCents,
		BRCode:      code,
		BRCodeB64:   base64.StdEncoding.EncodeToString([]byte(code)),
		ExpiresAt:   now.Add(expiry),
		CreatedAt:   now,
		Description: params.Description,
	}, nil
}

func (m *MockGateway) CheckPixStatus(ctx context.Context, transactionID string) (*PaymentStatus, error) {
	return m.checkStatus(transactionID)
}

func (m *MockGateway) CreateBilling(ctx context.Context, params BillingParams) (*Billing, error) {
	if len(params.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayRejected, "billing requires at least one item")
	}

	var total int64
	for _, item := range params.Items {
		total += item.PriceCents * int64(item.Quantity)
	}
	if total <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayRejected, "amount must be positive")
	}

	now := time.Now().UTC()
	id := m.nextID("bill")
	m.remember(id, total, now, now.Add(72*time.Hour))

	methods := params.Methods
	if len(methods) == 0 {
		methods = []string{"PIX"}
	}
	return &Billing{
		ID:        id,
		Status:    enums.GatewayStatusPending,
		Amount:    total,
		URL:       "https://pay.abacatepay.test/" + id,
		Methods:   methods,
		CreatedAt: now,
	}, nil
}

func (m *MockGateway) GenerateBoleto(ctx context.Context, billingID string) (*Boleto, error) {
	m.mu.Lock()
	charge, known := m.charges[billingID]
	m.mu.Unlock()
	if !known {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown billing")
	}

	h := fnv.New32a()
	h.Write([]byte(billingID))
	return &Boleto{
		BillingID: billingID,
		Barcode:   fmt.Sprintf("23793%026d", h.Sum32()),
		PDFURL:    "https://pay.abacatepay.test/" + billingID + "/boleto.pdf",
		DueDate:   charge.expiresAt,
	}, nil
}

func (m *MockGateway) CheckBillingStatus(ctx context.Context, billingID string) (*PaymentStatus, error) {
	return m.checkStatus(billingID)
}

func (m *MockGateway) checkStatus(id string) (*PaymentStatus, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	m.mu.Lock()
	charge, known := m.charges[id]
	m.mu.Unlock()
	if !known {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown transaction")
	}

	status := simulatedStatus(id)
	if status == enums.GatewayStatusPending && time.Now().UTC().After(charge.expiresAt) {
		status = enums.GatewayStatusExpired
	}

	expires := charge.expiresAt
	return &PaymentStatus{ID: id, Status: status, ExpiresAt: &expires}, nil
}

// simulatedStatus buckets the id hash: most charges pay, some stay pending,
// a few fail.
func simulatedStatus(id string) enums.GatewayStatus {
	h := fnv.New32a()
	h.Write([]byte(id))
	switch h.Sum32() % 10 {
	case 0:
		return enums.GatewayStatusFailed
	case 1, 2:
		return enums.GatewayStatusPending
	default:
		return enums.GatewayStatusPaid
	}
}

func (m *MockGateway) nextID(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("%s_mock_%06d", prefix, m.seq)
}

func (m *MockGateway) remember(id string, amount int64, createdAt, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges[id] = mockCharge{amount: amount, createdAt: createdAt, expiresAt: expiresAt}
}
