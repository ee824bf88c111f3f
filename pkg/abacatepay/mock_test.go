package abacatepay

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
)

func newTestMock() *MockGateway {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewMockGateway(context.Background(), logg)
}

func TestMockPixLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newTestMock()

	qr, err := mock.CreatePixQrCode(ctx, PixQrCodeParams{AmountCents: 2500, ExpiresIn: time.Hour})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if qr.Status != enums.GatewayStatusPending {
		t.Fatalf("new charge should be pending, got %s", qr.Status)
	}
	if qr.BRCode == "" || qr.BRCodeB64 == "" {
		t.Fatalf("expected pix artifacts")
	}

	first, err := mock.CheckPixStatus(ctx, qr.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	second, err := mock.CheckPixStatus(ctx, qr.ID)
	if err != nil {
		t.Fatalf("check again: %v", err)
	}
	if first.Status != second.Status {
		t.Fatalf("mock status must be deterministic: %s vs %s", first.Status, second.Status)
	}
}

func TestMockRejectsNonPositiveAmount(t *testing.T) {
	mock := newTestMock()
	_, err := mock.CreatePixQrCode(context.Background(), PixQrCodeParams{AmountCents: 0})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGatewayRejected {
		t.Fatalf("expected GATEWAY_REJECTED, got %v", err)
	}
}

func TestMockUnknownTransaction(t *testing.T) {
	mock := newTestMock()
	_, err := mock.CheckPixStatus(context.Background(), "pix_char_nope")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestMockBillingTotalsItems(t *testing.T) {
	mock := newTestMock()
	billing, err := mock.CreateBilling(context.Background(), BillingParams{
		Methods: []string{"PIX"},
		Items: []BillingItem{
			{ExternalID: "p1", Name: "Sticker pack", Quantity: 2, PriceCents: 990},
			{ExternalID: "p2", Name: "Holo sticker", Quantity: 1, PriceCents: 1490},
		},
	})
	if err != nil {
		t.Fatalf("create billing: %v", err)
	}
	if billing.Amount != 2*990+1490 {
		t.Fatalf("unexpected total %d", billing.Amount)
	}
	if billing.URL == "" {
		t.Fatalf("expected hosted payment url")
	}
}

func TestMockGenerateBoleto(t *testing.T) {
	ctx := context.Background()
	mock := newTestMock()

	billing, err := mock.CreateBilling(ctx, BillingParams{
		Methods: []string{"BOLETO"},
		Items:   []BillingItem{{ExternalID: "sticker-1", Name: "Sticker", Quantity: 1, PriceCents: 1500}},
	})
	if err != nil {
		t.Fatalf("create billing: %v", err)
	}

	boleto, err := mock.GenerateBoleto(ctx, billing.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if boleto.Barcode == "" || boleto.PDFURL == "" {
		t.Fatalf("expected boleto artifacts, got %+v", boleto)
	}

	_, err = mock.GenerateBoleto(ctx, "bill_mock_nope")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unknown billing, got %v", err)
	}
}
