package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/adesivalab/adesiva-backend/api/middleware"
	checkoutsvc "github.com/adesivalab/adesiva-backend/internal/checkout"
)

type stubCheckoutService struct {
	submitFn func(ctx context.Context, input checkoutsvc.SubmitInput) (*checkoutsvc.Result, error)
}

func (s stubCheckoutService) Submit(ctx context.Context, input checkoutsvc.SubmitInput) (*checkoutsvc.Result, error) {
	return s.submitFn(ctx, input)
}

const checkoutBody = `{
	"customer": {"name": "Ana Souza", "email": "ana@example.com"},
	"items": [{"product_id": "sku-1", "name": "Adesivo Gato", "quantity": 2, "unit_price": "7.50"}],
	"shipping_address": {"full_name": "Ana Souza", "email": "ana@example.com", "line1": "Rua das Flores 100", "city": "Curitiba", "state": "PR", "postal_code": "80010-000"},
	"payment_method": "pix"
}`

func TestCheckoutInjectsAuthenticatedUser(t *testing.T) {
	userID := uuid.New()
	svc := stubCheckoutService{
		submitFn: func(ctx context.Context, input checkoutsvc.SubmitInput) (*checkoutsvc.Result, error) {
			if input.UserID != userID {
				t.Fatalf("expected user %s, got %s", userID, input.UserID)
			}
			if len(input.Items) != 1 || input.Items[0].Quantity != 2 {
				t.Fatalf("unexpected items %+v", input.Items)
			}
			return &checkoutsvc.Result{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCheckoutRequiresAuth(t *testing.T) {
	svc := stubCheckoutService{
		submitFn: func(context.Context, checkoutsvc.SubmitInput) (*checkoutsvc.Result, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCheckoutRejectsInvalidBody(t *testing.T) {
	svc := stubCheckoutService{
		submitFn: func(context.Context, checkoutsvc.SubmitInput) (*checkoutsvc.Result, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"items": []}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
}
