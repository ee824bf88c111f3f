package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalorders "github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/pagination"
)

func TestAdminOrderListParsesFilters(t *testing.T) {
	svc := stubOrdersService{
		adminList: func(ctx context.Context, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
			if filters.PaymentStatus == nil || *filters.PaymentStatus != enums.PaymentStatusCompleted {
				t.Fatalf("expected completed payment status filter, got %+v", filters.PaymentStatus)
			}
			if filters.PaymentMethod == nil || *filters.PaymentMethod != enums.PaymentMethodBoleto {
				t.Fatalf("expected boleto method filter, got %+v", filters.PaymentMethod)
			}
			if filters.Query != "ADS-2025" {
				t.Fatalf("unexpected query %q", filters.Query)
			}
			return &internalorders.OrderList{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?payment_status=completed&payment_method=boleto&q=ADS-2025", nil)
	rec := httptest.NewRecorder()
	AdminOrderList(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAdminOrderListRejectsUnknownStatus(t *testing.T) {
	svc := stubOrdersService{
		adminList: func(context.Context, pagination.Params, internalorders.OrderFilters) (*internalorders.OrderList, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?payment_status=bogus", nil)
	rec := httptest.NewRecorder()
	AdminOrderList(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminOrderPatchParsesStatuses(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrdersService{
		adminPatch: func(ctx context.Context, input internalorders.AdminPatchInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.PaymentStatus == nil || *input.PaymentStatus != enums.PaymentStatusFailed {
				t.Fatalf("expected failed payment status, got %+v", input.PaymentStatus)
			}
			if input.OrderStatus == nil || *input.OrderStatus != enums.OrderStatusCancelled {
				t.Fatalf("expected cancelled order status, got %+v", input.OrderStatus)
			}
			return &models.Order{ID: orderID}, nil
		},
	}

	body := `{"order_status": "cancelled", "payment_status": "failed"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/x", strings.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	AdminOrderPatch(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAdminOrderPatchRejectsUnknownStatus(t *testing.T) {
	svc := stubOrdersService{
		adminPatch: func(context.Context, internalorders.AdminPatchInput) (*models.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{"order_status": "teleported"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/x", strings.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	AdminOrderPatch(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
