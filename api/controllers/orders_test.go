package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adesivalab/adesiva-backend/api/middleware"
	internalorders "github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/pagination"
)

type stubOrdersService struct {
	internalorders.Service
	getFn      func(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	listFn     func(ctx context.Context, userID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error)
	adminList  func(ctx context.Context, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error)
	adminPatch func(ctx context.Context, input internalorders.AdminPatchInput) (*models.Order, error)
}

func (s stubOrdersService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.getFn(ctx, userID, orderID)
}

func (s stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	return s.listFn(ctx, userID, params)
}

func (s stubOrdersService) ListAdmin(ctx context.Context, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	return s.adminList(ctx, params, filters)
}

func (s stubOrdersService) AdminPatch(ctx context.Context, input internalorders.AdminPatchInput) (*models.Order, error) {
	return s.adminPatch(ctx, input)
}

type stubReconcileService struct {
	reconcile.Service
	refreshFn func(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, *reconcile.Transition, error)
}

func (s stubReconcileService) RefreshOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, *reconcile.Transition, error) {
	return s.refreshFn(ctx, userID, orderID)
}

func authedRequest(method, target string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func withOrderParam(req *http.Request, orderID uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestOrderListScopesToCaller(t *testing.T) {
	userID := uuid.New()
	svc := stubOrdersService{
		listFn: func(ctx context.Context, gotUser uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
			if gotUser != userID {
				t.Fatalf("expected user %s, got %s", userID, gotUser)
			}
			if params.Limit != 5 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return &internalorders.OrderList{Orders: []models.Order{{ID: uuid.New(), UserID: userID}}}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/orders?limit=5", userID)
	rec := httptest.NewRecorder()
	OrderList(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestOrderListRequiresAuth(t *testing.T) {
	svc := stubOrdersService{
		listFn: func(context.Context, uuid.UUID, pagination.Params) (*internalorders.OrderList, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	OrderList(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOrderDetailUnknownOrder(t *testing.T) {
	userID := uuid.New()
	svc := stubOrdersService{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	req := withOrderParam(authedRequest(http.MethodGet, "/api/v1/orders/x", userID), uuid.New())
	rec := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOrderRefreshStatusReturnsTransition(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := stubReconcileService{
		refreshFn: func(ctx context.Context, gotUser, gotOrder uuid.UUID) (*models.Order, *reconcile.Transition, error) {
			if gotUser != userID || gotOrder != orderID {
				t.Fatalf("unexpected ids %s/%s", gotUser, gotOrder)
			}
			order := &models.Order{ID: orderID, UserID: userID, PaymentStatus: enums.PaymentStatusCompleted}
			transition := &reconcile.Transition{
				OrderID: orderID,
				From:    enums.PaymentStatusPending,
				To:      enums.PaymentStatusCompleted,
				Changed: true,
			}
			return order, transition, nil
		},
	}

	req := withOrderParam(authedRequest(http.MethodPost, "/api/v1/orders/x/refresh-status", userID), orderID)
	rec := httptest.NewRecorder()
	OrderRefreshStatus(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Transition reconcile.Transition `json:"transition"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Transition.Changed {
		t.Fatalf("expected changed transition in response")
	}
}

func TestOrderRefreshStatusRejectsBadOrderID(t *testing.T) {
	svc := stubReconcileService{
		refreshFn: func(context.Context, uuid.UUID, uuid.UUID) (*models.Order, *reconcile.Transition, error) {
			t.Fatal("service must not be called")
			return nil, nil, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/refresh-status", uuid.New())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	OrderRefreshStatus(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
