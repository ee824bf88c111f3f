package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesivalab/adesiva-backend/internal/pending"
	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/pagination"
)

type stubPendingService struct {
	listFn      func(ctx context.Context, params pagination.Params, filters pending.Filters) (*pending.List, error)
	contactedFn func(ctx context.Context, id uuid.UUID) (*models.PendingCheckout, error)
	noteFn      func(ctx context.Context, id uuid.UUID, text string) (*models.PendingCheckout, error)
}

func (s stubPendingService) List(ctx context.Context, params pagination.Params, filters pending.Filters) (*pending.List, error) {
	return s.listFn(ctx, params, filters)
}

func (s stubPendingService) Get(context.Context, uuid.UUID) (*models.PendingCheckout, error) {
	return nil, nil
}

func (s stubPendingService) MarkContacted(ctx context.Context, id uuid.UUID) (*models.PendingCheckout, error) {
	return s.contactedFn(ctx, id)
}

func (s stubPendingService) AppendNote(ctx context.Context, id uuid.UUID, text string) (*models.PendingCheckout, error) {
	return s.noteFn(ctx, id, text)
}

func (s stubPendingService) MarkPaidByTransaction(context.Context, *gorm.DB, string, uuid.UUID) error {
	return nil
}

func withPendingParam(req *http.Request, id uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("pendingId", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestAdminPendingCheckoutListParsesFilters(t *testing.T) {
	svc := stubPendingService{
		listFn: func(ctx context.Context, params pagination.Params, filters pending.Filters) (*pending.List, error) {
			if filters.Status == nil || *filters.Status != enums.PendingCheckoutStatusPending {
				t.Fatalf("expected pending status filter, got %+v", filters.Status)
			}
			if filters.Contacted == nil || *filters.Contacted {
				t.Fatalf("expected contacted=false filter, got %+v", filters.Contacted)
			}
			return &pending.List{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/pending-checkouts?status=pending&contacted=false", nil)
	rec := httptest.NewRecorder()
	AdminPendingCheckoutList(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAdminPendingCheckoutContacted(t *testing.T) {
	id := uuid.New()
	svc := stubPendingService{
		contactedFn: func(ctx context.Context, gotID uuid.UUID) (*models.PendingCheckout, error) {
			if gotID != id {
				t.Fatalf("unexpected id %s", gotID)
			}
			return &models.PendingCheckout{ID: id, Contacted: true}, nil
		},
	}

	req := withPendingParam(httptest.NewRequest(http.MethodPost, "/api/admin/v1/pending-checkouts/x/contacted", nil), id)
	rec := httptest.NewRecorder()
	AdminPendingCheckoutContacted(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAdminPendingCheckoutNoteRequiresText(t *testing.T) {
	svc := stubPendingService{
		noteFn: func(context.Context, uuid.UUID, string) (*models.PendingCheckout, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	req := withPendingParam(httptest.NewRequest(http.MethodPost, "/api/admin/v1/pending-checkouts/x/notes", strings.NewReader(`{}`)), uuid.New())
	rec := httptest.NewRecorder()
	AdminPendingCheckoutNote(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminPendingCheckoutNoteAppends(t *testing.T) {
	id := uuid.New()
	svc := stubPendingService{
		noteFn: func(ctx context.Context, gotID uuid.UUID, text string) (*models.PendingCheckout, error) {
			if text != "ligou, vai pagar amanhã" {
				t.Fatalf("unexpected note text %q", text)
			}
			return &models.PendingCheckout{ID: gotID}, nil
		},
	}

	body := `{"text": "ligou, vai pagar amanhã"}`
	req := withPendingParam(httptest.NewRequest(http.MethodPost, "/api/admin/v1/pending-checkouts/x/notes", strings.NewReader(body)), id)
	rec := httptest.NewRecorder()
	AdminPendingCheckoutNote(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}
