package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adesivalab/adesiva-backend/api/responses"
	"github.com/adesivalab/adesiva-backend/api/validators"
	"github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/adesivalab/adesiva-backend/pkg/types"
)

// AdminOrderList returns orders across all customers with optional filters.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := adminOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAdmin(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminOrderDetail returns a single order regardless of owner.
func AdminOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := orderIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetAdmin(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type adminOrderPatchRequest struct {
	OrderStatus   *string             `json:"order_status,omitempty"`
	PaymentStatus *string             `json:"payment_status,omitempty"`
	TrackingInfo  *types.TrackingInfo `json:"tracking_info,omitempty"`
}

// AdminOrderPatch applies a manual status override to an order.
func AdminOrderPatch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := orderIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminOrderPatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.AdminPatchInput{OrderID: orderID, TrackingInfo: payload.TrackingInfo}
		if payload.OrderStatus != nil {
			status, err := enums.ParseOrderStatus(*payload.OrderStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
				return
			}
			input.OrderStatus = &status
		}
		if payload.PaymentStatus != nil {
			status, err := enums.ParsePaymentStatus(*payload.PaymentStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
				return
			}
			input.PaymentStatus = &status
		}

		order, err := svc.AdminPatch(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func adminOrderFilters(r *http.Request) (orders.OrderFilters, error) {
	filters := orders.OrderFilters{
		Query: validators.SanitizeString(r.URL.Query().Get("q"), 120),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter")
		}
		filters.PaymentStatus = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("order_status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status filter")
		}
		filters.OrderStatus = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_method")); raw != "" {
		method := enums.PaymentMethod(raw)
		if !method.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method filter")
		}
		filters.PaymentMethod = &method
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
		from, err := parseFilterDate(raw)
		if err != nil {
			return filters, err
		}
		filters.DateFrom = from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
		to, err := parseFilterDate(raw)
		if err != nil {
			return filters, err
		}
		filters.DateTo = to
	}
	return filters, nil
}

func parseFilterDate(raw string) (*time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts, nil
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return &ts, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		ts := time.Unix(unix, 0).UTC()
		return &ts, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date filter")
}
