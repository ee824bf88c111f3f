package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adesivalab/adesiva-backend/api/responses"
	"github.com/adesivalab/adesiva-backend/api/validators"
	"github.com/adesivalab/adesiva-backend/internal/pending"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
)

// AdminPendingCheckoutList returns recovery candidates for manual follow-up.
func AdminPendingCheckoutList(svc pending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pending checkout service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := pending.Filters{
			Query: validators.SanitizeString(r.URL.Query().Get("q"), 120),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePendingCheckoutStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("contacted")); raw != "" {
			contacted, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "contacted filter must be true or false"))
				return
			}
			filters.Contacted = &contacted
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminPendingCheckoutContacted flags a record as already reached out to.
func AdminPendingCheckoutContacted(svc pending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pending checkout service unavailable"))
			return
		}

		id, err := pendingCheckoutIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.MarkContacted(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

type pendingNoteRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// AdminPendingCheckoutNote appends a timestamped note to the follow-up log.
func AdminPendingCheckoutNote(svc pending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pending checkout service unavailable"))
			return
		}

		id, err := pendingCheckoutIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pendingNoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AppendNote(r.Context(), id, payload.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func pendingCheckoutIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "pendingId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pending checkout id")
	}
	return id, nil
}
