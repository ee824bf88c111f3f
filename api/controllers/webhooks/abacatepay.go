package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/adesivalab/adesiva-backend/api/responses"
	"github.com/adesivalab/adesiva-backend/internal/reconcile"
	abacatewebhook "github.com/adesivalab/adesiva-backend/internal/webhooks/abacatepay"
	"github.com/adesivalab/adesiva-backend/pkg/abacatepay"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/adesivalab/adesiva-backend/pkg/metrics"
)

const abacatePaySignatureHeader = "x-abacatepay-signature"

type AbacatePayWebhookService interface {
	HandleEvent(ctx context.Context, event *abacatewebhook.Event) (*reconcile.Transition, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// AbacatePayWebhook handles PIX and boleto payment lifecycle events. The raw
// body is verified against the shared secret before anything is decoded.
func AbacatePayWebhook(svc AbacatePayWebhookService, secret string, guard webhookGuard, payments *metrics.PaymentMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := strings.TrimSpace(r.Header.Get(abacatePaySignatureHeader))
		if !validSignature(payload, secret, sigHeader) {
			if payments != nil {
				payments.IncWebhookEvent(abacatepay.Provider, "rejected")
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var event abacatewebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		eventID := event.EventID()
		if eventID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event id missing"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			if payments != nil {
				payments.IncWebhookEvent(abacatepay.Provider, "replayed")
			}
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		if _, err := svc.HandleEvent(ctx, &event); err != nil {
			_ = guard.Delete(ctx, eventID)
			if payments != nil {
				payments.IncWebhookEvent(abacatepay.Provider, "failed")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if payments != nil {
			payments.IncWebhookEvent(abacatepay.Provider, "processed")
		}
		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("abacatepay event %s processed", eventID))
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}

func validSignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
