package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/adesivalab/adesiva-backend/api/responses"
	"github.com/adesivalab/adesiva-backend/pkg/config"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RefreshRateLimit throttles per-user status polling so a misbehaving client
// cannot hammer the payment gateway through the refresh endpoint.
func RefreshRateLimit(cfg config.RateLimitConfig, store fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.RefreshLimit <= 0 || cfg.RefreshWindow <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			if userID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			scope := fmt.Sprintf("refresh:%s", userID)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(cfg.RefreshLimit), cfg.RefreshWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          cfg.RefreshLimit,
						"window_seconds": int(cfg.RefreshWindow.Seconds()),
					})
					logg.Warn(logCtx, "refresh.rate_limit.blocked")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many status checks, try again shortly"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
