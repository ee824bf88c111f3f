package main

import (
	"context"

	"github.com/adesivalab/adesiva-backend/pkg/abacatepay"
	"github.com/adesivalab/adesiva-backend/pkg/config"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
)

// newGateway picks the configured gateway implementation once at startup.
// config.Load has already refused mock mode in production by this point.
func newGateway(ctx context.Context, cfg *config.Config, logg *logger.Logger) (abacatepay.Gateway, error) {
	if cfg.AbacatePay.IsMock() {
		logg.Warn(ctx, "using mock payment gateway")
		return abacatepay.NewMockGateway(ctx, logg), nil
	}
	return abacatepay.NewClient(ctx, cfg.AbacatePay, logg)
}
