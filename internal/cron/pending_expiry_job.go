package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/adesivalab/adesiva-backend/internal/pending"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
)

const defaultExpiryBatch = 200

// PendingExpiryJobParams configure the pending checkout expiry sweep.
type PendingExpiryJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Repo   pending.Repository
	Batch  int
}

// NewPendingExpiryJob expires pending checkouts whose payment window closed
// without a terminal gateway status.
func NewPendingExpiryJob(params PendingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("pending repository required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &pendingExpiryJob{
		logg:  params.Logger,
		db:    params.DB,
		repo:  params.Repo,
		batch: batch,
		now:   time.Now,
	}, nil
}

type pendingExpiryJob struct {
	logg  *logger.Logger
	db    txRunner
	repo  pending.Repository
	batch int
	now   func() time.Time
}

func (j *pendingExpiryJob) Name() string { return "pending-checkout-expiry" }

func (j *pendingExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	rows, err := j.repo.FindExpiredPending(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("load expired pending checkouts: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	var errs error
	expired := 0
	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		for _, row := range rows {
			if updateErr := repo.Update(ctx, row.ID, map[string]any{
				"status": enums.PendingCheckoutStatusExpired,
			}); updateErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("pending checkout %s: %w", row.ID, updateErr))
				continue
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(rows),
		"expired":    expired,
	})
	j.logg.Info(logCtx, "pending checkout expiry complete")
	return errs
}
