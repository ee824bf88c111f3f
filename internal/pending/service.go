package pending

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/pagination"
	"github.com/adesivalab/adesiva-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines operations on pending checkout records.
type Service interface {
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PendingCheckout, error)
	MarkContacted(ctx context.Context, id uuid.UUID) (*models.PendingCheckout, error)
	AppendNote(ctx context.Context, id uuid.UUID, text string) (*models.PendingCheckout, error)
	MarkPaidByTransaction(ctx context.Context, tx *gorm.DB, transactionID string, orderID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the pending checkout service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pending repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending checkouts")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PendingCheckout, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pending checkout id required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pending checkout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending checkout")
	}
	return record, nil
}

func (s *service) MarkContacted(ctx context.Context, id uuid.UUID) (*models.PendingCheckout, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Contacted {
		return record, nil
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"contacted":    true,
		"contacted_at": now,
	}
	if err := s.repo.Update(ctx, record.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark contacted")
	}
	record.Contacted = true
	record.ContactedAt = &now
	return record, nil
}

// AppendNote loads the record inside a transaction so concurrent appends do
// not drop entries.
func (s *service) AppendNote(ctx context.Context, id uuid.UUID, text string) (*models.PendingCheckout, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note text required")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pending checkout id required")
	}

	var updated *models.PendingCheckout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pending checkout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending checkout")
		}
		record.Notes = append(record.Notes, types.Note{Text: text, CreatedAt: time.Now().UTC()})
		if err := repo.Update(ctx, record.ID, map[string]any{"notes": record.Notes}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append note")
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkPaidByTransaction converges a pending checkout with its confirmed order.
// Best effort: a missing record is not an error, and already-terminal records
// are left alone.
func (s *service) MarkPaidByTransaction(ctx context.Context, tx *gorm.DB, transactionID string, orderID uuid.UUID) error {
	if strings.TrimSpace(transactionID) == "" {
		return nil
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	record, err := repo.FindByGatewayTransactionID(ctx, transactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending checkout by transaction")
	}
	if record.Status != enums.PendingCheckoutStatusPending {
		return nil
	}
	updates := map[string]any{
		"status":   enums.PendingCheckoutStatusPaid,
		"order_id": orderID,
	}
	if err := repo.Update(ctx, record.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pending checkout paid")
	}
	return nil
}
