package orders

import (
	"context"
	"fmt"
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

// Service defines order read operations plus the admin override path.
type Service interface {
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAdmin(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	GetAdmin(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	AdminPatch(ctx context.Context, input AdminPatchInput) (*models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// AdminPatchInput carries the manual override fields an admin can set.
type AdminPatchInput struct {
	OrderID       uuid.UUID
	OrderStatus   *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	TrackingInfo  *types.TrackingInfo
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		// Do not leak the existence of other users' orders.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListAdmin(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	list, err := s.repo.ListAdmin(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) GetAdmin(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// AdminPatch applies a manual override. Order status may be moved freely by an
// admin, but a terminal payment status is still never rewritten.
func (s *service) AdminPatch(ctx context.Context, input AdminPatchInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.OrderStatus != nil && !input.OrderStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.OrderStatus))
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", *input.PaymentStatus))
	}

	var patched *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		updates := map[string]any{}
		if input.OrderStatus != nil && *input.OrderStatus != order.OrderStatus {
			updates["order_status"] = *input.OrderStatus
			order.OrderStatus = *input.OrderStatus
		}
		if input.PaymentStatus != nil && *input.PaymentStatus != order.PaymentStatus {
			if order.PaymentStatus.IsTerminal() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "payment status is terminal and cannot be overridden")
			}
			updates["payment_status"] = *input.PaymentStatus
			order.PaymentStatus = *input.PaymentStatus
			if input.PaymentStatus.IsTerminal() && *input.PaymentStatus == enums.PaymentStatusCompleted {
				now := time.Now().UTC()
				updates["paid_at"] = now
				order.PaidAt = &now
			}
		}
		if input.TrackingInfo != nil {
			tracking := *input.TrackingInfo
			now := time.Now().UTC()
			tracking.LastUpdated = &now
			updates["tracking_info"] = &tracking
			order.TrackingInfo = &tracking
		}

		if len(updates) == 0 {
			patched = order
			return nil
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		patched = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patched, nil
}
