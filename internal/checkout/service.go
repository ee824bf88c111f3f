package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesivalab/adesiva-backend/internal/orders"
	"github.com/adesivalab/adesiva-backend/internal/pending"
	"github.com/adesivalab/adesiva-backend/pkg/abacatepay"
	"github.com/adesivalab/adesiva-backend/pkg/config"
	"github.com/adesivalab/adesiva-backend/pkg/db/models"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
	"github.com/adesivalab/adesiva-backend/pkg/outbox"
	"github.com/adesivalab/adesiva-backend/pkg/outbox/payloads"
	"github.com/adesivalab/adesiva-backend/pkg/stripe"
	"github.com/adesivalab/adesiva-backend/pkg/taxid"
	"github.com/adesivalab/adesiva-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service executes checkout orchestration.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Result, error)
}

// Config carries the knobs the orchestrator needs beyond its collaborators.
type Config struct {
	PixExpiry  time.Duration
	Storefront config.CheckoutConfig
}

type service struct {
	tx          txRunner
	ordersRepo  orders.Repository
	pendingRepo pending.Repository
	gateway     abacatepay.Gateway
	cards       stripe.SessionClient
	outbox      outboxPublisher
	cfg         Config
	logg        *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	pendingRepo pending.Repository,
	gateway abacatepay.Gateway,
	cards stripe.SessionClient,
	publisher outboxPublisher,
	cfg Config,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if pendingRepo == nil {
		return nil, fmt.Errorf("pending checkout repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if cards == nil {
		return nil, fmt.Errorf("card processor required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.PixExpiry <= 0 {
		cfg.PixExpiry = 30 * time.Minute
	}
	return &service{
		tx:          tx,
		ordersRepo:  ordersRepo,
		pendingRepo: pendingRepo,
		gateway:     gateway,
		cards:       cards,
		outbox:      publisher,
		cfg:         cfg,
		logg:        logg,
	}, nil
}

// Submit validates the cart, creates the order with its line-item snapshot,
// then runs the payment-method specific path. The order row is committed
// before any gateway call so a gateway failure leaves a queryable pending
// order instead of silently erasing the attempt.
// seedOrderStatus picks the initial order status per payment method. Card
// orders confirm immediately on the processor's hosted page, so they start in
// processing; PIX and boleto wait on the shopper and start pending.
func seedOrderStatus(method enums.PaymentMethod) enums.OrderStatus {
	if method == enums.PaymentMethodCreditCard {
		return enums.OrderStatusProcessing
	}
	return enums.OrderStatusPending
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*Result, error) {
	lineItems, subtotal, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	address := input.ShippingAddress
	order := &models.Order{
		OrderNumber:     newOrderNumber(),
		UserID:          input.UserID,
		CustomerName:    strings.TrimSpace(input.Customer.Name),
		CustomerEmail:   strings.TrimSpace(input.Customer.Email),
		CustomerPhone:   strings.TrimSpace(input.Customer.Phone),
		CustomerTaxID:   taxid.Normalize(input.Customer.TaxID),
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		OrderStatus:     seedOrderStatus(input.PaymentMethod),
		SubtotalCents:   subtotal,
		TotalCents:      subtotal,
		ShippingAddress: &address,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		created, err := repo.Create(ctx, order)
		if err != nil {
			return err
		}
		order = created
		for i := range lineItems {
			lineItems[i].OrderID = order.ID
		}
		if err := repo.CreateLineItems(ctx, lineItems); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        order.UserID,
				PaymentMethod: order.PaymentMethod,
				TotalCents:    order.TotalCents,
				CustomerName:  order.CustomerName,
				CustomerEmail: order.CustomerEmail,
				CustomerPhone: order.CustomerPhone,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	order.LineItems = lineItems

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":       order.ID.String(),
		"order_number":   order.OrderNumber,
		"payment_method": order.PaymentMethod,
		"total_cents":    order.TotalCents,
	})
	s.logg.Info(logCtx, "order created")

	switch input.PaymentMethod {
	case enums.PaymentMethodPix:
		return s.submitPix(ctx, order)
	case enums.PaymentMethodBoleto:
		return s.submitBoleto(ctx, order)
	default:
		return s.submitCard(ctx, order)
	}
}

func (s *service) submitPix(ctx context.Context, order *models.Order) (*Result, error) {
	qr, err := s.gateway.CreatePixQrCode(ctx, abacatepay.PixQrCodeParams{
		AmountCents: order.TotalCents,
		ExpiresIn:   s.cfg.PixExpiry,
		Description: "Pedido " + order.OrderNumber,
		Customer: abacatepay.Customer{
			Name:      order.CustomerName,
			Email:     order.CustomerEmail,
			Cellphone: order.CustomerPhone,
			TaxID:     order.CustomerTaxID,
		},
		ExternalRefID: order.ID.String(),
	})
	if err != nil {
		return nil, s.gatewayFailure(ctx, order, "create_pix_qr_code", err)
	}

	expires := qr.ExpiresAt
	artifacts := &types.PixArtifacts{
		TransactionID: qr.ID,
		Code:          qr.BRCode,
		QRImageURL:    qr.BRCodeB64,
		ExpiresAt:     &expires,
	}

	record, err := s.persistGatewayAttempt(ctx, order, qr.ID, artifacts)
	if err != nil {
		return nil, err
	}

	order.PixArtifacts = artifacts
	order.GatewayProvider = abacatepay.Provider
	order.GatewayTransactionID = qr.ID
	return &Result{
		Order:             order,
		Pix:               artifacts,
		PendingCheckoutID: &record.ID,
	}, nil
}

func (s *service) submitBoleto(ctx context.Context, order *models.Order) (*Result, error) {
	billingItems := make([]abacatepay.BillingItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		billingItems = append(billingItems, abacatepay.BillingItem{
			ExternalID: item.ProductID,
			Name:       item.ProductName,
			Quantity:   item.Quantity,
			PriceCents: item.UnitPriceCents,
		})
	}

	billing, err := s.gateway.CreateBilling(ctx, abacatepay.BillingParams{
		Methods: []string{"BOLETO"},
		Items:   billingItems,
		Customer: abacatepay.Customer{
			Name:      order.CustomerName,
			Email:     order.CustomerEmail,
			Cellphone: order.CustomerPhone,
			TaxID:     order.CustomerTaxID,
		},
		ExternalRefID: order.ID.String(),
		ReturnURL:     s.cfg.Storefront.CancelURL(order.ID.String()),
		CompletionURL: s.cfg.Storefront.SuccessURL(order.ID.String()),
	})
	if err != nil {
		return nil, s.gatewayFailure(ctx, order, "create_billing", err)
	}

	boleto, err := s.gateway.GenerateBoleto(ctx, billing.ID)
	if err != nil {
		return nil, s.gatewayFailure(ctx, order, "generate_boleto", err)
	}

	record, err := s.persistGatewayAttempt(ctx, order, billing.ID, nil)
	if err != nil {
		return nil, err
	}

	order.GatewayProvider = abacatepay.Provider
	order.GatewayTransactionID = billing.ID
	return &Result{
		Order: order,
		Boleto: &BoletoPayment{
			BillingID:  billing.ID,
			BillingURL: billing.URL,
			Barcode:    boleto.Barcode,
			PDFURL:     boleto.PDFURL,
			DueDate:    boleto.DueDate,
		},
		PendingCheckoutID: &record.ID,
	}, nil
}

func (s *service) submitCard(ctx context.Context, order *models.Order) (*Result, error) {
	lines := make([]stripe.CheckoutLine, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		lines = append(lines, stripe.CheckoutLine{
			Name:           item.ProductName,
			ImageURL:       item.ImageURL,
			Quantity:       int64(item.Quantity),
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	session, err := s.cards.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		OrderID:       order.ID.String(),
		CustomerEmail: order.CustomerEmail,
		Lines:         lines,
		SuccessURL:    s.cfg.Storefront.SuccessURL(order.ID.String()),
		CancelURL:     s.cfg.Storefront.CancelURL(order.ID.String()),
	})
	if err != nil {
		return nil, s.gatewayFailure(ctx, order, "create_checkout_session", err)
	}

	if err := s.ordersRepo.Update(ctx, order.ID, map[string]any{
		"gateway_provider":       stripe.Provider,
		"gateway_transaction_id": session.ID,
	}); err != nil {
		return nil, err
	}

	order.GatewayProvider = stripe.Provider
	order.GatewayTransactionID = session.ID
	return &Result{Order: order, RedirectURL: session.URL}, nil
}

// persistGatewayAttempt records the gateway ids on the order and opens the
// follow-up record for the attempt, in one transaction.
func (s *service) persistGatewayAttempt(
	ctx context.Context,
	order *models.Order,
	transactionID string,
	artifacts *types.PixArtifacts,
) (*models.PendingCheckout, error) {
	items := make(models.PendingCheckoutItems, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, models.PendingCheckoutItem{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Customization:  item.Customization,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	var expiresAt *time.Time
	if artifacts != nil && artifacts.ExpiresAt != nil {
		expires := *artifacts.ExpiresAt
		expiresAt = &expires
	}

	record := &models.PendingCheckout{
		UserID:               order.UserID,
		CustomerName:         order.CustomerName,
		CustomerEmail:        order.CustomerEmail,
		CustomerPhone:        order.CustomerPhone,
		PaymentMethod:        order.PaymentMethod,
		Status:               enums.PendingCheckoutStatusPending,
		TotalCents:           order.TotalCents,
		Items:                items,
		ShippingAddress:      order.ShippingAddress,
		PixArtifacts:         artifacts,
		GatewayTransactionID: transactionID,
		ExpiresAt:            expiresAt,
	}

	updates := map[string]any{
		"gateway_provider":       abacatepay.Provider,
		"gateway_transaction_id": transactionID,
	}
	if artifacts != nil {
		updates["pix_artifacts"] = artifacts
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ordersRepo.WithTx(tx).Update(ctx, order.ID, updates); err != nil {
			return err
		}
		created, err := s.pendingRepo.WithTx(tx).Create(ctx, record)
		if err != nil {
			return err
		}
		record = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// gatewayFailure logs the raw provider error and hands the caller a typed one
// carrying the order id so the shopper can retry against the same order. The
// order stays pending; it is never deleted on a downstream failure.
func (s *service) gatewayFailure(ctx context.Context, order *models.Order, op string, err error) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":  order.ID.String(),
		"operation": op,
	})
	s.logg.Error(logCtx, "payment provider call failed", err)

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
	}
	return typed.WithDetails(map[string]any{"order_id": order.ID.String(), "retryable": true})
}

func (s *service) validate(input SubmitInput) ([]models.OrderLineItem, int64, error) {
	if input.UserID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "checkout requires an authenticated user")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"payment_method": string(input.PaymentMethod)})
	}
	if len(input.Items) == 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}
	if strings.TrimSpace(input.Customer.Name) == "" || strings.TrimSpace(input.Customer.Email) == "" {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "customer name and email are required")
	}
	if input.PaymentMethod == enums.PaymentMethodBoleto && !taxid.Valid(input.Customer.TaxID) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "boleto requires a valid CPF or CNPJ").
			WithDetails(map[string]any{"field": "tax_id"})
	}

	lineItems := make([]models.OrderLineItem, 0, len(input.Items))
	var subtotal int64
	for i, item := range input.Items {
		if strings.TrimSpace(item.ProductID) == "" || strings.TrimSpace(item.Name) == "" {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "cart item is missing product data").
				WithDetails(map[string]any{"index": i})
		}
		if item.Quantity <= 0 {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "cart item quantity must be positive").
				WithDetails(map[string]any{"index": i, "product_id": item.ProductID})
		}
		unitCents, err := types.ParseBRL(item.UnitPrice)
		if err != nil {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "cart item price is malformed").
				WithDetails(map[string]any{"index": i, "product_id": item.ProductID})
		}
		total := unitCents * int64(item.Quantity)
		subtotal += total
		lineItems = append(lineItems, models.OrderLineItem{
			ProductID:      item.ProductID,
			ProductName:    item.Name,
			ImageURL:       item.ImageURL,
			Customization:  item.Customization,
			Quantity:       item.Quantity,
			UnitPriceCents: unitCents,
			TotalCents:     total,
		})
	}
	if subtotal <= 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}
	return lineItems, subtotal, nil
}

// newOrderNumber derives a short human-readable reference. Uniqueness is
// enforced by the database constraint, not here.
func newOrderNumber() string {
	id := uuid.New()
	return fmt.Sprintf("ADS-%s-%X", time.Now().UTC().Format("20060102"), id[:4])
}
