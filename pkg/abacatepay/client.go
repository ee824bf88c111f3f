package abacatepay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adesivalab/adesiva-backend/pkg/config"
	"github.com/adesivalab/adesiva-backend/pkg/enums"
	pkgerrors "github.com/adesivalab/adesiva-backend/pkg/errors"
	"github.com/adesivalab/adesiva-backend/pkg/logger"
)

// Provider is the gateway name recorded on orders and metrics labels.
const Provider = "abacatepay"

var (
	errAPIKeyRequired  = errors.New("abacatepay api key is required")
	errBaseURLRequired = errors.New("abacatepay base url is required")
	errLoggerRequired  = errors.New("abacatepay logger is required")
)

// Client calls the AbacatePay REST API with centralized auth, logging, and
// error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

// NewClient initializes the AbacatePay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.AbacatePayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logg,
	}
	logg.Info(ctx, "abacatepay client initialized")
	return c, nil
}

// CreatePixQrCode creates a PIX charge and returns its copy-paste code and QR image.
func (c *Client) CreatePixQrCode(ctx context.Context, params PixQrCodeParams) (*PixQrCode, error) {
	req := pixQrCodeRequest{
		Amount:      params.AmountCents,
		Description: params.Description,
	}
	if params.ExpiresIn > 0 {
		req.ExpiresIn = int64(params.ExpiresIn.Seconds())
	}
	if params.Customer.Name != "" || params.Customer.Email != "" {
		customer := params.Customer
		req.Customer = &customer
	}
	if params.ExternalRefID != "" {
		req.Metadata = map[string]any{"externalId": params.ExternalRefID}
	}

	c.log(ctx, "request", "create_pix_qrcode", map[string]any{
		"amount":      params.AmountCents,
		"external_id": params.ExternalRefID,
	})

	var resp pixQrCodeResponse
	if err := c.do(ctx, http.MethodPost, "/pixQrCode/create", req, &resp); err != nil {
		c.log(ctx, "error", "create_pix_qrcode", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_pix_qrcode", map[string]any{
		"transaction_id": resp.ID,
		"status":         resp.Status,
	})
	return &PixQrCode{
		ID:          resp.ID,
		Status:      enums.NormalizeGatewayStatus(resp.Status),
		Amount:      resp.Amount,
		BRCode:      resp.BRCode,
		BRCodeB64:   resp.BRCodeB64,
		ExpiresAt:   parseTime(resp.ExpiresAt),
		CreatedAt:   parseTime(resp.CreatedAt),
		Description: params.Description,
	}, nil
}

// CheckPixStatus polls the current state of a PIX charge.
func (c *Client) CheckPixStatus(ctx context.Context, transactionID string) (*PaymentStatus, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	c.log(ctx, "request", "check_pix_status", map[string]any{"transaction_id": transactionID})

	var resp statusResponse
	path := "/pixQrCode/check?id=" + transactionID
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		c.log(ctx, "error", "check_pix_status", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "check_pix_status", map[string]any{
		"transaction_id": resp.ID,
		"status":         resp.Status,
	})
	return toPaymentStatus(transactionID, resp), nil
}

// CreateBilling creates a hosted billing the shopper is redirected to.
func (c *Client) CreateBilling(ctx context.Context, params BillingParams) (*Billing, error) {
	if len(params.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing requires at least one item")
	}
	methods := params.Methods
	if len(methods) == 0 {
		methods = []string{"PIX"}
	}

	req := billingRequest{
		Frequency:     "ONE_TIME",
		Methods:       methods,
		ReturnURL:     params.ReturnURL,
		CompletionURL: params.CompletionURL,
	}
	for _, item := range params.Items {
		req.Products = append(req.Products, billingProduct{
			ExternalID: item.ExternalID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.PriceCents,
		})
	}
	if params.Customer.Name != "" || params.Customer.Email != "" {
		customer := params.Customer
		req.Customer = &customer
	}
	if params.ExternalRefID != "" {
		req.Metadata = map[string]any{"externalId": params.ExternalRefID}
	}

	c.log(ctx, "request", "create_billing", map[string]any{
		"methods":     methods,
		"items":       len(params.Items),
		"external_id": params.ExternalRefID,
	})

	var resp billingResponse
	if err := c.do(ctx, http.MethodPost, "/billing/create", req, &resp); err != nil {
		c.log(ctx, "error", "create_billing", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_billing", map[string]any{
		"billing_id": resp.ID,
		"status":     resp.Status,
	})
	return &Billing{
		ID:        resp.ID,
		Status:    enums.NormalizeGatewayStatus(resp.Status),
		Amount:    resp.Amount,
		URL:       resp.URL,
		Methods:   resp.Methods,
		CreatedAt: parseTime(resp.CreatedAt),
	}, nil
}

// GenerateBoleto renders the printable slip for an existing billing.
func (c *Client) GenerateBoleto(ctx context.Context, billingID string) (*Boleto, error) {
	if strings.TrimSpace(billingID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing id is required")
	}

	c.log(ctx, "request", "generate_boleto", map[string]any{"billing_id": billingID})

	var resp boletoResponse
	if err := c.do(ctx, http.MethodPost, "/boleto/generate", boletoRequest{BillingID: billingID}, &resp); err != nil {
		c.log(ctx, "error", "generate_boleto", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "generate_boleto", map[string]any{
		"billing_id": billingID,
		"due_date":   resp.DueDate,
	})
	return &Boleto{
		BillingID: billingID,
		Barcode:   resp.Barcode,
		PDFURL:    resp.PDFURL,
		DueDate:   parseTime(resp.DueDate),
	}, nil
}

// CheckBillingStatus polls the current state of a billing.
func (c *Client) CheckBillingStatus(ctx context.Context, billingID string) (*PaymentStatus, error) {
	if strings.TrimSpace(billingID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing id is required")
	}

	c.log(ctx, "request", "check_billing_status", map[string]any{"billing_id": billingID})

	var resp statusResponse
	path := "/billing/status?id=" + billingID
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		c.log(ctx, "error", "check_billing_status", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "check_billing_status", map[string]any{
		"billing_id": resp.ID,
		"status":     resp.Status,
	})
	return toPaymentStatus(billingID, resp), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding gateway request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling abacatepay")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading abacatepay response")
	}

	if resp.StatusCode >= 400 {
		return c.mapGatewayError(resp.StatusCode, raw)
	}

	var envelope apiEnvelope[json.RawMessage]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding abacatepay envelope")
	}
	if envelope.Error != "" {
		return pkgerrors.New(pkgerrors.CodeGatewayRejected, envelope.Error)
	}
	if envelope.Data == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "abacatepay response missing data")
	}
	if out != nil {
		if err := json.Unmarshal(*envelope.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding abacatepay payload")
		}
	}
	return nil
}

func (c *Client) mapGatewayError(status int, raw []byte) error {
	message := extractErrorMessage(raw)
	if message == "" {
		message = fmt.Sprintf("abacatepay returned status %d", status)
	}
	return pkgerrors.New(domainCodeForStatus(status), message)
}

func extractErrorMessage(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeGatewayRejected
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeGatewayRejected
		}
		return pkgerrors.CodeDependency
	}
}

func toPaymentStatus(id string, resp statusResponse) *PaymentStatus {
	status := &PaymentStatus{
		ID:     resp.ID,
		Status: enums.NormalizeGatewayStatus(resp.Status),
	}
	if status.ID == "" {
		status.ID = id
	}
	if resp.ExpiresAt != "" {
		expires := parseTime(resp.ExpiresAt)
		if !expires.IsZero() {
			status.ExpiresAt = &expires
		}
	}
	return status
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"provider":  Provider,
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("abacatepay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("abacatepay %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "key", "email", "phone", "tax"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
