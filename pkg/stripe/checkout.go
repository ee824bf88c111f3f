package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// CheckoutLine is one product on a hosted checkout session.
type CheckoutLine struct {
	Name           string
	ImageURL       string
	Quantity       int64
	UnitPriceCents int64
}

// CheckoutSessionParams describes a hosted card checkout.
type CheckoutSessionParams struct {
	OrderID       string
	CustomerEmail string
	Lines         []CheckoutLine
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the created session the shopper is redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionClient is the subset of Stripe checkout operations used here.
// Extracted so services can be tested without hitting Stripe.
type SessionClient interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
}

// CreateCheckoutSession opens a hosted Stripe checkout in BRL for the order.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	req := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		Params:     stripe.Params{Context: ctx},
	}
	if params.CustomerEmail != "" {
		req.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	if params.OrderID != "" {
		req.ClientReferenceID = stripe.String(params.OrderID)
		req.Params.Metadata = map[string]string{"order_id": params.OrderID}
	}
	for _, line := range params.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(line.Name),
		}
		if line.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{line.ImageURL})
		}
		req.LineItems = append(req.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(line.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyBRL)),
				UnitAmount:  stripe.Int64(line.UnitPriceCents),
				ProductData: product,
			},
		})
	}

	created, err := session.New(req)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: created.ID, URL: created.URL}, nil
}
