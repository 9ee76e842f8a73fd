// internal/infrastructure/external/stripe/gateway.go
package stripe

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/payment"
)

// Gateway is the Stripe implementation of payment.Gateway
type Gateway struct {
	sessions session.Client
	intents  paymentintent.Client
	logger   *logrus.Logger
}

// NewGateway creates a Stripe gateway with an explicit timeout and retry budget
func NewGateway(cfg *config.Config, logger *logrus.Logger) *Gateway {
	return newGateway(cfg, logger, nil)
}

// newGateway allows pointing the API backend at another base URL
func newGateway(cfg *config.Config, logger *logrus.Logger, baseURL *string) *Gateway {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Checkout.ProviderTimeout},
		MaxNetworkRetries: stripe.Int64(cfg.External.Stripe.MaxNetworkRetries),
		LeveledLogger:     logger,
		URL:               baseURL,
	})

	key := cfg.External.Stripe.SecretKey
	return &Gateway{
		sessions: session.Client{B: backend, Key: key},
		intents:  paymentintent.Client{B: backend, Key: key},
		logger:   logger,
	}
}

// CreateCheckoutSession creates a payment-mode Checkout Session
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req *payment.SessionRequest) (*payment.Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(item.Name),
			Metadata: map[string]string{"product_id": item.ProductID},
		}
		if item.ImageURL != "" {
			productData.Images = []*string{stripe.String(item.ImageURL)}
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(strings.ToLower(item.Currency)),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		g.logError(err, "checkout session create")
		return nil, translateError(err)
	}

	return &payment.Session{
		ID:     s.ID,
		URL:    s.URL,
		Status: sessionStatus(s),
	}, nil
}

// CreatePaymentIntent creates a PaymentIntent with automatic payment methods
func (g *Gateway) CreatePaymentIntent(ctx context.Context, req *payment.IntentRequest) (*payment.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		g.logError(err, "payment intent create")
		return nil, translateError(err)
	}
	return intentFromStripe(pi), nil
}

// GetCheckoutSession retrieves a Checkout Session by id
func (g *Gateway) GetCheckoutSession(ctx context.Context, id string) (*payment.Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(id, params)
	if err != nil {
		g.logError(err, "checkout session retrieve")
		return nil, translateError(err)
	}
	return &payment.Session{ID: s.ID, URL: s.URL, Status: sessionStatus(s)}, nil
}

// GetPaymentIntent retrieves a PaymentIntent by id
func (g *Gateway) GetPaymentIntent(ctx context.Context, id string) (*payment.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.intents.Get(id, params)
	if err != nil {
		g.logError(err, "payment intent retrieve")
		return nil, translateError(err)
	}
	return intentFromStripe(pi), nil
}

func sessionStatus(s *stripe.CheckoutSession) payment.Status {
	switch s.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return payment.StatusPaid
	default:
		return payment.StatusUnpaid
	}
}

func intentFromStripe(pi *stripe.PaymentIntent) *payment.Intent {
	status := payment.StatusUnpaid
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = payment.StatusPaid
	case stripe.PaymentIntentStatusProcessing:
		status = payment.StatusProcessing
	}
	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Status:       status,
	}
}

// translateError maps Stripe's "no such object" onto payment.ErrNotFound
func translateError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return payment.ErrNotFound
	}
	return err
}

func (g *Gateway) logError(err error, operation string) {
	fields := logrus.Fields{"operation": operation}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		fields["stripe_type"] = stripeErr.Type
		fields["stripe_code"] = stripeErr.Code
		fields["status"] = stripeErr.HTTPStatusCode
		fields["request_id"] = stripeErr.RequestID
	}
	g.logger.WithError(err).WithFields(fields).Error("stripe request failed")
}
