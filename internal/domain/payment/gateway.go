// internal/domain/payment/gateway.go
package payment

import (
	"context"

	"github.com/your-org/storefront/internal/pkg/apperror"
)

// Status is the provider-agnostic state of a payment
type Status string

const (
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusUnpaid     Status = "unpaid"
)

// DefaultMaxAmount is the largest charge, in minor units, the provider accepts
const DefaultMaxAmount int64 = 99_999_999

// ErrNotFound is returned when the provider does not know an id
var ErrNotFound = apperror.NotFound("payment object not found")

// LineItem is one priced line of a hosted checkout session
type LineItem struct {
	ProductID  string
	Name       string
	ImageURL   string
	Currency   string
	UnitAmount int64 // minor units
	Quantity   int64
}

// SessionRequest asks the provider for a hosted, payment-mode checkout page
type SessionRequest struct {
	LineItems      []LineItem
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

// Session is a hosted checkout session
type Session struct {
	ID     string
	URL    string
	Status Status
}

// IntentRequest asks the provider for a payment intent
type IntentRequest struct {
	Amount         int64 // minor units
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Intent is a payment intent for an embedded payment form
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       Status
}

// Gateway is the payment provider capability. Objects it creates are
// billable remote state that this service does not own past creation.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error)
	CreatePaymentIntent(ctx context.Context, req *IntentRequest) (*Intent, error)
	GetCheckoutSession(ctx context.Context, id string) (*Session, error)
	GetPaymentIntent(ctx context.Context, id string) (*Intent, error)
}
