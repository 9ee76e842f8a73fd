// internal/domain/checkout/entity.go
package checkout

import (
	"encoding/json"
	"strings"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/pkg/apperror"
)

// HostedSessionRequest is the input for a provider-hosted checkout page
type HostedSessionRequest struct {
	Items      []cart.CartItem
	SuccessURL string
	CancelURL  string
	// Origin is the scheme and host the buyer came from, used for default URLs
	Origin         string
	IdempotencyKey string
}

// HostedSession is returned to the client, which redirects to URL
type HostedSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PaymentIntentRequest is the input for an embedded payment form
type PaymentIntentRequest struct {
	Items          []cart.CartItem
	Currency       string
	IdempotencyKey string
}

// PaymentIntent carries only the client secret; nothing else leaves the server
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
}

// ParseItems decodes the raw "items" field of a checkout request body
func ParseItems(raw json.RawMessage) ([]cart.CartItem, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, apperror.Validation("items is required")
	}
	if !strings.HasPrefix(trimmed, "[") {
		return nil, apperror.Validation("items must be a list")
	}

	var items []cart.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperror.Validation("items contains an invalid entry")
	}
	if len(items) == 0 {
		return nil, apperror.Validation("items must not be empty")
	}
	return items, nil
}
