// internal/domain/shipping/entity.go
package shipping

import (
	"github.com/shopspring/decimal"
)

// ShippingMethod is a normalized carrier rate offered to the buyer
type ShippingMethod struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Carrier         string          `json:"carrier"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	MinDeliveryDays int             `json:"minDeliveryDays"`
	MaxDeliveryDays int             `json:"maxDeliveryDays"`
}

// Address is a buyer address as submitted by the storefront
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// CarrierAddress is an address in the carrier API's schema. Optional fields
// are omitted from the payload, never sent as empty strings.
type CarrierAddress struct {
	Name       string `json:"name,omitempty"`
	Address1   string `json:"address_1"`
	Address2   string `json:"address_2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// CarrierRate is one rate as returned by the carrier
type CarrierRate struct {
	ID              string
	ServiceName     string
	Carrier         string
	Amount          decimal.Decimal
	Currency        string
	MinDeliveryDays int
	MaxDeliveryDays int
}

// QuoteRequest is the input of a shipping quote
type QuoteRequest struct {
	ShippingAddress *Address         `json:"shippingAddress"`
	Weight          *decimal.Decimal `json:"weight,omitempty"`
}
