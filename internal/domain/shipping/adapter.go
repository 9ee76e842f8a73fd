// internal/domain/shipping/adapter.go
package shipping

import (
	"strings"

	"github.com/your-org/storefront/internal/pkg/apperror"
)

// Validate checks that the address carries what a carrier needs to quote
func (a *Address) Validate() error {
	if a == nil {
		return apperror.Validation("shippingAddress is required")
	}

	var missing []string
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postalCode")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return apperror.Validationf("shippingAddress is missing: %s", strings.Join(missing, ", "))
	}

	if len(strings.TrimSpace(a.Country)) != 2 {
		return apperror.Validation("shippingAddress.country must be a two-letter country code")
	}
	return nil
}

// ToCarrierAddress maps a buyer address onto the carrier schema
func ToCarrierAddress(a Address) CarrierAddress {
	return CarrierAddress{
		Name:       strings.TrimSpace(a.Name),
		Address1:   strings.TrimSpace(a.Line1),
		Address2:   strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
		Phone:      strings.TrimSpace(a.Phone),
	}
}
