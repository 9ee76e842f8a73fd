// internal/domain/shipping/service.go
package shipping

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/money"
)

// DefaultParcelWeight is used when a quote request carries no weight (kg)
var DefaultParcelWeight = decimal.NewFromInt(1)

// Gateway is the carrier capability: quote rates for an address pair and weight
type Gateway interface {
	QuoteRates(ctx context.Context, from, to CarrierAddress, weightKg decimal.Decimal) ([]CarrierRate, error)
}

// Service turns buyer addresses into shipping methods
type Service struct {
	gateway  Gateway
	quotes   QuoteCache
	origin   CarrierAddress
	currency string
	logger   *logrus.Logger
}

// NewService creates a new shipping service quoting from origin
func NewService(gateway Gateway, quotes QuoteCache, origin CarrierAddress, currency string, logger *logrus.Logger) *Service {
	return &Service{
		gateway:  gateway,
		quotes:   quotes,
		origin:   origin,
		currency: money.NormalizeCurrency(currency),
		logger:   logger,
	}
}

// OriginFromConfig builds the shop's own address, the "from" side of every quote
func OriginFromConfig(cfg *config.Config) CarrierAddress {
	return ToCarrierAddress(Address{
		Name:       cfg.Shop.OriginName,
		Line1:      cfg.Shop.OriginLine1,
		Line2:      cfg.Shop.OriginLine2,
		City:       cfg.Shop.OriginCity,
		PostalCode: cfg.Shop.OriginPostal,
		Country:    cfg.Shop.OriginCountry,
		Phone:      cfg.Shop.OriginPhone,
	})
}

// QuoteRates asks the carrier for rates to the buyer address. An empty
// result is a valid answer, distinct from a provider failure. When
// sessionID is set the quotes are remembered so one can be selected later.
func (s *Service) QuoteRates(ctx context.Context, sessionID string, req *QuoteRequest) ([]ShippingMethod, error) {
	if req == nil {
		return nil, apperror.Validation("shippingAddress is required")
	}
	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, err
	}

	weight := DefaultParcelWeight
	if req.Weight != nil && req.Weight.IsPositive() {
		weight = *req.Weight
	}

	to := ToCarrierAddress(*req.ShippingAddress)
	rates, err := s.gateway.QuoteRates(ctx, s.origin, to, weight)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"country":     to.Country,
			"postal_code": to.PostalCode,
			"weight_kg":   weight.String(),
			"error":       err.Error(),
		}).Error("carrier rate quote failed")
		return nil, apperror.Provider("failed to fetch shipping rates", err)
	}

	methods := make([]ShippingMethod, 0, len(rates))
	for _, rate := range rates {
		method, ok := s.normalize(rate)
		if !ok {
			continue
		}
		methods = append(methods, method)
	}

	s.logger.WithFields(logrus.Fields{
		"country":   to.Country,
		"weight_kg": weight.String(),
		"rates":     len(methods),
	}).Info("shipping rates quoted")

	if sessionID != "" {
		if err := s.quotes.Save(ctx, sessionID, methods); err != nil {
			// Quoting still succeeded; selection will report the quote as expired.
			s.logger.WithError(err).Warn("failed to cache shipping quotes")
		}
	}

	return methods, nil
}

// SelectQuoted returns the method with id from the session's latest quote
func (s *Service) SelectQuoted(ctx context.Context, sessionID, methodID string) (*ShippingMethod, error) {
	methods, err := s.quotes.Load(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal("failed to load shipping quotes", err)
	}
	for _, m := range methods {
		if m.ID == methodID {
			method := m
			return &method, nil
		}
	}
	return nil, apperror.NotFound(fmt.Sprintf("shipping method %q is not part of a current quote", methodID))
}

func (s *Service) normalize(rate CarrierRate) (ShippingMethod, bool) {
	if rate.ID == "" || rate.Amount.IsNegative() {
		s.logger.WithFields(logrus.Fields{
			"rate_id": rate.ID,
			"amount":  rate.Amount.String(),
		}).Warn("dropping malformed carrier rate")
		return ShippingMethod{}, false
	}

	currency := money.NormalizeCurrency(rate.Currency)
	if currency == "" {
		currency = s.currency
	}

	minDays := rate.MinDeliveryDays
	maxDays := rate.MaxDeliveryDays
	if minDays < 0 {
		minDays = 0
	}
	if maxDays < minDays {
		maxDays = minDays
	}

	name := rate.ServiceName
	if name == "" {
		name = rate.Carrier
	}

	return ShippingMethod{
		ID:              rate.ID,
		Name:            name,
		Carrier:         rate.Carrier,
		Price:           rate.Amount,
		Currency:        currency,
		MinDeliveryDays: minDays,
		MaxDeliveryDays: maxDays,
	}, true
}
