// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/money"
)

const (
	// SessionIDPlaceholder is substituted by the provider on redirect
	SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

	metadataKey       = "cart_items"
	metadataValueMax  = 500
	metadataKeysMax   = 50
	metadataReserved  = 2
	successPathFormat = "%s/checkout/success?session_id=" + SessionIDPlaceholder
	cancelPathFormat  = "%s/cart"
)

// PriceResolver looks up canonical catalog prices
type PriceResolver interface {
	ResolveMany(ctx context.Context, ids []string) (map[string]*catalog.Product, error)
}

// Service converts carts into payment provider objects
type Service struct {
	gateway   payment.Gateway
	resolver  PriceResolver
	reprice   bool
	maxAmount int64
	logger    *logrus.Logger
}

// NewService creates a new checkout service. resolver may be nil, which
// disables repricing.
func NewService(gateway payment.Gateway, resolver PriceResolver, reprice bool, logger *logrus.Logger) *Service {
	return &Service{
		gateway:   gateway,
		resolver:  resolver,
		reprice:   reprice && resolver != nil,
		maxAmount: payment.DefaultMaxAmount,
		logger:    logger,
	}
}

// WithMaxAmount sets the largest total, in minor units, sent to the provider
func (s *Service) WithMaxAmount(maxAmount int64) *Service {
	if maxAmount > 0 {
		s.maxAmount = maxAmount
	}
	return s
}

// CreateHostedSession creates a provider-hosted checkout page for the items
func (s *Service) CreateHostedSession(ctx context.Context, req *HostedSessionRequest) (*HostedSession, error) {
	items, err := s.prepareItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	currency := items[0].Currency
	for _, item := range items[1:] {
		if item.Currency != currency {
			return nil, apperror.Validationf("all items must share one currency, got %s and %s", currency, item.Currency)
		}
	}

	successURL, err := resolveURL(req.SuccessURL, successPathFormat, req.Origin, "successUrl")
	if err != nil {
		return nil, err
	}
	cancelURL, err := resolveURL(req.CancelURL, cancelPathFormat, req.Origin, "cancelUrl")
	if err != nil {
		return nil, err
	}

	lineItems := make([]payment.LineItem, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		unitAmount, err := s.minorAmount(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		total = total.Add(item.LineTotal())
		lineItems = append(lineItems, payment.LineItem{
			ProductID:  item.ID,
			Name:       item.Name,
			ImageURL:   item.ImageURL,
			Currency:   item.Currency,
			UnitAmount: unitAmount,
			Quantity:   int64(item.Quantity),
		})
	}
	if _, err := s.minorAmount(total); err != nil {
		return nil, err
	}

	key := s.idempotencyKey(req.IdempotencyKey)
	session, err := s.gateway.CreateCheckoutSession(ctx, &payment.SessionRequest{
		LineItems:      lineItems,
		SuccessURL:     successURL,
		CancelURL:      cancelURL,
		Metadata:       CorrelationMetadata(items),
		IdempotencyKey: key,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"item_count": len(items),
			"currency":   currency,
		}).Error("failed to create checkout session")
		return nil, asProviderError("failed to create checkout session", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"item_count": len(items),
		"currency":   currency,
	}).Info("checkout session created")

	return &HostedSession{SessionID: session.ID, URL: session.URL}, nil
}

// CreatePaymentIntent creates a payment intent for the cart total
func (s *Service) CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntent, error) {
	currency := money.NormalizeCurrency(req.Currency)
	if currency == "" {
		return nil, apperror.Validation("currency is required")
	}
	if !money.ValidCurrency(currency) {
		return nil, apperror.Validationf("invalid currency %q", req.Currency)
	}

	items, err := s.prepareItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Currency != currency {
			return nil, apperror.Validationf("item %s is priced in %s, not %s", item.ID, item.Currency, currency)
		}
		total = total.Add(item.LineTotal())
	}

	amount, err := s.minorAmount(total)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperror.Validation("total must be positive")
	}

	key := s.idempotencyKey(req.IdempotencyKey)
	intent, err := s.gateway.CreatePaymentIntent(ctx, &payment.IntentRequest{
		Amount:         amount,
		Currency:       currency,
		Metadata:       CorrelationMetadata(items),
		IdempotencyKey: key,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"amount":   amount,
			"currency": currency,
		}).Error("failed to create payment intent")
		return nil, asProviderError("failed to create payment intent", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_intent_id": intent.ID,
		"amount":            amount,
		"currency":          currency,
	}).Info("payment intent created")

	return &PaymentIntent{ClientSecret: intent.ClientSecret}, nil
}

// prepareItems validates the submitted items and applies catalog repricing
func (s *Service) prepareItems(ctx context.Context, submitted []cart.CartItem) ([]cart.CartItem, error) {
	if len(submitted) == 0 {
		return nil, apperror.Validation("items must not be empty")
	}

	items := make([]cart.CartItem, 0, len(submitted))
	for i, item := range submitted {
		normalized, err := validateItem(i, item)
		if err != nil {
			return nil, err
		}
		items = append(items, normalized)
	}

	if s.reprice {
		if err := s.applyCatalogPrices(ctx, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func validateItem(index int, item cart.CartItem) (cart.CartItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return item, apperror.Validationf("items[%d].id is required", index)
	}
	if item.Quantity < 1 {
		return item, apperror.Validationf("items[%d].quantity must be at least 1", index)
	}
	if item.Quantity > cart.MaxQuantity {
		return item, apperror.Validationf("items[%d].quantity must not exceed %d", index, cart.MaxQuantity)
	}
	if item.UnitPrice.IsNegative() {
		return item, apperror.Validationf("items[%d].unitPrice must not be negative", index)
	}
	item.Currency = money.NormalizeCurrency(item.Currency)
	if !money.ValidCurrency(item.Currency) {
		return item, apperror.Validationf("items[%d].currency is invalid", index)
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		item.Name = item.ID
	}
	return item, nil
}

func (s *Service) applyCatalogPrices(ctx context.Context, items []cart.CartItem) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	products, err := s.resolver.ResolveMany(ctx, ids)
	if err != nil {
		return err
	}

	for i := range items {
		product, ok := products[items[i].ID]
		if !ok {
			s.logger.WithField("product_id", items[i].ID).
				Warn("data integrity: checkout item not in catalog, keeping submitted price")
			continue
		}
		if !product.Price.Equal(items[i].UnitPrice) || product.Currency != items[i].Currency {
			s.logger.WithFields(logrus.Fields{
				"product_id":      items[i].ID,
				"submitted_price": items[i].UnitPrice.String(),
				"catalog_price":   product.Price.String(),
			}).Warn("submitted price differs from catalog, using catalog price")
		}
		items[i].UnitPrice = product.Price
		items[i].Currency = money.NormalizeCurrency(product.Currency)
	}
	return nil
}

// minorAmount converts amount to minor units within the provider maximum
func (s *Service) minorAmount(amount decimal.Decimal) (int64, error) {
	minor, err := money.ToMinorUnits(amount)
	if err != nil || minor > s.maxAmount {
		return 0, apperror.Validationf("amount exceeds the maximum of %s", money.FromMinorUnits(s.maxAmount).StringFixed(2))
	}
	return minor, nil
}

func (s *Service) idempotencyKey(supplied string) string {
	if key := strings.TrimSpace(supplied); key != "" {
		return key
	}
	s.logger.Debug("no idempotency key supplied, minting one")
	return uuid.New().String()
}

// CorrelationMetadata encodes item id x quantity pairs into provider
// metadata, split across keys so no value exceeds the provider limit.
func CorrelationMetadata(items []cart.CartItem) map[string]string {
	metadata := map[string]string{
		"item_count": strconv.Itoa(len(items)),
	}

	var chunks []string
	var current strings.Builder
	for _, item := range items {
		pair := fmt.Sprintf("%s:%d", item.ID, item.Quantity)
		if len(pair) > metadataValueMax {
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(pair) > metadataValueMax {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(',')
		}
		current.WriteString(pair)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	if len(chunks) > metadataKeysMax-metadataReserved {
		chunks = chunks[:metadataKeysMax-metadataReserved]
		metadata["cart_items_truncated"] = "true"
	}
	for i, chunk := range chunks {
		key := metadataKey
		if i > 0 {
			key = fmt.Sprintf("%s_%d", metadataKey, i+1)
		}
		metadata[key] = chunk
	}
	return metadata
}

func resolveURL(supplied, defaultFormat, origin, field string) (string, error) {
	if supplied = strings.TrimSpace(supplied); supplied != "" {
		parsed, err := url.Parse(supplied)
		if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return "", apperror.Validationf("%s must be an absolute http(s) URL", field)
		}
		return supplied, nil
	}

	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return "", apperror.Validationf("%s is required when the request origin is unknown", field)
	}
	return fmt.Sprintf(defaultFormat, origin), nil
}

func asProviderError(message string, err error) error {
	if apperror.KindOf(err) == apperror.KindValidation {
		return err
	}
	return apperror.Provider(message, err)
}
