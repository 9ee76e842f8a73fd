package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/logger"
)

type fakeGateway struct {
	mu       sync.Mutex
	sessions []*payment.SessionRequest
	intents  []*payment.IntentRequest
	err      error

	sessionStatus map[string]payment.Status
	intentStatus  map[string]payment.Status
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req *payment.SessionRequest) (*payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.sessions = append(g.sessions, req)
	return &payment.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1", Status: payment.StatusUnpaid}, nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req *payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.intents = append(g.intents, req)
	return &payment.Intent{ID: "pi_test_1", ClientSecret: "pi_test_1_secret", Amount: req.Amount, Currency: req.Currency}, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*payment.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	status, ok := g.sessionStatus[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return &payment.Session{ID: id, Status: status}, nil
}

func (g *fakeGateway) GetPaymentIntent(_ context.Context, id string) (*payment.Intent, error) {
	if g.err != nil {
		return nil, g.err
	}
	status, ok := g.intentStatus[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return &payment.Intent{ID: id, Status: status}, nil
}

type fakeResolver struct {
	products map[string]*catalog.Product
}

func (r *fakeResolver) ResolveMany(_ context.Context, ids []string) (map[string]*catalog.Product, error) {
	result := map[string]*catalog.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func item(id, price, currency string, qty int) cart.CartItem {
	return cart.CartItem{
		ID:        id,
		Name:      "Product " + id,
		UnitPrice: decimal.RequireFromString(price),
		Currency:  currency,
		Quantity:  qty,
	}
}

func TestCreateHostedSession_LineItemsAndDefaults(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, false, logger.Discard())

	session, err := svc.CreateHostedSession(context.Background(), &HostedSessionRequest{
		Items:          []cart.CartItem{item("p1", "19.995", "EUR", 2), item("p2", "5", "eur", 1)},
		Origin:         "https://shop.example/",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.SessionID)
	assert.Equal(t, "https://pay.example/cs_test_1", session.URL)

	require.Len(t, gw.sessions, 1)
	req := gw.sessions[0]
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, int64(2000), req.LineItems[0].UnitAmount)
	assert.Equal(t, int64(2), req.LineItems[0].Quantity)
	assert.Equal(t, int64(500), req.LineItems[1].UnitAmount)
	assert.Equal(t, "EUR", req.LineItems[1].Currency)
	assert.Equal(t, "https://shop.example/checkout/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://shop.example/cart", req.CancelURL)
	assert.Equal(t, "key-1", req.IdempotencyKey)
	assert.Equal(t, "p1:2,p2:1", req.Metadata["cart_items"])
}

func TestCreateHostedSession_CallerURLs(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, false, logger.Discard())

	_, err := svc.CreateHostedSession(context.Background(), &HostedSessionRequest{
		Items:      []cart.CartItem{item("p1", "10", "EUR", 1)},
		SuccessURL: "https://shop.example/thanks?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.example/basket",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/thanks?session_id={CHECKOUT_SESSION_ID}", gw.sessions[0].SuccessURL)
	assert.Equal(t, "https://shop.example/basket", gw.sessions[0].CancelURL)
	assert.NotEmpty(t, gw.sessions[0].IdempotencyKey)
}

func TestCreateHostedSession_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *HostedSessionRequest
		msg  string
	}{
		{
			name: "empty items",
			req:  &HostedSessionRequest{Origin: "https://shop.example"},
			msg:  "items must not be empty",
		},
		{
			name: "mixed currency",
			req: &HostedSessionRequest{
				Items:  []cart.CartItem{item("p1", "10", "EUR", 1), item("p2", "10", "USD", 1)},
				Origin: "https://shop.example",
			},
			msg: "one currency",
		},
		{
			name: "zero quantity",
			req: &HostedSessionRequest{
				Items:  []cart.CartItem{item("p1", "10", "EUR", 0)},
				Origin: "https://shop.example",
			},
			msg: "quantity",
		},
		{
			name: "negative price",
			req: &HostedSessionRequest{
				Items:  []cart.CartItem{item("p1", "-1", "EUR", 1)},
				Origin: "https://shop.example",
			},
			msg: "unitPrice",
		},
		{
			name: "relative success url",
			req: &HostedSessionRequest{
				Items:      []cart.CartItem{item("p1", "10", "EUR", 1)},
				SuccessURL: "/thanks",
				Origin:     "https://shop.example",
			},
			msg: "successUrl",
		},
		{
			name: "unknown origin",
			req:  &HostedSessionRequest{Items: []cart.CartItem{item("p1", "10", "EUR", 1)}},
			msg:  "origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			svc := NewService(gw, nil, false, logger.Discard())

			_, err := svc.CreateHostedSession(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
			assert.Contains(t, err.Error(), tt.msg)
			assert.Empty(t, gw.sessions)
		})
	}
}

func TestCreateHostedSession_ProviderFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection reset")}
	svc := NewService(gw, nil, false, logger.Discard())

	_, err := svc.CreateHostedSession(context.Background(), &HostedSessionRequest{
		Items:  []cart.CartItem{item("p1", "10", "EUR", 1)},
		Origin: "https://shop.example",
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindProvider))
	assert.NotContains(t, apperror.PublicMessage(err), "connection reset")
}

func TestCreatePaymentIntent_Amount(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, false, logger.Discard())

	intent, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		Items:    []cart.CartItem{item("A", "10.00", "EUR", 2), item("B", "5.00", "EUR", 1)},
		Currency: "eur",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1_secret", intent.ClientSecret)

	require.Len(t, gw.intents, 1)
	assert.Equal(t, int64(2500), gw.intents[0].Amount)
	assert.Equal(t, "EUR", gw.intents[0].Currency)
	assert.Equal(t, "A:2,B:1", gw.intents[0].Metadata["cart_items"])
	assert.Equal(t, "2", gw.intents[0].Metadata["item_count"])
}

func TestCreatePaymentIntent_Validation(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, false, logger.Discard())

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		Items: []cart.CartItem{item("A", "10", "EUR", 1)},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		Items:    []cart.CartItem{item("A", "10", "EUR", 1)},
		Currency: "USD",
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{Currency: "EUR"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	assert.Empty(t, gw.intents)
}

func TestRepricing(t *testing.T) {
	gw := &fakeGateway{}
	resolver := &fakeResolver{products: map[string]*catalog.Product{
		"p1": {ID: "p1", Name: "Mug", Price: decimal.RequireFromString("12.50"), Currency: "EUR"},
	}}
	svc := NewService(gw, resolver, true, logger.Discard())

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		Items:    []cart.CartItem{item("p1", "0.01", "EUR", 2), item("unknown", "3.00", "EUR", 1)},
		Currency: "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2800), gw.intents[0].Amount)
}

func TestCorrelationMetadata_Chunks(t *testing.T) {
	var items []cart.CartItem
	for i := 0; i < 100; i++ {
		items = append(items, item(strings.Repeat("x", 20)+string(rune('a'+i%26)), "1", "EUR", i+1))
	}

	metadata := CorrelationMetadata(items)
	assert.Equal(t, "100", metadata["item_count"])
	require.Contains(t, metadata, "cart_items_2")
	for key, value := range metadata {
		assert.LessOrEqual(t, len(value), 500, key)
	}
}

func TestParseItems(t *testing.T) {
	_, err := ParseItems(nil)
	assert.EqualError(t, err, "items is required")

	_, err = ParseItems(json.RawMessage(`{"id":"p1"}`))
	assert.EqualError(t, err, "items must be a list")

	_, err = ParseItems(json.RawMessage(`[]`))
	assert.EqualError(t, err, "items must not be empty")

	items, err := ParseItems(json.RawMessage(`[{"id":"p1","name":"Mug","unitPrice":12.5,"currency":"EUR","quantity":2}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, decimal.RequireFromString("12.5").Equal(items[0].UnitPrice))
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCreatePaymentIntent_QuantityBound(t *testing.T) {
	gw := &fakeGateway{}
	resolver := &fakeResolver{products: map[string]*catalog.Product{
		"p1": {ID: "p1", Name: "Mug", Price: decimal.NewFromInt(10), Currency: "EUR"},
	}}
	svc := NewService(gw, resolver, true, logger.Discard())

	for _, qty := range []int{cart.MaxQuantity + 1, 18446744073709552} {
		_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
			Items:    []cart.CartItem{item("p1", "10", "EUR", qty)},
			Currency: "EUR",
		})
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	}
	assert.Empty(t, gw.intents)

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		Items:    []cart.CartItem{item("p1", "10", "EUR", cart.MaxQuantity)},
		Currency: "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(999000), gw.intents[0].Amount)
}

func TestCreatePaymentIntent_AmountAboveMaximum(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, false, logger.Discard()).WithMaxAmount(100000)

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		Items:    []cart.CartItem{item("A", "500.00", "EUR", 2), item("B", "0.01", "EUR", 1)},
		Currency: "EUR",
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, err.Error(), "1000.00")

	_, err = svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		Items:    []cart.CartItem{item("A", "99999999999999999999", "EUR", 1)},
		Currency: "EUR",
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Empty(t, gw.intents)
}

func TestCreatePaymentIntent_ZeroTotal(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, false, logger.Discard())

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		Items:    []cart.CartItem{item("free", "0.00", "EUR", 3)},
		Currency: "EUR",
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.EqualError(t, err, "total must be positive")
	assert.Empty(t, gw.intents)
}

func TestCreateHostedSession_AmountAboveMaximum(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil, false, logger.Discard())

	_, err := svc.CreateHostedSession(context.Background(), &HostedSessionRequest{
		Items:  []cart.CartItem{item("A", "500000.00", "EUR", 2)},
		Origin: "https://shop.example",
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Empty(t, gw.sessions)
}
