package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/shipping"
	"github.com/your-org/storefront/internal/pkg/logger"
)

func newTestClient(url string) *Client {
	cfg := &config.Config{}
	cfg.External.Carrier.BaseURL = url
	cfg.External.Carrier.APIKey = "key"
	cfg.External.Carrier.APISecret = "secret"
	cfg.Checkout.ProviderTimeout = 2 * time.Second
	return NewClient(cfg, logger.Discard())
}

func TestQuoteRates(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rates", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rates":[{"id":"r1","service_name":"Standard","carrier":"PostNL","amount":"4.95","currency":"EUR","min_delivery_days":1,"max_delivery_days":3}]}`))
	}))
	defer server.Close()

	from := shipping.CarrierAddress{Address1: "Warehouse 1", City: "Amsterdam", PostalCode: "1011AA", Country: "NL"}
	to := shipping.ToCarrierAddress(shipping.Address{Line1: "A", City: "C", PostalCode: "1", Country: "NL"})

	rates, err := newTestClient(server.URL).QuoteRates(context.Background(), from, to, decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "r1", rates[0].ID)
	assert.True(t, decimal.RequireFromString("4.95").Equal(rates[0].Amount))
	assert.Equal(t, 3, rates[0].MaxDeliveryDays)

	toAddress := received["to_address"].(map[string]interface{})
	assert.Equal(t, "A", toAddress["address_1"])
	assert.NotContains(t, toAddress, "address_2")
	parcels := received["parcels"].([]interface{})
	assert.Equal(t, "1.500", parcels[0].(map[string]interface{})["weight"])
}

func TestQuoteRates_NoRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates":[]}`))
	}))
	defer server.Close()

	rates, err := newTestClient(server.URL).QuoteRates(context.Background(), shipping.CarrierAddress{}, shipping.CarrierAddress{}, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestQuoteRates_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad gateway"}`, http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).QuoteRates(context.Background(), shipping.CarrierAddress{}, shipping.CarrierAddress{}, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestQuoteRates_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).QuoteRates(context.Background(), shipping.CarrierAddress{}, shipping.CarrierAddress{}, decimal.NewFromInt(1))
	assert.Error(t, err)
}
