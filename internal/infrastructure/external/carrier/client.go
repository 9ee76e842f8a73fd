// internal/infrastructure/external/carrier/client.go
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/shipping"
)

const maxErrorBody = 2048

// Client talks to the carrier's rate-quote API
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new carrier API client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.External.Carrier.BaseURL, "/"),
		apiKey:    cfg.External.Carrier.APIKey,
		apiSecret: cfg.External.Carrier.APISecret,
		httpClient: &http.Client{
			Timeout: cfg.Checkout.ProviderTimeout,
		},
		logger: logger,
	}
}

type parcel struct {
	Weight     string `json:"weight"`
	WeightUnit string `json:"weight_unit"`
}

type quoteRequest struct {
	FromAddress shipping.CarrierAddress `json:"from_address"`
	ToAddress   shipping.CarrierAddress `json:"to_address"`
	Parcels     []parcel                `json:"parcels"`
}

type rateResponse struct {
	ID              string          `json:"id"`
	ServiceName     string          `json:"service_name"`
	Carrier         string          `json:"carrier"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	MinDeliveryDays int             `json:"min_delivery_days"`
	MaxDeliveryDays int             `json:"max_delivery_days"`
}

type quoteResponse struct {
	Rates []rateResponse `json:"rates"`
}

// QuoteRates requests rates for one parcel from the carrier
func (c *Client) QuoteRates(ctx context.Context, from, to shipping.CarrierAddress, weightKg decimal.Decimal) ([]shipping.CarrierRate, error) {
	body := quoteRequest{
		FromAddress: from,
		ToAddress:   to,
		Parcels: []parcel{{
			Weight:     weightKg.StringFixed(3),
			WeightUnit: "kg",
		}},
	}

	started := time.Now()
	response, err := c.makeAPICall(ctx, http.MethodPost, "/rates", body)
	if err != nil {
		return nil, err
	}

	var parsed quoteResponse
	if err := json.Unmarshal(response, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse carrier response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"rates":       len(parsed.Rates),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("carrier rates received")

	rates := make([]shipping.CarrierRate, 0, len(parsed.Rates))
	for _, r := range parsed.Rates {
		rates = append(rates, shipping.CarrierRate{
			ID:              r.ID,
			ServiceName:     r.ServiceName,
			Carrier:         r.Carrier,
			Amount:          r.Amount,
			Currency:        r.Currency,
			MinDeliveryDays: r.MinDeliveryDays,
			MaxDeliveryDays: r.MaxDeliveryDays,
		})
	}
	return rates, nil
}

// makeAPICall sends a JSON request and returns the body of a 2xx response
func (c *Client) makeAPICall(ctx context.Context, method, endpoint string, data interface{}) ([]byte, error) {
	var reqBody io.Reader
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request data: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("carrier request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read carrier response: %w", err)
	}

	if resp.StatusCode >= 400 {
		snippet := respBody
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		c.logger.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
			"body":     string(snippet),
		}).Warn("carrier API returned an error")
		return nil, fmt.Errorf("carrier API returned status %d", resp.StatusCode)
	}

	return respBody, nil
}
