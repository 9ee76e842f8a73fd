// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// CheckoutHandler handles payment creation and the success page
type CheckoutHandler struct {
	checkoutService *checkout.Service
	confirmer       *checkout.Confirmer
	sessions        sessionCookies
	logger          *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, confirmer *checkout.Confirmer, cfg *config.Config, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		confirmer:       confirmer,
		sessions:        newSessionCookies(cfg),
		logger:          logger,
	}
}

type checkoutSessionRequest struct {
	Items      json.RawMessage `json:"items"`
	SuccessURL string          `json:"successUrl"`
	CancelURL  string          `json:"cancelUrl"`
}

type paymentIntentRequest struct {
	Items    json.RawMessage `json:"items"`
	Currency string          `json:"currency"`
}

// CreateCheckoutSession handles POST /checkout-sessions
func (h *CheckoutHandler) CreateCheckoutSession(c *gin.Context) {
	var req checkoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	items, err := checkout.ParseItems(req.Items)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	session, err := h.checkoutService.CreateHostedSession(c.Request.Context(), &checkout.HostedSessionRequest{
		Items:          items,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
		Origin:         requestOrigin(c),
		IdempotencyKey: c.GetString(middleware.IdempotencyKey),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CreatePaymentIntent handles POST /payment-intents
func (h *CheckoutHandler) CreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	items, err := checkout.ParseItems(req.Items)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	intent, err := h.checkoutService.CreatePaymentIntent(c.Request.Context(), &checkout.PaymentIntentRequest{
		Items:          items,
		Currency:       req.Currency,
		IdempotencyKey: c.GetString(middleware.IdempotencyKey),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

// ConfirmSuccess handles GET /checkout/success
func (h *CheckoutHandler) ConfirmSuccess(c *gin.Context) {
	result, err := h.confirmer.Confirm(c.Request.Context(), &checkout.ConfirmationRequest{
		CartSessionID:   h.sessions.current(c),
		SessionID:       c.Query("session_id"),
		PaymentIntentID: c.Query("payment_intent"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
