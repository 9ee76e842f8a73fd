// internal/interfaces/http/handlers/shipping.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/shipping"
)

// ShippingHandler handles shipping quotes
type ShippingHandler struct {
	shippingService *shipping.Service
	sessions        sessionCookies
	logger          *logrus.Logger
}

// NewShippingHandler creates a new shipping handler
func NewShippingHandler(shippingService *shipping.Service, cfg *config.Config, logger *logrus.Logger) *ShippingHandler {
	return &ShippingHandler{
		shippingService: shippingService,
		sessions:        newSessionCookies(cfg),
		logger:          logger,
	}
}

// QuoteRates handles POST /shipping-rates
func (h *ShippingHandler) QuoteRates(c *gin.Context) {
	var req shipping.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sessionID := h.sessions.getOrCreate(c)
	methods, err := h.shippingService.QuoteRates(c.Request.Context(), sessionID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shippingRates": methods,
	})
}
