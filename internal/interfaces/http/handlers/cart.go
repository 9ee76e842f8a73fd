// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/shipping"
	"github.com/your-org/storefront/internal/pkg/apperror"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService     *cart.Service
	resolver        *catalog.Resolver
	shippingService *shipping.Service
	sessions        sessionCookies
	logger          *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, resolver *catalog.Resolver, shippingService *shipping.Service, cfg *config.Config, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		resolver:        resolver,
		shippingService: shippingService,
		sessions:        newSessionCookies(cfg),
		logger:          logger,
	}
}

// AddToCartRequest is the body of POST /cart/items
type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
	Locale    string `json:"locale"`
}

// UpdateCartItemRequest is the body of PUT /cart/items/:id
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// SelectShippingRequest is the body of PUT /cart/shipping-method
type SelectShippingRequest struct {
	ID *string `json:"id"`
}

type addToCartResponse struct {
	cart.CartView
	PricingSource catalog.PricingSource `json:"pricingSource"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store, ok := h.openStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Snapshot().View())
}

// AddToCart handles POST /cart/items. Pricing always comes from the server.
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Quantity < 0 {
		respondError(c, h.logger, apperror.Validation("quantity must not be negative"))
		return
	}

	item, source, err := h.resolver.ResolveForCartOrCMS(c.Request.Context(), req.ProductID, req.Locale)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	item.Quantity = req.Quantity

	store, ok := h.openStore(c)
	if !ok {
		return
	}
	if err := store.AddItem(c.Request.Context(), item); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, addToCartResponse{
		CartView:      store.Snapshot().View(),
		PricingSource: source,
	})
}

// UpdateCartItem handles PUT /cart/items/:id. A quantity of 0 removes the item.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	store, ok := h.openStore(c)
	if !ok {
		return
	}
	if err := store.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, store.Snapshot().View())
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	store, ok := h.openStore(c)
	if !ok {
		return
	}
	if err := store.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, store.Snapshot().View())
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	store, ok := h.openStore(c)
	if !ok {
		return
	}
	if err := store.ClearCart(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	store, ok := h.openStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": store.ItemCount(),
	})
}

// SelectShippingMethod handles PUT /cart/shipping-method. Only a method
// from the session's latest quote can be selected; a null id clears it.
func (h *CartHandler) SelectShippingMethod(c *gin.Context) {
	var req SelectShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	store, ok := h.openStore(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var method *shipping.ShippingMethod
	if req.ID != nil {
		if *req.ID == "" {
			respondError(c, h.logger, apperror.Validation("id must not be empty"))
			return
		}
		selected, err := h.shippingService.SelectQuoted(ctx, store.Key(), *req.ID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		method = selected
	}

	if err := store.SetShippingMethod(ctx, method); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, store.Snapshot().View())
}

func (h *CartHandler) openStore(c *gin.Context) (*cart.Store, bool) {
	sessionID := h.sessions.getOrCreate(c)
	store, err := h.cartService.Open(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, apperror.Internal("failed to load cart", err))
		return nil, false
	}
	return store, true
}
