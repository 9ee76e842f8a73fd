// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// Handlers groups every handler mounted under /api/v1
type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Shipping *handlers.ShippingHandler
	Product  *handlers.ProductHandler
}

// SetupCartRoutes sets up the session cart routes
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.GET("/count", h.GetCartCount)
		cart.POST("/items", h.AddToCart)
		cart.PUT("/items/:id", h.UpdateCartItem)
		cart.DELETE("/items/:id", h.RemoveFromCart)
		cart.PUT("/shipping-method", h.SelectShippingMethod)
	}
}

// SetupCheckoutRoutes sets up payment creation and confirmation routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h *handlers.CheckoutHandler) {
	payments := rg.Group("")
	payments.Use(middleware.Idempotency())
	{
		payments.POST("/checkout-sessions", h.CreateCheckoutSession)
		payments.POST("/payment-intents", h.CreatePaymentIntent)
	}

	rg.GET("/checkout/success", h.ConfirmSuccess)
}

// SetupShippingRoutes sets up shipping quote routes
func SetupShippingRoutes(rg *gin.RouterGroup, h *handlers.ShippingHandler) {
	rg.POST("/shipping-rates", h.QuoteRates)
}

// SetupProductRoutes sets up product display routes
func SetupProductRoutes(rg *gin.RouterGroup, h *handlers.ProductHandler) {
	rg.GET("/products/:id", h.GetProduct)
}

// SetupRoutes mounts all API routes on rg
func SetupRoutes(rg *gin.RouterGroup, h Handlers) {
	SetupCartRoutes(rg, h.Cart)
	SetupCheckoutRoutes(rg, h.Checkout)
	SetupShippingRoutes(rg, h.Shipping)
	SetupProductRoutes(rg, h.Product)
}
