// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/pkg/apperror"
)

// ProductHandler serves products as the storefront displays them
type ProductHandler struct {
	resolver *catalog.Resolver
	logger   *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(resolver *catalog.Resolver, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID := c.Param("id")
	ctx := c.Request.Context()

	fields, err := h.resolver.LookupCMS(ctx, productID, c.Query("locale"))
	if err != nil && !apperror.Is(err, apperror.KindNotFound) {
		// The catalog alone is enough to render; the failure is already logged.
		fields = nil
	}

	product, err := h.resolver.ResolveForDisplay(ctx, productID, fields)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, product)
}
