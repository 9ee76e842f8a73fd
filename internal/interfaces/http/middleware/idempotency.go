// internal/interfaces/http/middleware/idempotency.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	IdempotencyKey    = "idempotency_key"

	maxIdempotencyKeyLength = 255
)

// Idempotency validates the Idempotency-Key header and stores it on the context
func Idempotency() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Idempotency-Key must be at most 255 characters",
			})
			return
		}
		if key != "" {
			c.Set(IdempotencyKey, key)
		}
		c.Next()
	}
}
