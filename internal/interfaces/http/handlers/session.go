// internal/interfaces/http/handlers/session.go
package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/storefront/internal/config"
)

// CartSessionCookie names the cookie holding the cart session id
const CartSessionCookie = "cart_session"

// sessionCookies issues and reads the cart session cookie
type sessionCookies struct {
	maxAge int
	secure bool
}

func newSessionCookies(cfg *config.Config) sessionCookies {
	return sessionCookies{
		maxAge: int(cfg.Checkout.CartTTL / time.Second),
		secure: cfg.Security.SecureCookies,
	}
}

// current returns the cart session id of the request, or "" when there is none
func (s sessionCookies) current(c *gin.Context) string {
	sessionID, err := c.Cookie(CartSessionCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return ""
	}
	return sessionID
}

// getOrCreate returns the cart session id, minting one and setting the
// cookie when the request has none. The cookie is refreshed either way.
func (s sessionCookies) getOrCreate(c *gin.Context) string {
	sessionID := s.current(c)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// Cross-site storefronts need SameSite=None, which browsers only accept on secure cookies.
	if s.secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(CartSessionCookie, sessionID, s.maxAge, "/", "", s.secure, true)
	return sessionID
}

// requestOrigin returns the scheme and host the buyer is browsing from
func requestOrigin(c *gin.Context) string {
	if origin := c.GetHeader("Origin"); origin != "" && origin != "null" {
		return origin
	}
	if referer := c.GetHeader("Referer"); referer != "" {
		if u, err := url.Parse(referer); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}

	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
