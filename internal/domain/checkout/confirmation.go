// internal/domain/checkout/confirmation.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/pkg/apperror"
)

// ConfirmationStatus is what the success page should render
type ConfirmationStatus string

const (
	// StatusUnverified means no payment reference was supplied
	StatusUnverified ConfirmationStatus = "unverified"
	// StatusPending means the provider has not seen the payment complete
	StatusPending ConfirmationStatus = "pending"
	// StatusPaid means the provider confirmed the payment
	StatusPaid ConfirmationStatus = "paid"
)

// ConfirmationRequest carries the references from the provider's return URL
type ConfirmationRequest struct {
	CartSessionID   string
	SessionID       string
	PaymentIntentID string
}

// Confirmation is the outcome of a success page visit
type Confirmation struct {
	Status  ConfirmationStatus `json:"status"`
	Cleared bool               `json:"cleared"`
}

// Ledger records which payment references already cleared a cart
type Ledger interface {
	// MarkOnce records ref and reports whether this call was the first
	MarkOnce(ctx context.Context, ref string) (bool, error)
	Unmark(ctx context.Context, ref string) error
}

// CartClearer empties the cart of a session
type CartClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Confirmer verifies completed payments and clears the buyer's cart
// exactly once per payment reference.
type Confirmer struct {
	gateway payment.Gateway
	ledger  Ledger
	carts   CartClearer
	logger  *logrus.Logger
}

// NewConfirmer creates a new success confirmation handler
func NewConfirmer(gateway payment.Gateway, ledger Ledger, carts CartClearer, logger *logrus.Logger) *Confirmer {
	return &Confirmer{
		gateway: gateway,
		ledger:  ledger,
		carts:   carts,
		logger:  logger,
	}
}

// Confirm checks the payment behind the references and clears the cart when paid
func (c *Confirmer) Confirm(ctx context.Context, req *ConfirmationRequest) (*Confirmation, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	intentID := strings.TrimSpace(req.PaymentIntentID)

	if sessionID == "" && intentID == "" {
		return &Confirmation{Status: StatusUnverified}, nil
	}

	ref, paid, err := c.verify(ctx, sessionID, intentID)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return &Confirmation{Status: StatusUnverified}, nil
	}
	if !paid {
		return &Confirmation{Status: StatusPending}, nil
	}

	if req.CartSessionID == "" {
		c.logger.WithField("payment_ref", ref).Info("payment confirmed without a cart session")
		return &Confirmation{Status: StatusPaid}, nil
	}

	first, err := c.ledger.MarkOnce(ctx, ref)
	if err != nil {
		return nil, apperror.Internal("failed to record confirmation", err)
	}
	if !first {
		return &Confirmation{Status: StatusPaid}, nil
	}

	if err := c.carts.Clear(ctx, req.CartSessionID); err != nil {
		// Release the marker so a retry can clear the cart.
		if unmarkErr := c.ledger.Unmark(ctx, ref); unmarkErr != nil {
			c.logger.WithError(unmarkErr).WithField("payment_ref", ref).Error("failed to release confirmation marker")
		}
		return nil, apperror.Internal("failed to clear cart", err)
	}

	c.logger.WithField("payment_ref", ref).Info("payment confirmed, cart cleared")
	return &Confirmation{Status: StatusPaid, Cleared: true}, nil
}

// verify returns the reference that identifies the payment and whether it
// is complete. An empty ref means no supplied id is known to the provider.
func (c *Confirmer) verify(ctx context.Context, sessionID, intentID string) (string, bool, error) {
	var ref string

	if sessionID != "" {
		session, err := c.gateway.GetCheckoutSession(ctx, sessionID)
		switch {
		case errors.Is(err, payment.ErrNotFound):
			c.logger.WithField("session_id", sessionID).Warn("unknown checkout session on success page")
		case err != nil:
			return "", false, apperror.Provider("failed to verify checkout session", err)
		default:
			ref = "cs:" + session.ID
			if session.Status == payment.StatusPaid {
				return ref, true, nil
			}
		}
	}

	if intentID != "" {
		intent, err := c.gateway.GetPaymentIntent(ctx, intentID)
		switch {
		case errors.Is(err, payment.ErrNotFound):
			c.logger.WithField("payment_intent_id", intentID).Warn("unknown payment intent on success page")
		case err != nil:
			return "", false, apperror.Provider("failed to verify payment intent", err)
		default:
			if intent.Status == payment.StatusPaid {
				return "pi:" + intent.ID, true, nil
			}
			if ref == "" {
				ref = "pi:" + intent.ID
			}
		}
	}

	return ref, false, nil
}

func confirmationKey(ref string) string {
	return fmt.Sprintf("checkout:confirmed:%s", ref)
}

// RedisLedger keeps confirmation markers in Redis
type RedisLedger struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisLedger creates a Redis-backed ledger whose markers expire after ttl
func NewRedisLedger(redisClient *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{redisClient: redisClient, ttl: ttl}
}

// MarkOnce sets the marker only if it is absent
func (l *RedisLedger) MarkOnce(ctx context.Context, ref string) (bool, error) {
	return l.redisClient.SetNX(ctx, confirmationKey(ref), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

// Unmark removes the marker
func (l *RedisLedger) Unmark(ctx context.Context, ref string) error {
	return l.redisClient.Del(ctx, confirmationKey(ref)).Err()
}

// MemoryLedger is an in-process ledger
type MemoryLedger struct {
	mu   sync.Mutex
	refs map[string]struct{}
}

// NewMemoryLedger creates an empty in-process ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{refs: make(map[string]struct{})}
}

func (l *MemoryLedger) MarkOnce(_ context.Context, ref string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.refs[ref]; ok {
		return false, nil
	}
	l.refs[ref] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Unmark(_ context.Context, ref string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.refs, ref)
	return nil
}
