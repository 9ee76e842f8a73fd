// internal/domain/cart/service.go
package cart

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Service hands out a Store per cart session
type Service struct {
	persister Persister
	logger    *logrus.Logger
}

// NewService creates a new cart service
func NewService(persister Persister, logger *logrus.Logger) *Service {
	return &Service{
		persister: persister,
		logger:    logger,
	}
}

// Open loads the Store for a cart session. Every mutation made through the
// returned store is logged at debug level.
func (s *Service) Open(ctx context.Context, sessionID string) (*Store, error) {
	store, err := NewStore(ctx, sessionID, s.persister)
	if err != nil {
		return nil, err
	}

	store.Subscribe(func(c Cart) {
		s.logger.WithFields(logrus.Fields{
			"cart_session": sessionID,
			"lines":        len(c.Items),
			"item_count":   c.ItemCount(),
		}).Debug("cart updated")
	})

	return store, nil
}

// Clear empties the cart of a session without loading it first
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.persister.Delete(ctx, sessionID)
}
