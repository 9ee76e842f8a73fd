// internal/domain/cart/store.go
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/your-org/storefront/internal/domain/shipping"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/money"
)

// Listener is notified with a snapshot after every successful mutation
type Listener func(Cart)

// Store is the state container for one cart session. It owns the cart,
// applies the state transitions and syncs every change to its Persister.
// A Store is safe for concurrent use; two Stores on the same key are not
// coordinated and the last write wins.
type Store struct {
	mu        sync.Mutex
	key       string
	persister Persister
	cart      Cart
	index     map[string]int

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextID     int
}

// NewStore loads the cart stored under key, or starts an empty one
func NewStore(ctx context.Context, key string, persister Persister) (*Store, error) {
	if key == "" {
		return nil, apperror.Validation("cart session is required")
	}

	loaded, err := persister.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	s := &Store{
		key:       key,
		persister: persister,
		listeners: make(map[int]Listener),
	}
	s.replace(loaded)
	return s, nil
}

// Key returns the cart session key
func (s *Store) Key() string {
	return s.key
}

// Snapshot returns a copy of the current cart
func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.clone()
}

// AddItem inserts item, or increments the quantity of the existing entry
// with the same id. Pricing of an existing entry is never overwritten.
func (s *Store) AddItem(ctx context.Context, item CartItem) error {
	item, err := normalizeItem(item)
	if err != nil {
		return err
	}

	return s.mutate(ctx, func(c *Cart, index map[string]int) error {
		if pos, ok := index[item.ID]; ok {
			if c.Items[pos].Quantity > MaxQuantity-item.Quantity {
				return apperror.Validationf("quantity for %s must not exceed %d", item.ID, MaxQuantity)
			}
			c.Items[pos].Quantity += item.Quantity
			return nil
		}
		c.Items = append(c.Items, item)
		return nil
	})
}

// RemoveItem deletes the entry with id; absent ids are a no-op
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.index[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	return s.mutate(ctx, func(c *Cart, index map[string]int) error {
		if pos, ok := index[id]; ok {
			c.Items = append(c.Items[:pos], c.Items[pos+1:]...)
		}
		return nil
	})
}

// UpdateQuantity sets the quantity of id. A quantity of zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}
	if quantity > MaxQuantity {
		return apperror.Validationf("quantity must not exceed %d", MaxQuantity)
	}

	s.mu.Lock()
	_, ok := s.index[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	return s.mutate(ctx, func(c *Cart, index map[string]int) error {
		if pos, ok := index[id]; ok {
			c.Items[pos].Quantity = quantity
		}
		return nil
	})
}

// SetShippingMethod selects method; nil clears the selection
func (s *Store) SetShippingMethod(ctx context.Context, method *shipping.ShippingMethod) error {
	var selected *shipping.ShippingMethod
	if method != nil {
		m := *method
		selected = &m
	}

	return s.mutate(ctx, func(c *Cart, _ map[string]int) error {
		c.SelectedShippingMethod = selected
		return nil
	})
}

// ClearCart empties the items and unsets the shipping method
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	if err := s.persister.Delete(ctx, s.key); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.replace(Cart{})
	snapshot := s.cart.clone()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// ItemCount returns the sum of quantities
func (s *Store) ItemCount() int {
	return s.Snapshot().ItemCount()
}

// Subtotal returns the sum of unitPrice * quantity grouped by currency
func (s *Store) Subtotal() money.Totals {
	return s.Snapshot().Subtotal()
}

// Subscribe registers listener and returns a function that removes it
func (s *Store) Subscribe(listener Listener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		delete(s.listeners, id)
	}
}

// mutate applies fn to a copy of the cart, persists it and only then
// makes it the current state. An error from fn leaves the cart untouched.
func (s *Store) mutate(ctx context.Context, fn func(c *Cart, index map[string]int) error) error {
	s.mu.Lock()
	next := s.cart.clone()
	if err := fn(&next, s.index); err != nil {
		s.mu.Unlock()
		return err
	}

	if err := s.persister.Save(ctx, s.key, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to save cart: %w", err)
	}
	s.replace(next)
	snapshot := s.cart.clone()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

func (s *Store) replace(c Cart) {
	s.cart = c
	s.index = make(map[string]int, len(c.Items))
	for i, item := range c.Items {
		s.index[item.ID] = i
	}
}

func (s *Store) notify(snapshot Cart) {
	s.listenerMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenerMu.Unlock()

	for _, l := range listeners {
		l(snapshot.clone())
	}
}

func normalizeItem(item CartItem) (CartItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return item, apperror.Validation("item id is required")
	}
	if item.Quantity < 0 {
		return item, apperror.Validationf("quantity for %s must not be negative", item.ID)
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Quantity > MaxQuantity {
		return item, apperror.Validationf("quantity for %s must not exceed %d", item.ID, MaxQuantity)
	}
	if item.UnitPrice.IsNegative() {
		return item, apperror.Validationf("price for %s must not be negative", item.ID)
	}
	item.Currency = money.NormalizeCurrency(item.Currency)
	if !money.ValidCurrency(item.Currency) {
		return item, apperror.Validationf("currency for %s must be an ISO-4217 code", item.ID)
	}
	if !item.Weight.IsPositive() {
		item.Weight = DefaultWeight
	}
	return item, nil
}
