// internal/domain/cart/persistence.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persister stores carts by cart session key
type Persister interface {
	Load(ctx context.Context, key string) (Cart, error)
	Save(ctx context.Context, key string, cart Cart) error
	Delete(ctx context.Context, key string) error
}

// RedisPersister keeps each cart as a JSON document with a sliding TTL
type RedisPersister struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisPersister creates a new Redis-backed persister
func NewRedisPersister(redisClient *redis.Client, ttl time.Duration) *RedisPersister {
	return &RedisPersister{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Load returns the stored cart, or an empty cart when none exists
func (p *RedisPersister) Load(ctx context.Context, key string) (Cart, error) {
	data, err := p.redisClient.Get(ctx, cartKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Cart{}, nil
	} else if err != nil {
		return Cart{}, err
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, fmt.Errorf("corrupt cart document: %w", err)
	}
	return c, nil
}

// Save writes the cart and refreshes its expiration
func (p *RedisPersister) Save(ctx context.Context, key string, c Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return p.redisClient.Set(ctx, cartKey(key), data, p.ttl).Err()
}

// Delete removes the cart
func (p *RedisPersister) Delete(ctx context.Context, key string) error {
	return p.redisClient.Del(ctx, cartKey(key)).Err()
}

// MemoryPersister keeps carts in process memory
type MemoryPersister struct {
	mu    sync.Mutex
	carts map[string]Cart
}

// NewMemoryPersister creates an empty in-memory persister
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{carts: make(map[string]Cart)}
}

func (p *MemoryPersister) Load(_ context.Context, key string) (Cart, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.carts[key].clone(), nil
}

func (p *MemoryPersister) Save(_ context.Context, key string, c Cart) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.carts[key] = c.clone()
	return nil
}

func (p *MemoryPersister) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.carts, key)
	return nil
}
