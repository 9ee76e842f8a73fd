// internal/domain/shipping/quote_cache.go
package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuoteCache remembers the latest quote of a cart session
type QuoteCache interface {
	Save(ctx context.Context, sessionID string, methods []ShippingMethod) error
	Load(ctx context.Context, sessionID string) ([]ShippingMethod, error)
}

// RedisQuoteCache stores quotes as JSON with a short TTL
type RedisQuoteCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisQuoteCache creates a new Redis-backed quote cache
func NewRedisQuoteCache(redisClient *redis.Client, ttl time.Duration) *RedisQuoteCache {
	return &RedisQuoteCache{redisClient: redisClient, ttl: ttl}
}

func quoteKey(sessionID string) string {
	return fmt.Sprintf("shipping:quotes:%s", sessionID)
}

func (c *RedisQuoteCache) Save(ctx context.Context, sessionID string, methods []ShippingMethod) error {
	data, err := json.Marshal(methods)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, quoteKey(sessionID), data, c.ttl).Err()
}

// Load returns nil when the session has no live quote
func (c *RedisQuoteCache) Load(ctx context.Context, sessionID string) ([]ShippingMethod, error) {
	data, err := c.redisClient.Get(ctx, quoteKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var methods []ShippingMethod
	if err := json.Unmarshal(data, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

// MemoryQuoteCache keeps quotes in process memory without expiry
type MemoryQuoteCache struct {
	mu     sync.Mutex
	quotes map[string][]ShippingMethod
}

// NewMemoryQuoteCache creates an empty in-memory quote cache
func NewMemoryQuoteCache() *MemoryQuoteCache {
	return &MemoryQuoteCache{quotes: make(map[string][]ShippingMethod)}
}

func (c *MemoryQuoteCache) Save(_ context.Context, sessionID string, methods []ShippingMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[sessionID] = append([]ShippingMethod(nil), methods...)
	return nil
}

func (c *MemoryQuoteCache) Load(_ context.Context, sessionID string) ([]ShippingMethod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ShippingMethod(nil), c.quotes[sessionID]...), nil
}
