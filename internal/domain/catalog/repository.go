// internal/domain/catalog/repository.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when an id has no active canonical record
var ErrProductNotFound = apperror.NotFound("product not found")

// ErrDocumentNotFound is returned by a DocumentSource for unknown documents
var ErrDocumentNotFound = apperror.NotFound("cms document not found")

// Repository reads canonical product records
type Repository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
}

// DocumentSource is the read-only CMS, keyed by type, UID and locale
type DocumentSource interface {
	GetDocument(ctx context.Context, docType, uid, locale string) (*Document, error)
}

// GormRepository reads products from PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM-backed repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// FindByID returns the active product with id
func (r *GormRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	return &product, nil
}

// CachedRepository is a read-through Redis cache in front of a Repository.
// Cache failures degrade to the underlying repository.
type CachedRepository struct {
	next        Repository
	redisClient *redis.Client
	ttl         time.Duration
	logger      *logrus.Logger
}

// NewCachedRepository wraps next with a Redis cache
func NewCachedRepository(next Repository, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedRepository {
	return &CachedRepository{
		next:        next,
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

func productCacheKey(id string) string {
	return fmt.Sprintf("catalog:product:%s", id)
}

// FindByID serves from cache when possible
func (r *CachedRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	key := productCacheKey(id)

	data, err := r.redisClient.Get(ctx, key).Bytes()
	if err == nil {
		var product Product
		if jsonErr := json.Unmarshal(data, &product); jsonErr == nil {
			return &product, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.WithError(err).WithField("product_id", id).Warn("catalog cache read failed")
	}

	product, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := r.redisClient.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.logger.WithError(err).WithField("product_id", id).Warn("catalog cache write failed")
		}
	}

	return product, nil
}
