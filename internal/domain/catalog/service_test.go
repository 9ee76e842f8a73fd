package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/logger"
)

type memoryRepository struct {
	products map[string]*Product
	err      error
	calls    atomic.Int32
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (*Product, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

type memoryDocuments struct {
	docs map[string]*Document
	err  error
}

func (s *memoryDocuments) GetDocument(_ context.Context, _, uid, locale string) (*Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	doc, ok := s.docs[uid+"/"+locale]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func mug() *Product {
	return &Product{
		ID:       "mug",
		Name:     "Catalog Mug",
		Price:    decimal.RequireFromString("12.50"),
		Currency: "EUR",
		Weight:   decimal.RequireFromString("0.4"),
		ImageURL: "https://img.example/mug.png",
		IsActive: true,
	}
}

func strPtr(s string) *string { return &s }

func TestResolveForDisplay_CMSWinsFieldByField(t *testing.T) {
	repo := &memoryRepository{products: map[string]*Product{"mug": mug()}}
	r := NewResolver(repo, nil, "en-us", 4, logger.Discard())

	price := decimal.RequireFromString("9.99")
	display, err := r.ResolveForDisplay(context.Background(), "mug", &CMSFields{
		Name:  strPtr("Editorial Mug"),
		Price: &price,
	})
	require.NoError(t, err)

	assert.Equal(t, "Editorial Mug", display.Name)
	assert.True(t, price.Equal(display.Price))
	assert.Equal(t, "EUR", display.Currency)
	assert.Equal(t, "https://img.example/mug.png", display.ImageURL)
}

func TestResolveForDisplay_NothingKnown(t *testing.T) {
	r := NewResolver(&memoryRepository{}, nil, "en-us", 4, logger.Discard())

	_, err := r.ResolveForDisplay(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestResolveForCart_UsesCatalogOnly(t *testing.T) {
	repo := &memoryRepository{products: map[string]*Product{"mug": mug()}}
	r := NewResolver(repo, nil, "en-us", 4, logger.Discard())

	item, err := r.ResolveForCart(context.Background(), "mug")
	require.NoError(t, err)
	assert.Equal(t, "Catalog Mug", item.Name)
	assert.True(t, decimal.RequireFromString("12.50").Equal(item.UnitPrice))
	assert.Equal(t, 1, item.Quantity)
	assert.True(t, decimal.RequireFromString("0.4").Equal(item.Weight))

	_, err = r.ResolveForCart(context.Background(), "ghost")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	repo.err = errors.New("db down")
	_, err = r.ResolveForCart(context.Background(), "mug")
	assert.True(t, apperror.Is(err, apperror.KindInternal))
}

func TestResolveForCartOrCMS(t *testing.T) {
	docs := &memoryDocuments{docs: map[string]*Document{
		"poster/en-us": {UID: "poster", Type: "product", Lang: "en-us", Data: map[string]interface{}{
			"title":    "Poster",
			"price":    "15.00",
			"currency": "eur",
			"image":    map[string]interface{}{"url": "https://img.example/poster.png"},
		}},
		"sticker/en-us": {UID: "sticker", Data: map[string]interface{}{"title": "Sticker"}},
	}}
	repo := &memoryRepository{products: map[string]*Product{"mug": mug()}}
	r := NewResolver(repo, docs, "en-us", 4, logger.Discard())
	ctx := context.Background()

	item, source, err := r.ResolveForCartOrCMS(ctx, "mug", "")
	require.NoError(t, err)
	assert.Equal(t, PricingSourceCatalog, source)
	assert.Equal(t, "Catalog Mug", item.Name)

	item, source, err = r.ResolveForCartOrCMS(ctx, "poster", "")
	require.NoError(t, err)
	assert.Equal(t, PricingSourceCMS, source)
	assert.Equal(t, "Poster", item.Name)
	assert.Equal(t, "EUR", item.Currency)
	assert.Equal(t, "https://img.example/poster.png", item.ImageURL)

	_, _, err = r.ResolveForCartOrCMS(ctx, "sticker", "")
	assert.ErrorIs(t, err, ErrProductNotFound)

	docs.err = errors.New("cms timeout")
	_, _, err = r.ResolveForCartOrCMS(ctx, "poster", "")
	assert.True(t, apperror.Is(err, apperror.KindProvider))
}

func TestResolveMany(t *testing.T) {
	repo := &memoryRepository{products: map[string]*Product{
		"mug":    mug(),
		"poster": {ID: "poster", Name: "Poster", Price: decimal.NewFromInt(15), Currency: "EUR"},
	}}
	r := NewResolver(repo, nil, "en-us", 2, logger.Discard())

	products, err := r.ResolveMany(context.Background(), []string{"mug", "poster", "ghost", "mug"})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Contains(t, products, "mug")
	assert.NotContains(t, products, "ghost")
	assert.Equal(t, int32(3), repo.calls.Load())

	repo.err = errors.New("db down")
	_, err = r.ResolveMany(context.Background(), []string{"mug"})
	assert.Error(t, err)
}

func TestDocumentProductFields(t *testing.T) {
	doc := &Document{Data: map[string]interface{}{
		"name":  "Mug",
		"price": 12.5,
		"image": "https://img.example/mug.png",
	}}
	fields := doc.ProductFields()
	require.NotNil(t, fields.Price)
	assert.True(t, decimal.RequireFromString("12.5").Equal(*fields.Price))
	assert.Equal(t, "https://img.example/mug.png", *fields.ImageURL)
	assert.Nil(t, fields.Currency)
	assert.False(t, fields.HasPricing())

	var missing *Document
	assert.Nil(t, missing.ProductFields())
}

func TestCachedRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &memoryRepository{products: map[string]*Product{"mug": mug()}}
	cached := NewCachedRepository(repo, client, time.Minute, logger.Discard())
	ctx := context.Background()

	first, err := cached.FindByID(ctx, "mug")
	require.NoError(t, err)
	second, err := cached.FindByID(ctx, "mug")
	require.NoError(t, err)

	assert.Equal(t, int32(1), repo.calls.Load())
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, first.Price.Equal(second.Price))
	assert.True(t, mr.Exists("catalog:product:mug"))

	_, err = cached.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, ErrProductNotFound)

	mr.Close()
	degraded, err := cached.FindByID(ctx, "mug")
	require.NoError(t, err)
	assert.Equal(t, "Catalog Mug", degraded.Name)
}
