// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"golang.org/x/sync/errgroup"
)

// ProductDocumentType is the CMS document type of product pages
const ProductDocumentType = "product"

// Resolver reconciles CMS display data with the canonical catalog.
// Display resolution prefers the CMS; cart resolution trusts only the catalog.
type Resolver struct {
	repo          Repository
	cms           DocumentSource
	logger        *logrus.Logger
	concurrency   int
	defaultLocale string
}

// NewResolver creates a new product resolver. cms may be nil.
func NewResolver(repo Repository, cms DocumentSource, defaultLocale string, concurrency int, logger *logrus.Logger) *Resolver {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Resolver{
		repo:          repo,
		cms:           cms,
		logger:        logger,
		concurrency:   concurrency,
		defaultLocale: defaultLocale,
	}
}

// ResolveForDisplay returns the product as shown on a page: CMS fields win,
// each missing one falls back to the catalog record.
func (r *Resolver) ResolveForDisplay(ctx context.Context, productID string, cmsFields *CMSFields) (*DisplayProduct, error) {
	product, err := r.repo.FindByID(ctx, productID)
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		// Display can live without the catalog; log and use what the CMS has.
		r.logger.WithError(err).WithField("product_id", productID).Warn("catalog lookup failed during display resolution")
		product = nil
	}

	if product == nil && cmsFields == nil {
		return nil, ErrProductNotFound
	}

	display := &DisplayProduct{ID: productID}
	if product != nil {
		display.Name = product.Name
		display.Price = product.Price
		display.Currency = product.Currency
		display.ImageURL = product.ImageURL
	}
	if cmsFields != nil {
		if cmsFields.Name != nil {
			display.Name = *cmsFields.Name
		}
		if cmsFields.Price != nil {
			display.Price = *cmsFields.Price
		}
		if cmsFields.Currency != nil {
			display.Currency = *cmsFields.Currency
		}
		if cmsFields.ImageURL != nil {
			display.ImageURL = *cmsFields.ImageURL
		}
	}

	return display, nil
}

// ResolveForCart builds a cart item strictly from the canonical record
func (r *Resolver) ResolveForCart(ctx context.Context, productID string) (cart.CartItem, error) {
	product, err := r.repo.FindByID(ctx, productID)
	if errors.Is(err, ErrProductNotFound) {
		return cart.CartItem{}, err
	} else if err != nil {
		return cart.CartItem{}, apperror.Internal("failed to resolve product", err)
	}
	return itemFromProduct(product), nil
}

// ResolveForCartOrCMS resolves from the catalog and only when the catalog
// has no record falls back to CMS pricing. Every fallback is logged as a
// data-integrity warning because the price charged may not match the catalog.
func (r *Resolver) ResolveForCartOrCMS(ctx context.Context, productID, locale string) (cart.CartItem, PricingSource, error) {
	item, err := r.ResolveForCart(ctx, productID)
	if err == nil {
		return item, PricingSourceCatalog, nil
	}
	if !errors.Is(err, ErrProductNotFound) {
		return cart.CartItem{}, "", err
	}

	fields, cmsErr := r.LookupCMS(ctx, productID, locale)
	if cmsErr != nil && !apperror.Is(cmsErr, apperror.KindNotFound) {
		return cart.CartItem{}, "", cmsErr
	}
	if !fields.HasPricing() {
		return cart.CartItem{}, "", ErrProductNotFound
	}

	item = cart.CartItem{
		ID:        productID,
		Name:      *fields.Name,
		UnitPrice: *fields.Price,
		Currency:  *fields.Currency,
		Quantity:  1,
		Weight:    cart.DefaultWeight,
	}
	if fields.ImageURL != nil {
		item.ImageURL = *fields.ImageURL
	}

	r.logger.WithFields(logrus.Fields{
		"product_id": productID,
		"price":      item.UnitPrice.String(),
		"currency":   item.Currency,
		"integrity":  "cms_pricing_fallback",
	}).Warn("product missing from catalog, using CMS pricing; amount charged may not match catalog")

	return item, PricingSourceCMS, nil
}

// ResolveMany looks up canonical records concurrently. Ids without a record
// are absent from the result.
func (r *Resolver) ResolveMany(ctx context.Context, ids []string) (map[string]*Product, error) {
	result := make(map[string]*Product, len(ids))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		id := id
		g.Go(func() error {
			product, err := r.repo.FindByID(ctx, id)
			if errors.Is(err, ErrProductNotFound) {
				return nil
			} else if err != nil {
				return err
			}
			mu.Lock()
			result[id] = product
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperror.Internal("failed to resolve products", err)
	}
	return result, nil
}

// LookupCMS fetches the CMS product document for productID
func (r *Resolver) LookupCMS(ctx context.Context, productID, locale string) (*CMSFields, error) {
	if r.cms == nil {
		return nil, ErrProductNotFound
	}
	if locale == "" {
		locale = r.defaultLocale
	}

	doc, err := r.cms.GetDocument(ctx, ProductDocumentType, productID, locale)
	if errors.Is(err, ErrDocumentNotFound) {
		return nil, ErrProductNotFound
	} else if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"product_id": productID,
			"locale":     locale,
		}).Error("cms lookup failed")
		return nil, apperror.Provider("failed to load product content", err)
	}
	return doc.ProductFields(), nil
}

func itemFromProduct(p *Product) cart.CartItem {
	weight := p.Weight
	if !weight.IsPositive() {
		weight = cart.DefaultWeight
	}
	return cart.CartItem{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Currency:  p.Currency,
		Quantity:  1,
		ImageURL:  p.ImageURL,
		Weight:    weight,
	}
}
