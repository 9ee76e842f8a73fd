// internal/domain/catalog/entity.go
package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the canonical catalog record: the only source trusted for
// amounts that end up in a cart.
type Product struct {
	ID        string          `gorm:"primaryKey;size:100" json:"id"`
	Name      string          `gorm:"not null;size:255" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"price"`
	Currency  string          `gorm:"not null;size:3" json:"currency"`
	Weight    decimal.Decimal `gorm:"type:numeric(10,3);not null;default:1" json:"weight"` // kg
	ImageURL  string          `gorm:"size:500" json:"imageUrl"`
	IsActive  bool            `gorm:"default:true;index" json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "catalog_products"
}

// Document is a CMS document, opaque apart from its identity
type Document struct {
	ID   string                 `json:"id"`
	UID  string                 `json:"uid"`
	Type string                 `json:"type"`
	Lang string                 `json:"lang"`
	Data map[string]interface{} `json:"data"`
}

// CMSFields are the product fields an editor may have set on a CMS document.
// Nil means the field is absent.
type CMSFields struct {
	Name     *string
	Price    *decimal.Decimal
	Currency *string
	ImageURL *string
}

// HasPricing reports whether the CMS record carries a usable price
func (f *CMSFields) HasPricing() bool {
	return f != nil && f.Price != nil && !f.Price.IsNegative() && f.Currency != nil && f.Name != nil
}

// DisplayProduct is a product as shown on a page
type DisplayProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// PricingSource tells where cart pricing came from
type PricingSource string

const (
	PricingSourceCatalog PricingSource = "catalog"
	PricingSourceCMS     PricingSource = "cms"
)

// ProductFields extracts the product fields from the document data.
// Unknown shapes are treated as absent.
func (d *Document) ProductFields() *CMSFields {
	if d == nil || d.Data == nil {
		return nil
	}

	fields := &CMSFields{}
	if name := firstString(d.Data, "name", "title"); name != "" {
		fields.Name = &name
	}
	if currency := firstString(d.Data, "currency"); currency != "" {
		currency = strings.ToUpper(currency)
		fields.Currency = &currency
	}
	if price, ok := decimalField(d.Data["price"]); ok {
		fields.Price = &price
	}

	switch image := d.Data["image"].(type) {
	case string:
		if image != "" {
			fields.ImageURL = &image
		}
	case map[string]interface{}:
		if url, ok := image["url"].(string); ok && url != "" {
			fields.ImageURL = &url
		}
	}

	return fields
}

func firstString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func decimalField(v interface{}) (decimal.Decimal, bool) {
	switch value := v.(type) {
	case float64:
		return decimal.NewFromFloat(value), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}
