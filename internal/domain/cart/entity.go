// internal/domain/cart/entity.go
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/shipping"
	"github.com/your-org/storefront/internal/pkg/money"
)

// MaxQuantity bounds the quantity of a single cart line
const MaxQuantity = 999

// DefaultWeight is the parcel weight in kg assumed for items without one
var DefaultWeight = decimal.NewFromInt(1)

// CartItem represents one product line in the cart
type CartItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Currency  string          `json:"currency"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Weight    decimal.Decimal `json:"weight"`
}

// LineTotal returns unitPrice * quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return money.LineTotal(i.UnitPrice, i.Quantity)
}

// Cart is the persisted cart state. Items keep insertion order, which is
// also the display order. Totals are never stored.
type Cart struct {
	Items                  []CartItem               `json:"items"`
	SelectedShippingMethod *shipping.ShippingMethod `json:"selectedShippingMethod"`
}

// CartView is a cart with its derived values, as returned to clients
type CartView struct {
	Items                  []CartItem               `json:"items"`
	SelectedShippingMethod *shipping.ShippingMethod `json:"selectedShippingMethod"`
	ItemCount              int                      `json:"itemCount"`
	Subtotal               money.Totals             `json:"subtotal"`
	GrandTotal             money.Totals             `json:"grandTotal"`
	TotalWeight            decimal.Decimal          `json:"totalWeight"`
}

// ItemCount returns the sum of quantities
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of line totals grouped by currency
func (c Cart) Subtotal() money.Totals {
	totals := money.Totals{}
	for _, item := range c.Items {
		totals.Add(item.Currency, item.LineTotal())
	}
	return totals
}

// GrandTotal returns the subtotal plus the selected shipping price
func (c Cart) GrandTotal() money.Totals {
	totals := c.Subtotal()
	if c.SelectedShippingMethod != nil {
		totals.Add(c.SelectedShippingMethod.Currency, c.SelectedShippingMethod.Price)
	}
	return totals
}

// TotalWeight returns the parcel weight of the cart in kg
func (c Cart) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Weight.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// View returns the cart with its derived values
func (c Cart) View() CartView {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return CartView{
		Items:                  items,
		SelectedShippingMethod: c.SelectedShippingMethod,
		ItemCount:              c.ItemCount(),
		Subtotal:               c.Subtotal(),
		GrandTotal:             c.GrandTotal(),
		TotalWeight:            c.TotalWeight(),
	}
}

func (c Cart) clone() Cart {
	out := Cart{Items: make([]CartItem, len(c.Items))}
	copy(out.Items, c.Items)
	if c.SelectedShippingMethod != nil {
		method := *c.SelectedShippingMethod
		out.SelectedShippingMethod = &method
	}
	return out
}
