package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a buyer's cart, split into one group per supplier. Groups keep
// insertion order, which is also display order.
type Cart struct {
	OwnerID   string              `json:"owner_id"`
	Suppliers []SupplierCartGroup `json:"suppliers"`
	Version   int                 `json:"version"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SupplierCartGroup holds the lines of one supplier. A group is never empty.
type SupplierCartGroup struct {
	SupplierID   string     `json:"supplier_id"`
	SupplierName string     `json:"supplier_name"`
	Items        []CartLine `json:"items"`
}

// CartLine is one offer in a supplier group. Quantity is always >= 1.
type CartLine struct {
	OfferID   string          `json:"offer_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Stock     *int            `json:"stock,omitempty"`
	LengthCM  *int            `json:"length_cm,omitempty"`
}

// LineTotal is price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ExceedsStock reports whether the quantity is above the known stock. The
// quantity itself is never clamped to stock.
func (l CartLine) ExceedsStock() bool {
	return l.Stock != nil && l.Quantity > *l.Stock
}

// Subtotal sums the line totals of the group.
func (g SupplierCartGroup) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range g.Items {
		total = total.Add(l.LineTotal())
	}
	return total
}

// Group returns the group for supplierID.
func (c *Cart) Group(supplierID string) (SupplierCartGroup, bool) {
	if i := c.groupIndex(supplierID); i >= 0 {
		return c.Suppliers[i], true
	}
	return SupplierCartGroup{}, false
}

// SupplierSubtotal returns the subtotal of one supplier, zero when absent.
func (c *Cart) SupplierSubtotal(supplierID string) decimal.Decimal {
	g, _ := c.Group(supplierID)
	return g.Subtotal()
}

// GrandTotal sums all supplier subtotals.
func (c *Cart) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, g := range c.Suppliers {
		total = total.Add(g.Subtotal())
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, g := range c.Suppliers {
		for _, l := range g.Items {
			n += l.Quantity
		}
	}
	return n
}

// IsEmpty reports whether the cart has no groups.
func (c *Cart) IsEmpty() bool {
	return len(c.Suppliers) == 0
}

func (c *Cart) groupIndex(supplierID string) int {
	for i := range c.Suppliers {
		if c.Suppliers[i].SupplierID == supplierID {
			return i
		}
	}
	return -1
}

func (g *SupplierCartGroup) lineIndex(offerID string) int {
	for i := range g.Items {
		if g.Items[i].OfferID == offerID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	out := c
	if c.Suppliers == nil {
		return out
	}
	out.Suppliers = make([]SupplierCartGroup, len(c.Suppliers))
	for i, g := range c.Suppliers {
		g.Items = append([]CartLine(nil), g.Items...)
		for j := range g.Items {
			g.Items[j].Stock = cloneInt(g.Items[j].Stock)
			g.Items[j].LengthCM = cloneInt(g.Items[j].LengthCM)
		}
		out.Suppliers[i] = g
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
