package domain

// CartAction is a cart mutation. Reduce applies it.
type CartAction interface {
	// Name is used in logs, metrics and event payloads.
	Name() string
}

// AddToCart creates the supplier group if needed, then merges Line by offer ID
// or appends it.
type AddToCart struct {
	SupplierID   string
	SupplierName string
	Line         CartLine
}

// UpdateQuantity sets the quantity of a line, floored at 1.
type UpdateQuantity struct {
	SupplierID string
	OfferID    string
	Quantity   int
}

// RemoveItem removes a line and drops its group when it becomes empty.
type RemoveItem struct {
	SupplierID string
	OfferID    string
}

// ClearSupplier drops one supplier group.
type ClearSupplier struct {
	SupplierID string
}

// SettleOrdered takes the ordered quantities off a supplier group. Lines
// left with nothing are removed, and so is the group once it is empty.
// Lines added or raised after the order was built keep the difference.
type SettleOrdered struct {
	SupplierID string
	Items      []OrderItemRequest
}

// ClearCart drops every group.
type ClearCart struct{}

func (AddToCart) Name() string      { return "add_to_cart" }
func (UpdateQuantity) Name() string { return "update_quantity" }
func (RemoveItem) Name() string     { return "remove_item" }
func (ClearSupplier) Name() string  { return "clear_supplier" }
func (SettleOrdered) Name() string  { return "settle_ordered" }
func (ClearCart) Name() string      { return "clear_cart" }

// Reduce returns the cart that results from applying action to cart. The
// input cart is not modified. Actions that target a missing group or line
// return an unchanged copy.
func Reduce(cart Cart, action CartAction) Cart {
	next := cart.Clone()

	switch a := action.(type) {
	case AddToCart:
		line := a.Line
		line.Quantity = max(1, line.Quantity)
		gi := next.groupIndex(a.SupplierID)
		if gi < 0 {
			next.Suppliers = append(next.Suppliers, SupplierCartGroup{
				SupplierID:   a.SupplierID,
				SupplierName: a.SupplierName,
			})
			gi = len(next.Suppliers) - 1
		}
		g := &next.Suppliers[gi]
		if li := g.lineIndex(line.OfferID); li >= 0 {
			g.Items[li].Quantity += line.Quantity
		} else {
			g.Items = append(g.Items, line)
		}

	case UpdateQuantity:
		gi := next.groupIndex(a.SupplierID)
		if gi < 0 {
			break
		}
		g := &next.Suppliers[gi]
		if li := g.lineIndex(a.OfferID); li >= 0 {
			g.Items[li].Quantity = max(1, a.Quantity)
		}

	case RemoveItem:
		gi := next.groupIndex(a.SupplierID)
		if gi < 0 {
			break
		}
		g := &next.Suppliers[gi]
		li := g.lineIndex(a.OfferID)
		if li < 0 {
			break
		}
		g.Items = append(g.Items[:li], g.Items[li+1:]...)
		if len(g.Items) == 0 {
			next.Suppliers = append(next.Suppliers[:gi], next.Suppliers[gi+1:]...)
		}

	case ClearSupplier:
		if gi := next.groupIndex(a.SupplierID); gi >= 0 {
			next.Suppliers = append(next.Suppliers[:gi], next.Suppliers[gi+1:]...)
		}

	case SettleOrdered:
		gi := next.groupIndex(a.SupplierID)
		if gi < 0 {
			break
		}
		g := &next.Suppliers[gi]
		for _, item := range a.Items {
			li := g.lineIndex(item.OfferID)
			if li < 0 {
				continue
			}
			g.Items[li].Quantity -= item.Quantity
			if g.Items[li].Quantity <= 0 {
				g.Items = append(g.Items[:li], g.Items[li+1:]...)
			}
		}
		if len(g.Items) == 0 {
			next.Suppliers = append(next.Suppliers[:gi], next.Suppliers[gi+1:]...)
		}

	case ClearCart:
		next.Suppliers = nil
	}

	return next
}
