package cart

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Cart is a mutable basket of variant quantities. A cart only ever holds
// variants of a single vendor, because an order is attributed to one vendor.
type Cart struct {
	shared.BaseAggregateRoot
	Owner Owner
	Items []CartItem
}

// CartItem is one line of a cart. Price is captured when the variant is
// first added and is not refreshed afterwards.
type CartItem struct {
	shared.BaseEntity
	CartID    uuid.UUID
	VariantID uuid.UUID
	VendorID  uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal is Price x Quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Totals are derived on every read and never stored
type Totals struct {
	ItemCount int
	Subtotal  decimal.Decimal
}

// NewCart creates an empty cart for owner
func NewCart(owner Owner) (*Cart, error) {
	if owner.IsZero() {
		return nil, shared.ErrInvalidInput.WithMessage("Cart owner is required")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Owner:             owner,
	}, nil
}

// AddItem adds qty units of the variant. A second add of the same variant
// increases the existing line instead of creating another one.
func (c *Cart) AddItem(snap catalog.VariantSnapshot, qty int) (*CartItem, error) {
	if qty < 1 {
		return nil, shared.ErrInvalidQuantity
	}
	if !snap.Purchasable() {
		return nil, catalog.NotPurchasable(snap.VariantID)
	}
	if vendorID, ok := c.VendorID(); ok && vendorID != snap.VendorID {
		return nil, shared.ErrVendorMismatch.WithDetails(map[string]any{
			"cart_vendor_id":    vendorID.String(),
			"variant_vendor_id": snap.VendorID.String(),
		})
	}

	if item := c.findByVariant(snap.VariantID); item != nil {
		newQty := item.Quantity + qty
		if !snap.CanFulfil(newQty) {
			return nil, catalog.InsufficientStock(snap.VariantID, newQty, snap.StockQuantity)
		}
		item.Quantity = newQty
		item.Touch()
		c.Touch()
		return item, nil
	}

	if !snap.CanFulfil(qty) {
		return nil, catalog.InsufficientStock(snap.VariantID, qty, snap.StockQuantity)
	}
	c.Items = append(c.Items, CartItem{
		BaseEntity: shared.NewBaseEntity(),
		CartID:     c.ID,
		VariantID:  snap.VariantID,
		VendorID:   snap.VendorID,
		Quantity:   qty,
		Price:      snap.FinalPrice(),
	})
	c.Touch()
	return &c.Items[len(c.Items)-1], nil
}

// UpdateItem sets the quantity of a line. The price snapshot is kept.
func (c *Cart) UpdateItem(itemID uuid.UUID, qty int, snap catalog.VariantSnapshot) (*CartItem, error) {
	if qty < 1 {
		return nil, shared.ErrInvalidQuantity
	}
	item := c.Item(itemID)
	if item == nil {
		return nil, shared.ErrItemNotFound.WithDetails(map[string]any{"item_id": itemID.String()})
	}
	if snap.VariantID != item.VariantID {
		return nil, shared.ErrInvalidInput.WithMessage("Stock snapshot does not match the cart item")
	}
	if !snap.CanFulfil(qty) {
		return nil, catalog.InsufficientStock(item.VariantID, qty, snap.StockQuantity)
	}
	item.Quantity = qty
	item.Touch()
	c.Touch()
	return item, nil
}

// RemoveItem deletes a line that belongs to this cart
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.Touch()
			return nil
		}
	}
	return shared.ErrItemNotFound.WithDetails(map[string]any{"item_id": itemID.String()})
}

// Clear removes every line
func (c *Cart) Clear() {
	c.Items = nil
	c.Touch()
}

// Totals computes item count and subtotal from the current lines
func (c *Cart) Totals() Totals {
	t := Totals{Subtotal: decimal.Zero}
	for _, item := range c.Items {
		t.ItemCount += item.Quantity
		t.Subtotal = t.Subtotal.Add(item.Subtotal())
	}
	return t
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// VendorID returns the vendor of the lines in the cart, if any
func (c *Cart) VendorID() (uuid.UUID, bool) {
	if len(c.Items) == 0 {
		return uuid.Nil, false
	}
	return c.Items[0].VendorID, true
}

// Item returns the line with the given ID
func (c *Cart) Item(itemID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// Absorb moves a line from another cart into this one, keeping its price
// snapshot. The resulting quantity is capped by the current stock. It
// reports false when the line was dropped.
func (c *Cart) Absorb(line CartItem, snap catalog.VariantSnapshot) bool {
	if !snap.Purchasable() {
		return false
	}
	if vendorID, ok := c.VendorID(); ok && vendorID != snap.VendorID {
		return false
	}
	if item := c.findByVariant(line.VariantID); item != nil {
		item.Quantity = min(item.Quantity+line.Quantity, snap.StockQuantity)
		item.Touch()
		c.Touch()
		return true
	}
	qty := min(line.Quantity, snap.StockQuantity)
	c.Items = append(c.Items, CartItem{
		BaseEntity: shared.NewBaseEntity(),
		CartID:     c.ID,
		VariantID:  line.VariantID,
		VendorID:   snap.VendorID,
		Quantity:   qty,
		Price:      line.Price,
	})
	c.Touch()
	return true
}

func (c *Cart) findByVariant(variantID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return &c.Items[i]
		}
	}
	return nil
}
