package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// AddItemRequest represents a request to add a variant to the cart
type AddItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents a request to change a line quantity
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CartResponse represents a cart in API responses. Totals are computed
// from the lines on every read.
type CartResponse struct {
	ID        *uuid.UUID         `json:"id"`
	VendorID  *uuid.UUID         `json:"vendor_id"`
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

// CartItemResponse represents one cart line. Product fields and
// Purchasable reflect the catalog at read time; Price is the snapshot
// taken when the line was added.
type CartItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	ProductName string          `json:"product_name,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Purchasable bool            `json:"purchasable"`
	InStock     int             `json:"in_stock"`
}

// TotalsResponse is the derived summary of a cart
type TotalsResponse struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// MergeResponse reports the outcome of folding a session cart into a user cart
type MergeResponse struct {
	Cart         CartResponse `json:"cart"`
	MergedLines  int          `json:"merged_lines"`
	DroppedLines int          `json:"dropped_lines"`
}

// emptyCartResponse is returned for owners that have no cart yet
func emptyCartResponse() CartResponse {
	return CartResponse{Items: []CartItemResponse{}, Subtotal: decimal.Zero}
}

// ToCartResponse converts a domain Cart. snaps may be nil; lines without a
// snapshot are reported as not purchasable.
func ToCartResponse(c *cart.Cart, snaps map[uuid.UUID]catalog.VariantSnapshot) CartResponse {
	totals := c.Totals()
	resp := CartResponse{
		ID:        &c.ID,
		Items:     make([]CartItemResponse, len(c.Items)),
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal,
		UpdatedAt: &c.UpdatedAt,
	}
	if vendorID, ok := c.VendorID(); ok {
		resp.VendorID = &vendorID
	}
	for i, item := range c.Items {
		line := CartItemResponse{
			ID:        item.ID,
			VariantID: item.VariantID,
			VendorID:  item.VendorID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Subtotal(),
		}
		if snap, ok := snaps[item.VariantID]; ok {
			line.ProductName = snap.ProductName
			line.SKU = snap.SKU
			line.Purchasable = snap.Purchasable() && snap.CanFulfil(item.Quantity)
			line.InStock = snap.StockQuantity
		}
		resp.Items[i] = line
	}
	return resp
}
