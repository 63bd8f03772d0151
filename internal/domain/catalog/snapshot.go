package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariantSnapshot is a flattened view of a variant together with the product
// and vendor fields that decide its price, stock and purchasability.
// It is read in a single query so cart and order code can validate a line
// without loading three aggregates.
type VariantSnapshot struct {
	VariantID        uuid.UUID
	ProductID        uuid.UUID
	VendorID         uuid.UUID
	ProductName      string
	SKU              string
	BasePrice        decimal.Decimal
	PriceOverride    *decimal.Decimal
	StockQuantity    int
	VariantAvailable bool
	ProductActive    bool
	VendorActive     bool
	CommissionRate   decimal.Decimal
}

// FinalPrice is the effective unit price
func (s VariantSnapshot) FinalPrice() decimal.Decimal {
	return ResolvePrice(s.BasePrice, s.PriceOverride)
}

// Purchasable reports whether the variant can be bought right now
func (s VariantSnapshot) Purchasable() bool {
	return s.VariantAvailable && s.ProductActive && s.VendorActive && s.StockQuantity > 0
}

// CanFulfil reports whether qty units are in stock
func (s VariantSnapshot) CanFulfil(qty int) bool {
	return qty <= s.StockQuantity
}
