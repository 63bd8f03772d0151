package order

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Attribution is the vendor an order belongs to and the commission rate
// captured from that vendor when the order was placed
type Attribution struct {
	VendorID       uuid.UUID
	CommissionRate decimal.Decimal
}

// Attribute derives the order vendor from its lines. Every line carries the
// vendor of its variant's product; the order takes the first line's vendor.
// Lines from different vendors are rejected.
func Attribute(lines []Line) (Attribution, error) {
	if len(lines) == 0 {
		return Attribution{}, shared.ErrInvalidInput.WithMessage("Order must contain at least one item")
	}
	first := lines[0].Snapshot
	if first.VendorID == uuid.Nil {
		return Attribution{}, shared.ErrInvalidState.WithMessage("Variant %s has no vendor", first.VariantID)
	}
	for _, line := range lines[1:] {
		if line.Snapshot.VendorID != first.VendorID {
			return Attribution{}, shared.ErrVendorMismatch.WithDetails(map[string]any{
				"order_vendor_id": first.VendorID.String(),
				"line_vendor_id":  line.Snapshot.VendorID.String(),
				"variant_id":      line.Snapshot.VariantID.String(),
			})
		}
	}
	return Attribution{VendorID: first.VendorID, CommissionRate: first.CommissionRate}, nil
}

// Commission is subtotal x rate / 100 rounded half-up to cents
func Commission(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Div(hundred).Round(2)
}
