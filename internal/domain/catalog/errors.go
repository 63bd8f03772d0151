package catalog

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// InsufficientStock builds the conflict error returned when qty exceeds stock
func InsufficientStock(variantID uuid.UUID, requested, available int) error {
	return shared.ErrInsufficientStock.WithDetails(map[string]any{
		"variant_id": variantID.String(),
		"requested":  requested,
		"available":  available,
	})
}

// NotPurchasable builds the error returned for unavailable variants
func NotPurchasable(variantID uuid.UUID) error {
	return shared.ErrVariantNotPurchasable.WithDetails(map[string]any{
		"variant_id": variantID.String(),
	})
}
