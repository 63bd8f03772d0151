package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService answers price, stock and purchasability questions for a
// single variant. Cart and order code use the same repository inside their
// own transactions; this service is the standalone entry point.
type CatalogService struct {
	stock  catalog.StockRepository
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(stock catalog.StockRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{stock: stock, logger: logger}
}

// ResolvePrice returns the variant's price override, or the product base
// price when no override is set
func (s *CatalogService) ResolvePrice(ctx context.Context, variantID uuid.UUID) (decimal.Decimal, error) {
	snap, err := s.stock.GetSnapshot(ctx, variantID)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.FinalPrice(), nil
}

// IsPurchasable reports whether the variant is available, its product and
// vendor are active, and at least one unit is in stock
func (s *CatalogService) IsPurchasable(ctx context.Context, variantID uuid.UUID) (bool, error) {
	snap, err := s.stock.GetSnapshot(ctx, variantID)
	if err != nil {
		return false, err
	}
	return snap.Purchasable(), nil
}

// GetAvailability returns the purchase view of a variant
func (s *CatalogService) GetAvailability(ctx context.Context, variantID uuid.UUID) (*VariantAvailabilityResponse, error) {
	snap, err := s.stock.GetSnapshot(ctx, variantID)
	if err != nil {
		return nil, err
	}
	resp := ToVariantAvailabilityResponse(*snap)
	return &resp, nil
}
