package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// VendorRepository persists vendors
type VendorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	FindBySlug(ctx context.Context, slug string) (*Vendor, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Vendor, int64, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, vendor *Vendor) error
}

// ProductRepository persists products together with their variants
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindAll supports the filters "vendor_id", "is_active" and "product_type"
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	Save(ctx context.Context, product *Product) error
}

// StockRepository owns the live stock counters and the purchasability read model.
// DecrementStock must be a single atomic check-and-decrement that never lets
// stock go negative; a losing writer gets ErrInsufficientStock.
type StockRepository interface {
	GetSnapshot(ctx context.Context, variantID uuid.UUID) (*VariantSnapshot, error)
	GetSnapshots(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]VariantSnapshot, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error
	IncrementStock(ctx context.Context, variantID uuid.UUID, qty int) error
}
