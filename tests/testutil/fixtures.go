package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CatalogFixture seeds vendors, products and variants directly through the
// persistence models.
type CatalogFixture struct {
	t  *testing.T
	db *gorm.DB
}

// NewCatalogFixture creates a fixture writing to db.
func NewCatalogFixture(t *testing.T, db *gorm.DB) *CatalogFixture {
	return &CatalogFixture{t: t, db: db}
}

// Vendor inserts an active vendor with the given commission rate.
func (f *CatalogFixture) Vendor(name, commissionRate string) uuid.UUID {
	f.t.Helper()
	now := time.Now()
	m := &models.VendorModel{
		Name:           name,
		Slug:           uuid.NewString(),
		CommissionRate: decimal.RequireFromString(commissionRate),
		IsActive:       true,
	}
	m.ID = uuid.New()
	m.CreatedAt, m.UpdatedAt, m.Version = now, now, 1
	require.NoError(f.t, f.db.Create(m).Error)
	return m.ID
}

// Product inserts an active product for vendorID.
func (f *CatalogFixture) Product(vendorID uuid.UUID, name, basePrice string) uuid.UUID {
	f.t.Helper()
	now := time.Now()
	m := &models.ProductModel{
		VendorID:    vendorID,
		Name:        name,
		BasePrice:   decimal.RequireFromString(basePrice),
		ProductType: "general",
		IsActive:    true,
	}
	m.ID = uuid.New()
	m.CreatedAt, m.UpdatedAt, m.Version = now, now, 1
	require.NoError(f.t, f.db.Omit("Variants", "Vendor").Create(m).Error)
	return m.ID
}

// Variant inserts an available variant. An empty override means the
// product's base price applies.
func (f *CatalogFixture) Variant(productID uuid.UUID, sku string, stock int, override string) uuid.UUID {
	f.t.Helper()
	now := time.Now()
	m := &models.ProductVariantModel{
		ProductID:     productID,
		SKU:           sku,
		StockQuantity: stock,
		IsAvailable:   true,
	}
	if override != "" {
		price := decimal.RequireFromString(override)
		m.PriceOverride = &price
	}
	m.ID = uuid.New()
	m.CreatedAt, m.UpdatedAt = now, now
	require.NoError(f.t, f.db.Create(m).Error)
	return m.ID
}

// SetVariantAvailable toggles a variant's availability flag.
func (f *CatalogFixture) SetVariantAvailable(variantID uuid.UUID, available bool) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.ProductVariantModel{}).
		Where("id = ?", variantID).Update("is_available", available).Error)
}

// SetVendorActive toggles a vendor's active flag.
func (f *CatalogFixture) SetVendorActive(vendorID uuid.UUID, active bool) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.VendorModel{}).
		Where("id = ?", vendorID).Update("is_active", active).Error)
}

// Stock reads a variant's current stock.
func (f *CatalogFixture) Stock(variantID uuid.UUID) int {
	f.t.Helper()
	var stock int
	require.NoError(f.t, f.db.Model(&models.ProductVariantModel{}).
		Where("id = ?", variantID).Select("stock_quantity").Scan(&stock).Error)
	return stock
}

// Count returns the number of rows in model's table.
func (f *CatalogFixture) Count(model any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

// SetPriceOverride replaces a variant's price override.
func (f *CatalogFixture) SetPriceOverride(variantID uuid.UUID, override string) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.ProductVariantModel{}).
		Where("id = ?", variantID).Update("price_override", decimal.RequireFromString(override)).Error)
}
