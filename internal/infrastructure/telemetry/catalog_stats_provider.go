package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormCatalogStatsProvider reads gauge values straight from the catalog and
// order tables.
type GormCatalogStatsProvider struct {
	db                *gorm.DB
	lowStockThreshold int
}

func NewGormCatalogStatsProvider(db *gorm.DB, lowStockThreshold int) *GormCatalogStatsProvider {
	return &GormCatalogStatsProvider{db: db, lowStockThreshold: lowStockThreshold}
}

// LowStockVariantCount counts sellable variants with stock at or below the threshold
func (p *GormCatalogStatsProvider) LowStockVariantCount(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).
		Table("product_variants").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("product_variants.is_available = ? AND products.is_active = ?", true, true).
		Where("product_variants.stock_quantity <= ?", p.lowStockThreshold).
		Count(&n).Error
	return n, err
}

func (p *GormCatalogStatsProvider) PendingOrderCount(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Table("orders").Where("status = ?", "pending").Count(&n).Error
	return n, err
}

var _ CatalogStatsProvider = (*GormCatalogStatsProvider)(nil)
