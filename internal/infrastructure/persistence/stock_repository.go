package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const snapshotColumns = `
	v.id AS variant_id,
	v.product_id AS product_id,
	p.vendor_id AS vendor_id,
	p.name AS product_name,
	v.sku AS sku,
	p.base_price AS base_price,
	v.price_override AS price_override,
	v.stock_quantity AS stock_quantity,
	v.is_available AS variant_available,
	p.is_active AS product_active,
	ven.is_active AS vendor_active,
	ven.commission_rate AS commission_rate`

// GormStockRepository implements catalog.StockRepository using GORM.
// Stock changes are single conditional UPDATE statements, so concurrent
// decrements against the same variant serialize on the row lock and the
// quantity can never drop below zero.
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) snapshotQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("product_variants AS v").
		Select(snapshotColumns).
		Joins("JOIN products p ON p.id = v.product_id").
		Joins("JOIN vendors ven ON ven.id = p.vendor_id")
}

// GetSnapshot loads the purchase view of one variant
func (r *GormStockRepository) GetSnapshot(ctx context.Context, variantID uuid.UUID) (*catalog.VariantSnapshot, error) {
	var rows []models.VariantSnapshotRow
	if err := r.snapshotQuery(ctx).Where("v.id = ?", variantID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound.WithDetails(map[string]any{"variant_id": variantID.String()})
	}
	snap := rows[0].ToDomain()
	return &snap, nil
}

// GetSnapshots loads the purchase view of several variants keyed by variant id.
// Unknown ids are absent from the result.
func (r *GormStockRepository) GetSnapshots(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]catalog.VariantSnapshot, error) {
	out := make(map[uuid.UUID]catalog.VariantSnapshot, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	var rows []models.VariantSnapshotRow
	if err := r.snapshotQuery(ctx).Where("v.id IN ?", variantIDs).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].VariantID] = rows[i].ToDomain()
	}
	return out, nil
}

// DecrementStock removes qty units in one statement guarded by
// stock_quantity >= qty. Zero affected rows means the variant is missing
// or short.
func (r *GormStockRepository) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty < 1 {
		return shared.ErrInvalidQuantity
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where("id = ? AND stock_quantity >= ?", variantID, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var available []int
	if err := r.db.WithContext(ctx).Model(&models.ProductVariantModel{}).
		Where("id = ?", variantID).
		Pluck("stock_quantity", &available).Error; err != nil {
		return err
	}
	if len(available) == 0 {
		return shared.ErrNotFound.WithDetails(map[string]any{"variant_id": variantID.String()})
	}
	return catalog.InsufficientStock(variantID, qty, available[0])
}

// IncrementStock returns qty units to the variant
func (r *GormStockRepository) IncrementStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty < 1 {
		return shared.ErrInvalidQuantity
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithDetails(map[string]any{"variant_id": variantID.String()})
	}
	return nil
}

var _ catalog.StockRepository = (*GormStockRepository)(nil)
