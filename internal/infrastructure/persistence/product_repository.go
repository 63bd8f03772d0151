package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product with its variants
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var m models.ProductModel
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("sku") }).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists products with their variants.
// Supported filters: vendor_id (uuid.UUID), is_active (bool), product_type (string),
// purchasable (bool: active product of an active vendor).
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "vendor_id":
			query = query.Where("products.vendor_id = ?", value)
		case "is_active":
			query = query.Where("products.is_active = ?", value)
		case "product_type":
			query = query.Where("products.product_type = ?", value)
		case "purchasable":
			if v, ok := value.(bool); ok && v {
				query = query.
					Joins("JOIN vendors ON vendors.id = products.vendor_id").
					Where("products.is_active = ? AND vendors.is_active = ?", true, true)
			}
		}
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	err := paginate(query.Select("products.*"), filter, ProductSortFields, "products").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("sku") }).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// ExistsBySKU checks whether any variant uses the SKU
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductVariantModel{}).
		Where("sku = ?", strings.ToUpper(sku)).
		Count(&count).Error
	return count > 0, err
}

// Save upserts the product and its variants. Stock is only written when a
// variant is first inserted; later changes go through the stock repository
// so that a catalog edit never overwrites a concurrent decrement.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	m := models.ProductModelFromDomain(product)
	variants := m.Variants
	m.Variants = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return err
		}
		for i := range variants {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"color", "size", "model", "sku", "price_override", "is_available", "updated_at",
				}),
			}).Create(&variants[i]).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return shared.ErrAlreadyExists.WithMessage("SKU already exists")
	}
	return err
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
