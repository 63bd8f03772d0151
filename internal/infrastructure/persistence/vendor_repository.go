package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormVendorRepository implements catalog.VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindByID finds a vendor by its ID
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Vendor, error) {
	var m models.VendorModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindBySlug finds a vendor by its slug
func (r *GormVendorRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Vendor, error) {
	var m models.VendorModel
	if err := r.db.WithContext(ctx).First(&m, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists vendors. Supported filters: is_active (bool), owner_user_id (uuid.UUID).
func (r *GormVendorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Vendor, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.VendorModel{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ?", pattern, pattern)
	}
	if active, ok := filter.Filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", active)
	}
	if owner, ok := filter.Filters["owner_user_id"].(uuid.UUID); ok {
		query = query.Where("owner_user_id = ?", owner)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.VendorModel
	if err := paginate(query, filter, VendorSortFields, "").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	vendors := make([]catalog.Vendor, len(rows))
	for i := range rows {
		vendors[i] = *rows[i].ToDomain()
	}
	return vendors, total, nil
}

// ExistsByName checks whether a vendor with the name exists (case-insensitive)
func (r *GormVendorRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VendorModel{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error
	return count > 0, err
}

// ExistsBySlug checks whether a vendor with the slug exists
func (r *GormVendorRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VendorModel{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a vendor
func (r *GormVendorRepository) Save(ctx context.Context, vendor *catalog.Vendor) error {
	if err := r.db.WithContext(ctx).Save(models.VendorModelFromDomain(vendor)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists.WithMessage("Vendor name or slug already exists")
		}
		return err
	}
	return nil
}

var _ catalog.VendorRepository = (*GormVendorRepository)(nil)
