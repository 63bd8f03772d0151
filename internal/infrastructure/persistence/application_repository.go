package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormApplicationRepository implements onboarding.Repository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GormApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// FindByID finds a vendor application by its ID
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*onboarding.VendorApplication, error) {
	var m models.VendorApplicationModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists applications. Supported filters: status, applicant_id.
func (r *GormApplicationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]onboarding.VendorApplication, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.VendorApplicationModel{})
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "applicant_id":
			query = query.Where("applicant_id = ?", value)
		}
	}
	if filter.Search != "" {
		query = query.Where("LOWER(store_name) LIKE ?", likePattern(filter.Search))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.VendorApplicationModel
	if err := paginate(query, filter, ApplicationSortFields, "").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	apps := make([]onboarding.VendorApplication, len(rows))
	for i := range rows {
		apps[i] = *rows[i].ToDomain()
	}
	return apps, total, nil
}

// HasPending reports whether the applicant already has a pending application
func (r *GormApplicationRepository) HasPending(ctx context.Context, applicantID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VendorApplicationModel{}).
		Where("applicant_id = ? AND status = ?", applicantID, onboarding.ApplicationPending).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates an application. Updates are version-checked.
func (r *GormApplicationRepository) Save(ctx context.Context, app *onboarding.VendorApplication) error {
	m := models.VendorApplicationModelFromDomain(app)

	var exists int64
	if err := r.db.WithContext(ctx).Model(&models.VendorApplicationModel{}).
		Where("id = ?", app.ID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return r.db.WithContext(ctx).Create(m).Error
	}

	m.Version = app.Version + 1
	result := r.db.WithContext(ctx).Model(&models.VendorApplicationModel{}).
		Where("id = ? AND version = ?", app.ID, app.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithMessage("The application has been modified by another request")
	}
	app.Version++
	return nil
}

var _ onboarding.Repository = (*GormApplicationRepository)(nil)
