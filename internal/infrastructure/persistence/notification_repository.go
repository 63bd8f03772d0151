package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/notification"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create inserts notifications, skipping any that already exist for the
// same source event and recipient.
func (r *GormNotificationRepository) Create(ctx context.Context, notifications ...*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	rows := make([]*models.NotificationModel, len(notifications))
	for i, n := range notifications {
		rows[i] = models.NotificationModelFromDomain(n)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// FindByID finds a notification by its ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var m models.NotificationModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindForAudiences lists notifications addressed to any of the audiences
func (r *GormNotificationRepository) FindForAudiences(ctx context.Context, audiences []notification.Audience, unreadOnly bool, filter shared.Filter) ([]notification.Notification, int64, error) {
	if len(audiences) == 0 {
		return []notification.Notification{}, 0, nil
	}

	db := r.db.WithContext(ctx)
	cond := db.Where("recipient_kind = ? AND recipient_key = ?",
		audiences[0].Kind, models.RecipientKey(audiences[0].Kind, audiences[0].RecipientID))
	for _, a := range audiences[1:] {
		cond = cond.Or("recipient_kind = ? AND recipient_key = ?", a.Kind, models.RecipientKey(a.Kind, a.RecipientID))
	}

	query := db.Model(&models.NotificationModel{}).Where(cond)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.NotificationModel
	if err := paginate(query, filter, NotificationSortFields, "").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]notification.Notification, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// MarkRead sets read_at once; already read notifications keep their timestamp
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("id = ? AND read_at IS NULL", id).
		Updates(map[string]any{"read_at": at, "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.NotificationModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
	}
	return nil
}

var _ notification.Repository = (*GormNotificationRepository)(nil)
