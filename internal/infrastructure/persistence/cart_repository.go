package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func ownerCondition(db *gorm.DB, owner cart.Owner) *gorm.DB {
	if userID, ok := owner.UserID(); ok {
		return db.Where("user_id = ?", userID)
	}
	key, _ := owner.SessionKey()
	return db.Where("session_key_hash = ?", models.HashSessionKey(key))
}

// FindByOwner loads the owner's cart with its items
func (r *GormCartRepository) FindByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	if owner.IsZero() {
		return nil, shared.ErrInvalidInput.WithMessage("Cart owner is required")
	}
	var m models.CartModel
	err := ownerCondition(r.db.WithContext(ctx), owner).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at").Order("id") }).
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(owner), nil
}

// Save inserts a new cart or updates an existing one under an optimistic
// version check, then replaces its items. On success the cart's version
// matches the stored row.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	m := models.CartModelFromDomain(c)
	items := m.Items
	m.Items = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.CartModel{}).Where("id = ?", c.ID).Count(&exists).Error; err != nil {
			return err
		}

		if exists == 0 {
			if err := tx.Omit("Items").Create(m).Error; err != nil {
				if isUniqueViolation(err) {
					return shared.ErrConcurrencyConflict.WithMessage("A cart already exists for this owner")
				}
				return err
			}
		} else {
			now := time.Now()
			result := tx.Model(&models.CartModel{}).
				Where("id = ? AND version = ?", c.ID, c.Version).
				Updates(map[string]any{
					"version":    c.Version + 1,
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict.WithMessage("The cart was modified by another request")
			}
			c.Version++
			c.UpdatedAt = now
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a cart and its items
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.CartModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var _ cart.Repository = (*GormCartRepository)(nil)
