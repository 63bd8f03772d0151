package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at").Order("sku")
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items", preloadItems).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists orders matching the filter, newest first by default
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.ListFilter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ?", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := paginate(query, filter.Filter, OrderSortFields, "").Preload("Items", preloadItems).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// Create inserts a new order with its items. It runs in a nested
// transaction (a savepoint inside an outer one) so that a duplicate order
// number leaves the caller's transaction usable; OrderService.Create retries
// with a fresh number.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	m := models.OrderModelFromDomain(o)
	items := m.Items
	m.Items = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(m).Error; err != nil {
			return err
		}
		return tx.Create(&items).Error
	})
	if isUniqueViolation(err) {
		return shared.ErrAlreadyExists.WithMessage("Order number %s already exists", o.OrderNumber)
	}
	return err
}

// SaveWithLock persists the mutable fields (status and notes) under an
// optimistic version check. The stored version must equal o.Version; on
// success both are incremented.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var versions []int
		if err := tx.Model(&models.OrderModel{}).
			Where("id = ?", o.ID).
			Pluck("version", &versions).Error; err != nil {
			return err
		}
		if len(versions) == 0 {
			return shared.ErrNotFound
		}
		if versions[0] != o.Version {
			return shared.ErrConcurrencyConflict.WithMessage("The order has been modified by another request")
		}

		now := time.Now()
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", o.ID, o.Version).
			Updates(map[string]any{
				"status":     o.Status,
				"notes":      o.Notes,
				"version":    o.Version + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict.WithMessage("The order has been modified by another request")
		}
		o.Version++
		o.UpdatedAt = now
		return nil
	})
}

type vendorSummaryRow struct {
	VendorID       uuid.UUID
	OrderCount     int64
	CancelledCount int64
	Revenue        decimal.Decimal
	Commission     decimal.Decimal
}

// VendorSummaries aggregates order count, revenue and platform commission
// per vendor over the denormalized orders.vendor_id column. Cancelled orders
// are counted but excluded from revenue and commission.
func (r *GormOrderRepository) VendorSummaries(ctx context.Context, vendorID *uuid.UUID) ([]order.VendorSummary, error) {
	cancelled := order.StatusCancelled
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select(`vendor_id,
			COUNT(*) AS order_count,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS cancelled_count,
			COALESCE(SUM(CASE WHEN status <> ? THEN total ELSE 0 END), 0) AS revenue,
			COALESCE(SUM(CASE WHEN status <> ? THEN platform_commission ELSE 0 END), 0) AS commission`,
			cancelled, cancelled, cancelled).
		Group("vendor_id").
		Order("vendor_id")
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}

	var rows []vendorSummaryRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]order.VendorSummary, len(rows))
	for i, row := range rows {
		out[i] = order.VendorSummary{
			VendorID:       row.VendorID,
			OrderCount:     row.OrderCount,
			CancelledCount: row.CancelledCount,
			Revenue:        row.Revenue,
			Commission:     row.Commission,
		}
	}
	return out, nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
