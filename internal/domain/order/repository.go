package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListFilter narrows order listings. Nil fields are not applied.
type ListFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	VendorID   *uuid.UUID
	Status     *Status
}

// VendorSummary aggregates the orders attributed to one vendor.
// Cancelled orders are counted but excluded from revenue and commission.
type VendorSummary struct {
	VendorID       uuid.UUID
	OrderCount     int64
	CancelledCount int64
	Revenue        decimal.Decimal
	Commission     decimal.Decimal
}

// Repository persists orders
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter ListFilter) ([]Order, int64, error)
	// Create inserts the order and its items. A duplicate order number
	// yields shared.ErrAlreadyExists.
	Create(ctx context.Context, o *Order) error
	// SaveWithLock writes status and notes if the stored version still
	// matches, otherwise returns shared.ErrConcurrencyConflict
	SaveWithLock(ctx context.Context, o *Order) error
	// VendorSummaries aggregates per vendor; a nil vendorID returns all vendors
	VendorSummaries(ctx context.Context, vendorID *uuid.UUID) ([]VendorSummary, error)
}
