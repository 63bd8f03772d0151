// Package txn defines the unit of work shared by the application services:
// a set of repositories bound to one database transaction plus an event
// recorder that writes to the outbox in that same transaction.
package txn

import (
	"context"

	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Repositories provides transaction-bound repositories.
type Repositories interface {
	Vendors() catalog.VendorRepository
	Products() catalog.ProductRepository
	Stock() catalog.StockRepository
	Carts() cart.Repository
	Orders() order.Repository
	Applications() onboarding.Repository
	Events() shared.EventRecorder
}

// Scope runs fn inside one transaction. A non-nil error from fn rolls back
// every write made through repos, outbox entries included.
type Scope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
