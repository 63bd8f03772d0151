package persistence

import (
	"context"

	"github.com/marketplace/backend/internal/application/txn"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// RecorderFactory binds an event recorder to a transaction so that outbox
// rows commit or roll back together with the aggregate changes.
type RecorderFactory func(tx *gorm.DB) shared.EventRecorder

// GormTransactionScope implements txn.Scope using GORM transactions.
type GormTransactionScope struct {
	db       *gorm.DB
	recorder RecorderFactory
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, recorder RecorderFactory) *GormTransactionScope {
	return &GormTransactionScope{db: db, recorder: recorder}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txn.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, recorder: s.recorder})
	})
}

type gormTransactionalRepositories struct {
	tx       *gorm.DB
	recorder RecorderFactory
}

func (r *gormTransactionalRepositories) Vendors() catalog.VendorRepository {
	return NewGormVendorRepository(r.tx)
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Stock() catalog.StockRepository {
	return NewGormStockRepository(r.tx)
}

func (r *gormTransactionalRepositories) Carts() cart.Repository {
	return NewGormCartRepository(r.tx)
}

func (r *gormTransactionalRepositories) Orders() order.Repository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Applications() onboarding.Repository {
	return NewGormApplicationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Events() shared.EventRecorder {
	if r.recorder == nil {
		return discardRecorder{}
	}
	return r.recorder(r.tx)
}

// discardRecorder drops events; used when no outbox is wired (tests, tools)
type discardRecorder struct{}

func (discardRecorder) Record(context.Context, ...shared.DomainEvent) error { return nil }

var (
	_ txn.Scope        = (*GormTransactionScope)(nil)
	_ txn.Repositories = (*gormTransactionalRepositories)(nil)
)
