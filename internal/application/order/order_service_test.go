package order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appcart "github.com/marketplace/backend/internal/application/cart"
	apporder "github.com/marketplace/backend/internal/application/order"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/marketplace/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingMetrics struct {
	mu             sync.Mutex
	created        int
	stockConflicts int
	transitions    []string
}

func (m *recordingMetrics) RecordOrderCreated(context.Context, string, decimal.Decimal, decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *recordingMetrics) RecordStockConflict(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockConflicts++
}

func (m *recordingMetrics) RecordStatusTransition(_ context.Context, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+"->"+to)
}

type orderEnv struct {
	db      *gorm.DB
	fx      *testutil.CatalogFixture
	orders  *apporder.OrderService
	carts   *appcart.CartService
	metrics *recordingMetrics
}

func newOrderEnv(t *testing.T) orderEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	scope := persistence.NewGormTransactionScope(db, event.NewOutboxPublisher(serializer, 3).Recorder)

	env := orderEnv{
		db:      db,
		fx:      testutil.NewCatalogFixture(t, db),
		orders:  apporder.NewOrderService(scope, decimal.NewFromInt(5), zap.NewNop()),
		carts:   appcart.NewCartService(scope, zap.NewNop()),
		metrics: &recordingMetrics{},
	}
	env.orders.SetMetrics(env.metrics)
	return env
}

func (e orderEnv) outboxCount(t *testing.T, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.OutboxEntryModel{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func customer() shared.Identity {
	return shared.Identity{UserID: uuid.New(), Role: shared.RoleCustomer}
}

func vendorUser(vendorID uuid.UUID) shared.Identity {
	return shared.Identity{UserID: uuid.New(), Role: shared.RoleVendor, VendorID: &vendorID}
}

func admin() shared.Identity {
	return shared.Identity{UserID: uuid.New(), Role: shared.RoleAdmin}
}

func pickupRequest(items ...apporder.OrderItemInput) apporder.CreateOrderRequest {
	return apporder.CreateOrderRequest{
		CustomerName:  "Ada Lovelace",
		CustomerPhone: "+44 20 7946 0000",
		OrderType:     string(order.TypePickup),
		Items:         items,
	}
}

func TestOrderService_Create_FromCart(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	buyer := customer()
	owner, err := cart.UserOwner(buyer.UserID)
	require.NoError(t, err)

	vendor := env.fx.Vendor("Attribution Vendor", "10")
	product := env.fx.Product(vendor, "Teapot", "100")
	variantA := env.fx.Variant(product, "TEAPOT-A", 5, "")
	variantB := env.fx.Variant(product, "TEAPOT-B", 0, "")

	_, err = env.carts.AddItem(ctx, owner, appcart.AddItemRequest{VariantID: variantA, Quantity: 2})
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, owner, appcart.AddItemRequest{VariantID: variantB, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrVariantNotPurchasable)

	resp, err := env.orders.Create(ctx, buyer, owner, pickupRequest())
	require.NoError(t, err)

	assert.Equal(t, "200", resp.Subtotal.String())
	assert.Equal(t, "200", resp.Total.String(), "pickup orders carry no delivery fee")
	assert.Equal(t, "20", resp.PlatformCommission.String())
	assert.Equal(t, vendor, resp.VendorID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, vendor, resp.Items[0].VendorID)
	assert.Equal(t, "TEAPOT-A", resp.Items[0].SKU)
	assert.Equal(t, string(order.StatusPending), resp.Status)
	assert.Equal(t, &buyer.UserID, resp.CustomerID)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, resp.OrderNumber)

	assert.Equal(t, 3, env.fx.Stock(variantA))
	assert.Equal(t, int64(1), env.outboxCount(t, order.EventTypeOrderCreated))
	assert.Equal(t, 1, env.metrics.created)

	totals, err := env.carts.Totals(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, totals.ItemCount, "cart is cleared by checkout")

	_, err = env.orders.Create(ctx, buyer, owner, pickupRequest())
	assert.ErrorIs(t, err, shared.ErrInvalidInput, "empty cart cannot be checked out")
}

func TestOrderService_Create_KeepsCartPrice(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	buyer := customer()
	owner, err := cart.UserOwner(buyer.UserID)
	require.NoError(t, err)

	vendor := env.fx.Vendor("Repricing Vendor", "10")
	variant := env.fx.Variant(env.fx.Product(vendor, "Kettle", "100"), "KETTLE-1", 10, "")

	_, err = env.carts.AddItem(ctx, owner, appcart.AddItemRequest{VariantID: variant, Quantity: 2})
	require.NoError(t, err)
	env.fx.SetPriceOverride(variant, "80")

	view, err := env.carts.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "100", view.Items[0].Price.String(), "cart line is not repriced")

	resp, err := env.orders.Create(ctx, buyer, owner, pickupRequest())
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "100", resp.Items[0].Price.String())
	assert.Equal(t, "200", resp.Subtotal.String())
	assert.Equal(t, "20", resp.PlatformCommission.String())

	direct, err := env.orders.Create(ctx, buyer, cart.Owner{}, pickupRequest(
		apporder.OrderItemInput{VariantID: variant, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, "80", direct.Items[0].Price.String(), "explicit items use the live price")
	assert.Equal(t, 7, env.fx.Stock(variant))
}

func TestOrderService_Create_RetriesTakenOrderNumber(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	vendor := env.fx.Vendor("Numbering Vendor", "10")
	variant := env.fx.Variant(env.fx.Product(vendor, "Cup", "5"), "CUP-1", 10, "")
	item := apporder.OrderItemInput{VariantID: variant, Quantity: 1}

	first, err := env.orders.Create(ctx, customer(), cart.Owner{}, pickupRequest(item))
	require.NoError(t, err)
	taken := first.OrderNumber

	t.Run("a taken number is replaced", func(t *testing.T) {
		numbers := []string{taken, "ORD-20260101-0000FEED"}
		calls := 0
		env.orders.SetNumberGenerator(func(time.Time) string {
			n := numbers[calls]
			calls++
			return n
		})

		resp, err := env.orders.Create(ctx, customer(), cart.Owner{}, pickupRequest(item))
		require.NoError(t, err)
		assert.Equal(t, "ORD-20260101-0000FEED", resp.OrderNumber)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 8, env.fx.Stock(variant), "stock is decremented once per order")
		assert.Equal(t, int64(2), env.fx.Count(&models.OrderModel{}))
		assert.Equal(t, int64(2), env.outboxCount(t, order.EventTypeOrderCreated))
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		env.orders.SetNumberGenerator(func(time.Time) string { return taken })

		_, err := env.orders.Create(ctx, customer(), cart.Owner{}, pickupRequest(item))
		require.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 8, env.fx.Stock(variant), "the failed order returns its stock")
		assert.Equal(t, int64(2), env.fx.Count(&models.OrderModel{}))
		assert.Equal(t, int64(2), env.outboxCount(t, order.EventTypeOrderCreated))
	})
}

func TestOrderService_Create_AllOrNothing(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	vendor := env.fx.Vendor("Shortage Vendor", "10")
	product := env.fx.Product(vendor, "Plate", "20")
	plenty := env.fx.Variant(product, "PLATE-3", 3, "")
	scarce := env.fx.Variant(product, "PLATE-1", 1, "")

	_, err := env.orders.Create(ctx, customer(), cart.Owner{}, pickupRequest(
		apporder.OrderItemInput{VariantID: plenty, Quantity: 2},
		apporder.OrderItemInput{VariantID: scarce, Quantity: 2},
	))
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	de, _ := shared.IsDomainError(err)
	assert.Equal(t, scarce.String(), de.Details["variant_id"])

	assert.Equal(t, 3, env.fx.Stock(plenty), "earlier decrements are rolled back")
	assert.Equal(t, 1, env.fx.Stock(scarce))
	assert.Equal(t, int64(0), env.fx.Count(&models.OrderModel{}))
	assert.Equal(t, int64(0), env.fx.Count(&models.OrderItemModel{}))
	assert.Equal(t, int64(0), env.outboxCount(t, order.EventTypeOrderCreated))
	assert.Equal(t, 1, env.metrics.stockConflicts)
}

func TestOrderService_Create_Validation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	vendorA := env.fx.Vendor("Mixed A", "10")
	vendorB := env.fx.Vendor("Mixed B", "10")
	variantA := env.fx.Variant(env.fx.Product(vendorA, "Fork", "3"), "FORK-1", 10, "")
	variantB := env.fx.Variant(env.fx.Product(vendorB, "Knife", "4"), "KNIFE-1", 10, "")

	t.Run("mixed vendors", func(t *testing.T) {
		_, err := env.orders.Create(ctx, customer(), cart.Owner{}, pickupRequest(
			apporder.OrderItemInput{VariantID: variantA, Quantity: 1},
			apporder.OrderItemInput{VariantID: variantB, Quantity: 1},
		))
		assert.ErrorIs(t, err, shared.ErrVendorMismatch)
		assert.Equal(t, 10, env.fx.Stock(variantA))
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := env.orders.Create(ctx, customer(), cart.Owner{}, pickupRequest(
			apporder.OrderItemInput{VariantID: uuid.New(), Quantity: 1},
		))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("delivery needs an address", func(t *testing.T) {
		req := pickupRequest(apporder.OrderItemInput{VariantID: variantA, Quantity: 1})
		req.OrderType = string(order.TypeDelivery)
		_, err := env.orders.Create(ctx, customer(), cart.Owner{}, req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("delivery fee is added to the total", func(t *testing.T) {
		req := pickupRequest(apporder.OrderItemInput{VariantID: variantA, Quantity: 2})
		req.OrderType = ""
		req.CustomerAddress = "1 High Street"
		resp, err := env.orders.Create(ctx, customer(), cart.Owner{}, req)
		require.NoError(t, err)
		assert.Equal(t, string(order.TypeDelivery), resp.OrderType)
		assert.Equal(t, "6", resp.Subtotal.String())
		assert.Equal(t, "11", resp.Total.String())
		assert.Equal(t, "0.6", resp.PlatformCommission.String())
	})

	assert.Equal(t, int64(1), env.fx.Count(&models.OrderModel{}))
}

func TestOrderService_UpdateStatus(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	buyer := customer()

	vendor := env.fx.Vendor("Lifecycle Vendor", "12.5")
	variant := env.fx.Variant(env.fx.Product(vendor, "Lamp", "40"), "LAMP-1", 5, "")
	created, err := env.orders.Create(ctx, buyer, cart.Owner{}, pickupRequest(
		apporder.OrderItemInput{VariantID: variant, Quantity: 2},
	))
	require.NoError(t, err)
	require.Equal(t, 3, env.fx.Stock(variant))

	_, err = env.orders.UpdateStatus(ctx, buyer, created.ID, apporder.UpdateStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, shared.ErrForbidden, "customers cannot manage orders")

	_, err = env.orders.UpdateStatus(ctx, vendorUser(uuid.New()), created.ID, apporder.UpdateStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, shared.ErrNotFound, "other vendors cannot see the order")

	_, err = env.orders.UpdateStatus(ctx, vendorUser(vendor), created.ID, apporder.UpdateStatusRequest{Status: "shipped"})
	require.ErrorIs(t, err, shared.ErrInvalidStatusTransition)
	de, _ := shared.IsDomainError(err)
	assert.Equal(t, "pending", de.Details["from"])
	assert.Equal(t, "shipped", de.Details["to"])

	resp, err := env.orders.UpdateStatus(ctx, vendorUser(vendor), created.ID, apporder.UpdateStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, []string{"processing", "cancelled"}, resp.AllowedStatuses)
	assert.Equal(t, 3, env.fx.Stock(variant), "confirming does not touch stock")

	resp, err = env.orders.UpdateStatus(ctx, admin(), created.ID, apporder.UpdateStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Empty(t, resp.AllowedStatuses)
	assert.Equal(t, 5, env.fx.Stock(variant), "cancelling restocks every line")

	_, err = env.orders.UpdateStatus(ctx, admin(), created.ID, apporder.UpdateStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, shared.ErrInvalidStatusTransition)

	assert.Equal(t, int64(2), env.outboxCount(t, order.EventTypeOrderStatusChanged))
	assert.Equal(t, []string{"pending->confirmed", "confirmed->cancelled"}, env.metrics.transitions)

	got, err := env.orders.Get(ctx, buyer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
	assert.Equal(t, "10", got.PlatformCommission.String(), "commission captured at creation is never recomputed")
}

func TestOrderService_BulkUpdateStatus(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	vendor := env.fx.Vendor("Bulk Vendor", "10")
	variant := env.fx.Variant(env.fx.Product(vendor, "Rug", "80"), "RUG-1", 10, "")
	place := func() uuid.UUID {
		resp, err := env.orders.Create(ctx, customer(), cart.Owner{}, pickupRequest(
			apporder.OrderItemInput{VariantID: variant, Quantity: 1},
		))
		require.NoError(t, err)
		return resp.ID
	}
	first, second, third := place(), place(), place()
	_, err := env.orders.UpdateStatus(ctx, admin(), second, apporder.UpdateStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	missing := uuid.New()

	result, err := env.orders.BulkUpdateStatus(ctx, vendorUser(vendor), apporder.BulkUpdateStatusRequest{
		OrderIDs: []uuid.UUID{first, second, missing, third, first},
		Status:   "confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, third}, result.Updated)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, second, result.Failed[0].ID)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", result.Failed[0].Code)
	assert.Equal(t, missing, result.Failed[1].ID)
	assert.Equal(t, "NOT_FOUND", result.Failed[1].Code)

	for _, id := range []uuid.UUID{first, third} {
		got, err := env.orders.Get(ctx, admin(), id)
		require.NoError(t, err)
		assert.Equal(t, "confirmed", got.Status)
	}

	_, err = env.orders.BulkUpdateStatus(ctx, admin(), apporder.BulkUpdateStatusRequest{OrderIDs: []uuid.UUID{first}, Status: "lost"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestOrderService_ListAndSummary(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	alice, bob := customer(), customer()

	vendorA := env.fx.Vendor("List Vendor A", "10")
	vendorB := env.fx.Vendor("List Vendor B", "20")
	variantA := env.fx.Variant(env.fx.Product(vendorA, "Mat", "50"), "MAT-1", 10, "")
	variantB := env.fx.Variant(env.fx.Product(vendorB, "Jar", "10"), "JAR-1", 10, "")

	orderA, err := env.orders.Create(ctx, alice, cart.Owner{}, pickupRequest(apporder.OrderItemInput{VariantID: variantA, Quantity: 2}))
	require.NoError(t, err)
	_, err = env.orders.Create(ctx, bob, cart.Owner{}, pickupRequest(apporder.OrderItemInput{VariantID: variantB, Quantity: 3}))
	require.NoError(t, err)
	cancelled, err := env.orders.Create(ctx, bob, cart.Owner{}, pickupRequest(apporder.OrderItemInput{VariantID: variantA, Quantity: 1}))
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(ctx, admin(), cancelled.ID, apporder.UpdateStatusRequest{Status: "cancelled"})
	require.NoError(t, err)

	page, err := env.orders.List(ctx, alice, apporder.OrderListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, orderA.ID, page.Items[0].ID)

	page, err = env.orders.List(ctx, vendorUser(vendorA), apporder.OrderListFilter{VendorID: &vendorB})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total, "vendors only ever see their own orders")

	page, err = env.orders.List(ctx, admin(), apporder.OrderListFilter{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = env.orders.List(ctx, admin(), apporder.OrderListFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 1, "second page holds the remainder")

	_, err = env.orders.List(ctx, shared.Identity{}, apporder.OrderListFilter{})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = env.orders.Get(ctx, alice, cancelled.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	summary, err := env.orders.VendorSummary(ctx, vendorUser(vendorA), nil)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, vendorA, summary[0].VendorID)
	assert.Equal(t, int64(2), summary[0].OrderCount)
	assert.Equal(t, int64(1), summary[0].CancelledCount)
	assert.True(t, decimal.NewFromInt(100).Equal(summary[0].Revenue))
	assert.True(t, decimal.NewFromInt(10).Equal(summary[0].Commission))
	assert.True(t, decimal.NewFromInt(90).Equal(summary[0].Payout))

	_, err = env.orders.VendorSummary(ctx, vendorUser(vendorA), &vendorB)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = env.orders.VendorSummary(ctx, alice, nil)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	all, err := env.orders.VendorSummary(ctx, admin(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	notes, err := env.orders.UpdateNotes(ctx, admin(), orderA.ID, apporder.UpdateNotesRequest{Notes: "gift wrap"})
	require.NoError(t, err)
	assert.Equal(t, "gift wrap", notes.Notes)
	_, err = env.orders.UpdateNotes(ctx, vendorUser(vendorA), orderA.ID, apporder.UpdateNotesRequest{Notes: "x"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
