package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/txn"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxOrderNumberAttempts bounds the retries on an order number collision
const maxOrderNumberAttempts = 5

// Metrics receives business measurements from the order service
type Metrics interface {
	RecordOrderCreated(ctx context.Context, orderType string, total, commission decimal.Decimal)
	RecordStockConflict(ctx context.Context)
	RecordStatusTransition(ctx context.Context, from, to string)
}

type noopMetrics struct{}

func (noopMetrics) RecordOrderCreated(context.Context, string, decimal.Decimal, decimal.Decimal) {}
func (noopMetrics) RecordStockConflict(context.Context)                                          {}
func (noopMetrics) RecordStatusTransition(context.Context, string, string)                       {}

// OrderService places orders and drives their status lifecycle. Every
// write runs in one transaction together with its outbox events.
type OrderService struct {
	scope       txn.Scope
	deliveryFee decimal.Decimal
	metrics     Metrics
	logger      *zap.Logger
	now         func() time.Time
	newNumber   func(time.Time) string
}

// NewOrderService creates a new OrderService. deliveryFee is charged on
// delivery orders.
func NewOrderService(scope txn.Scope, deliveryFee decimal.Decimal, logger *zap.Logger) *OrderService {
	return &OrderService{
		scope:       scope,
		deliveryFee: deliveryFee,
		metrics:     noopMetrics{},
		logger:      logger,
		now:         time.Now,
		newNumber:   order.GenerateNumber,
	}
}

// SetMetrics sets the business metrics sink
func (s *OrderService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// SetNumberGenerator replaces the order number source
func (s *OrderService) SetNumberGenerator(fn func(time.Time) string) {
	if fn != nil {
		s.newNumber = fn
	}
}

type requestedLine struct {
	variantID   uuid.UUID
	quantity    int
	lockedPrice *decimal.Decimal
}

// Create places an order. With explicit items the lines come from the
// request; otherwise they come from owner's cart, which is cleared in the
// same transaction and keep the price locked when they were added. Stock
// is decremented per line with a conditional
// update, so any shortage aborts the whole order.
func (s *OrderService) Create(ctx context.Context, id shared.Identity, owner cart.Owner, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create")
	defer span.End()

	orderType := order.TypeDelivery
	if req.OrderType != "" {
		orderType = order.Type(req.OrderType)
	}
	var customerID *uuid.UUID
	if id.UserID != uuid.Nil {
		customerID = &id.UserID
	}

	var created *order.Order
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		// Collect the requested lines
		var (
			requested  []requestedLine
			sourceCart *cart.Cart
		)
		if len(req.Items) > 0 {
			for _, item := range req.Items {
				requested = append(requested, requestedLine{variantID: item.VariantID, quantity: item.Quantity})
			}
		} else {
			if owner.IsZero() {
				return shared.ErrInvalidInput.WithMessage("Order must contain at least one item")
			}
			c, err := repos.Carts().FindByOwner(ctx, owner)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if c == nil || c.IsEmpty() {
				return shared.ErrInvalidInput.WithMessage("Cart is empty")
			}
			for _, item := range c.Items {
				price := item.Price
				requested = append(requested, requestedLine{variantID: item.VariantID, quantity: item.Quantity, lockedPrice: &price})
			}
			sourceCart = c
		}

		// Read the catalog state of every variant
		ids := make([]uuid.UUID, len(requested))
		for i, line := range requested {
			ids[i] = line.variantID
		}
		snaps, err := repos.Stock().GetSnapshots(ctx, ids)
		if err != nil {
			return err
		}
		lines := make([]order.Line, len(requested))
		for i, line := range requested {
			snap, ok := snaps[line.variantID]
			if !ok {
				return shared.ErrNotFound.WithMessage("Variant not found").
					WithDetails(map[string]any{"variant_id": line.variantID.String()})
			}
			lines[i] = order.Line{Snapshot: snap, Quantity: line.quantity, LockedPrice: line.lockedPrice}
		}

		params := order.NewOrderParams{
			CustomerID: customerID,
			Customer: order.Customer{
				Name:    req.CustomerName,
				Phone:   req.CustomerPhone,
				Address: req.CustomerAddress,
			},
			OrderType:   orderType,
			DeliveryFee: s.deliveryFee,
			Notes:       req.Notes,
			Lines:       lines,
		}
		params.OrderNumber = s.newNumber(s.now())
		o, err := order.NewOrder(params)
		if err != nil {
			return err
		}

		// Reserve stock; the first shortage rolls everything back
		for _, item := range o.Items {
			if err := repos.Stock().DecrementStock(ctx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}

		// The unique index on order_number decides collisions. The insert
		// runs in a savepoint, so a taken number is retried with a new one.
		for attempt := 1; ; attempt++ {
			err := repos.Orders().Create(ctx, o)
			if err == nil {
				break
			}
			if !errors.Is(err, shared.ErrAlreadyExists) {
				return err
			}
			if attempt == maxOrderNumberAttempts {
				return shared.ErrConcurrencyConflict.WithMessage("Could not allocate an order number, please retry")
			}
			params.OrderNumber = s.newNumber(s.now())
			if o, err = order.NewOrder(params); err != nil {
				return err
			}
		}
		if err := repos.Events().Record(ctx, o.GetDomainEvents()...); err != nil {
			return err
		}

		if sourceCart != nil {
			sourceCart.Clear()
			if err := repos.Carts().Save(ctx, sourceCart); err != nil {
				return err
			}
		}
		created = o
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.metrics.RecordStockConflict(ctx)
		}
		telemetry.RecordError(span, err)
		logger.Enrich(ctx, s.logger).Debug("order rejected", zap.Error(err))
		return nil, err
	}
	created.ClearDomainEvents()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, created.ID.String(),
		telemetry.SpanAttrOrderNumber, created.OrderNumber,
		telemetry.SpanAttrVendorID, created.VendorID.String(),
		telemetry.SpanAttrItemCount, created.ItemCount(),
	)
	s.metrics.RecordOrderCreated(ctx, string(created.OrderType), created.Total, created.PlatformCommission)
	logger.Enrich(ctx, s.logger).Info("order created",
		zap.String("order_id", created.ID.String()),
		zap.String("order_number", created.OrderNumber),
		zap.String("vendor_id", created.VendorID.String()),
		zap.String("total", created.Total.String()))

	resp := ToOrderResponse(created)
	return &resp, nil
}

// UpdateStatus moves one order to a new status. Cancelling returns every
// line to stock in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, id shared.Identity, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "update_status",
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrOrderStatus, req.Status)
	defer span.End()

	o, from, err := s.transition(ctx, id, orderID, order.Status(req.Status))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.metrics.RecordStatusTransition(ctx, from.String(), o.Status.String())
	logger.Enrich(ctx, s.logger).Info("order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", from.String()),
		zap.String("to", o.Status.String()))

	resp := ToOrderResponse(o)
	return &resp, nil
}

func (s *OrderService) transition(ctx context.Context, id shared.Identity, orderID uuid.UUID, target order.Status) (*order.Order, order.Status, error) {
	var (
		result *order.Order
		from   order.Status
	)
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.VisibleTo(id) {
			return shared.ErrNotFound
		}
		if !o.ManageableBy(id) {
			return shared.ErrForbidden.WithMessage("Only the vendor or an admin can change the order status")
		}

		from = o.Status
		if err := o.TransitionTo(target); err != nil {
			return err
		}
		if target == order.StatusCancelled {
			for _, item := range o.Items {
				if err := repos.Stock().IncrementStock(ctx, item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		if err := repos.Events().Record(ctx, o.GetDomainEvents()...); err != nil {
			return err
		}
		o.ClearDomainEvents()
		result = o
		return nil
	})
	return result, from, err
}

// BulkUpdateStatus applies one status to many orders. Each order is
// updated in its own transaction, in request order; a failure is reported
// for that order and never undoes the others.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, id shared.Identity, req BulkUpdateStatusRequest) (*BulkUpdateResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "bulk_update_status",
		telemetry.SpanAttrOrderStatus, req.Status,
		telemetry.SpanAttrItemCount, len(req.OrderIDs))
	defer span.End()

	target := order.Status(req.Status)
	if !target.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Unknown order status %q", req.Status)
	}

	result := &BulkUpdateResult{Updated: []uuid.UUID{}, Failed: []BulkFailure{}}
	seen := make(map[uuid.UUID]struct{}, len(req.OrderIDs))
	for _, orderID := range req.OrderIDs {
		if _, dup := seen[orderID]; dup {
			continue
		}
		seen[orderID] = struct{}{}

		o, from, err := s.transition(ctx, id, orderID, target)
		if err != nil {
			result.Failed = append(result.Failed, bulkFailure(orderID, err))
			if _, ok := shared.IsDomainError(err); !ok {
				logger.Enrich(ctx, s.logger).Error("bulk status update failed",
					zap.String("order_id", orderID.String()), zap.Error(err))
			}
			continue
		}
		s.metrics.RecordStatusTransition(ctx, from.String(), o.Status.String())
		result.Updated = append(result.Updated, orderID)
	}

	telemetry.SetAttributes(span, "updated", len(result.Updated), "failed", len(result.Failed))
	logger.Enrich(ctx, s.logger).Info("bulk order status update",
		zap.String("status", req.Status),
		zap.Int("updated", len(result.Updated)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func bulkFailure(orderID uuid.UUID, err error) BulkFailure {
	if de, ok := shared.IsDomainError(err); ok {
		return BulkFailure{ID: orderID, Code: de.Code, Reason: de.Message}
	}
	return BulkFailure{ID: orderID, Code: "INTERNAL_ERROR", Reason: "Unexpected error while updating the order"}
}

// Get returns an order the caller may see. Orders of other customers or
// vendors are reported as not found.
func (s *OrderService) Get(ctx context.Context, id shared.Identity, orderID uuid.UUID) (*OrderResponse, error) {
	var resp OrderResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.VisibleTo(id) {
			return shared.ErrNotFound
		}
		resp = ToOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns orders scoped by role: customers see their own orders,
// vendors see their store's orders and admins see everything.
func (s *OrderService) List(ctx context.Context, id shared.Identity, filter OrderListFilter) (shared.Paginated[OrderResponse], error) {
	lf := order.ListFilter{Filter: shared.DefaultFilter()}
	lf.Search = filter.Search
	lf.Filter = lf.Filter.WithPage(filter.Page, filter.PageSize)
	if filter.OrderBy != "" {
		lf.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		lf.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		status := order.Status(filter.Status)
		lf.Status = &status
	}

	switch {
	case id.IsAdmin():
		lf.VendorID = filter.VendorID
	case id.Role == shared.RoleVendor:
		if id.VendorID == nil {
			return shared.Paginated[OrderResponse]{}, shared.ErrForbidden.WithMessage("Account is not linked to a vendor")
		}
		lf.VendorID = id.VendorID
	default:
		if id.UserID == uuid.Nil {
			return shared.Paginated[OrderResponse]{}, shared.ErrUnauthorized
		}
		lf.CustomerID = &id.UserID
	}

	var page shared.Paginated[OrderResponse]
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		orders, total, err := repos.Orders().FindAll(ctx, lf)
		if err != nil {
			return err
		}
		items := make([]OrderResponse, len(orders))
		for i := range orders {
			items[i] = ToOrderResponse(&orders[i])
		}
		page = shared.NewPaginated(items, total, lf.Page, lf.PageSize)
		return nil
	})
	return page, err
}

// UpdateNotes replaces the administrative notes of an order
func (s *OrderService) UpdateNotes(ctx context.Context, id shared.Identity, orderID uuid.UUID, req UpdateNotesRequest) (*OrderResponse, error) {
	if !id.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	var resp OrderResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		o.UpdateNotes(req.Notes)
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// VendorSummary aggregates order count, revenue and commission. Vendors
// only get their own store; admins get one row per vendor, or the vendor
// named by vendorID.
func (s *OrderService) VendorSummary(ctx context.Context, id shared.Identity, vendorID *uuid.UUID) ([]VendorSummaryResponse, error) {
	switch {
	case id.IsAdmin():
	case id.Role == shared.RoleVendor && id.VendorID != nil:
		if vendorID != nil && *vendorID != *id.VendorID {
			return nil, shared.ErrForbidden
		}
		vendorID = id.VendorID
	default:
		return nil, shared.ErrForbidden
	}

	var out []VendorSummaryResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		summaries, err := repos.Orders().VendorSummaries(ctx, vendorID)
		if err != nil {
			return err
		}
		out = make([]VendorSummaryResponse, len(summaries))
		for i, sum := range summaries {
			out[i] = ToVendorSummaryResponse(sum)
		}
		return nil
	})
	return out, err
}
