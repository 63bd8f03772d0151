package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateType is used on events and outbox rows
const AggregateType = "Order"

// Customer is the contact snapshot taken when the order is placed. It is not
// linked to the live user profile.
type Customer struct {
	Name    string
	Phone   string
	Address string
}

// Validate checks the fields required for the given order type
func (c Customer) Validate(orderType Type) error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.ErrInvalidInput.WithMessage("Customer name is required").WithDetails(map[string]any{"field": "customer_name"})
	}
	if strings.TrimSpace(c.Phone) == "" {
		return shared.ErrInvalidInput.WithMessage("Customer phone is required").WithDetails(map[string]any{"field": "customer_phone"})
	}
	if orderType == TypeDelivery && strings.TrimSpace(c.Address) == "" {
		return shared.ErrInvalidInput.WithMessage("Delivery address is required").WithDetails(map[string]any{"field": "customer_address"})
	}
	return nil
}

// Line is a requested quantity of a variant, together with the catalog
// state read inside the order transaction. LockedPrice, when set, is the
// price the customer already accepted in the cart and wins over the
// current catalog price.
type Line struct {
	Snapshot    catalog.VariantSnapshot
	Quantity    int
	LockedPrice *decimal.Decimal
}

// unitPrice returns the locked cart price or the live catalog price
func (l Line) unitPrice() decimal.Decimal {
	if l.LockedPrice != nil {
		return *l.LockedPrice
	}
	return l.Snapshot.FinalPrice()
}

// Order is immutable after creation apart from Status and Notes
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber        string
	CustomerID         *uuid.UUID
	Customer           Customer
	VendorID           uuid.UUID
	Status             Status
	OrderType          Type
	Subtotal           decimal.Decimal
	DeliveryFee        decimal.Decimal
	Total              decimal.Decimal
	CommissionRate     decimal.Decimal
	PlatformCommission decimal.Decimal
	Notes              string
	Items              []OrderItem
}

// OrderItem is a priced line of an order
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	VariantID   uuid.UUID
	VendorID    uuid.UUID
	ProductName string
	SKU         string
	Quantity    int
	Price       decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
}

// NewOrderParams carries everything needed to place an order
type NewOrderParams struct {
	OrderNumber string
	CustomerID  *uuid.UUID
	Customer    Customer
	OrderType   Type
	// DeliveryFee is charged for delivery orders only
	DeliveryFee decimal.Decimal
	Notes       string
	Lines       []Line
}

// NewOrder prices the lines, attributes the vendor and computes the
// commission. Stock is not touched here; the caller decrements it in the
// same transaction that persists the order.
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.OrderNumber == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Order number is required")
	}
	if !p.OrderType.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Unknown order type %q", p.OrderType)
	}
	if err := p.Customer.Validate(p.OrderType); err != nil {
		return nil, err
	}

	lines, err := mergeLines(p.Lines)
	if err != nil {
		return nil, err
	}
	attribution, err := Attribute(lines)
	if err != nil {
		return nil, err
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       p.OrderNumber,
		CustomerID:        p.CustomerID,
		Customer:          p.Customer,
		VendorID:          attribution.VendorID,
		Status:            StatusPending,
		OrderType:         p.OrderType,
		CommissionRate:    attribution.CommissionRate,
		Notes:             p.Notes,
		Subtotal:          decimal.Zero,
		DeliveryFee:       decimal.Zero,
	}

	for _, line := range lines {
		snap := line.Snapshot
		if !snap.Purchasable() {
			return nil, catalog.NotPurchasable(snap.VariantID)
		}
		price := line.unitPrice()
		subtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		o.Items = append(o.Items, OrderItem{
			ID:          uuid.New(),
			OrderID:     o.ID,
			VariantID:   snap.VariantID,
			VendorID:    snap.VendorID,
			ProductName: snap.ProductName,
			SKU:         snap.SKU,
			Quantity:    line.Quantity,
			Price:       price,
			Subtotal:    subtotal,
			CreatedAt:   o.CreatedAt,
		})
		o.Subtotal = o.Subtotal.Add(subtotal)
	}

	if p.OrderType == TypeDelivery {
		if p.DeliveryFee.IsNegative() {
			return nil, shared.ErrInvalidInput.WithMessage("Delivery fee cannot be negative")
		}
		o.DeliveryFee = p.DeliveryFee
	}
	o.Total = o.Subtotal.Add(o.DeliveryFee)
	o.PlatformCommission = Commission(o.Subtotal, o.CommissionRate)

	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// mergeLines validates quantities and folds repeated variants into one line
func mergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Order must contain at least one item")
	}
	merged := make([]Line, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, shared.ErrInvalidQuantity.WithDetails(map[string]any{"variant_id": line.Snapshot.VariantID.String()})
		}
		if i, ok := index[line.Snapshot.VariantID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.Snapshot.VariantID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// TransitionTo moves the order to target if the lifecycle allows it
func (o *Order) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Unknown order status %q", target)
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.ErrInvalidStatusTransition.
			WithMessage("Cannot change order status from %s to %s", o.Status, target).
			WithDetails(map[string]any{
				"from":    o.Status.String(),
				"to":      target.String(),
				"allowed": o.Status.AllowedTransitions(),
			})
	}

	from := o.Status
	o.Status = target
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

// UpdateNotes replaces the administrative notes
func (o *Order) UpdateNotes(notes string) {
	o.Notes = notes
	o.Touch()
}

// ItemCount is the total number of units ordered
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// VisibleTo reports whether the caller may read this order
func (o *Order) VisibleTo(id shared.Identity) bool {
	switch {
	case id.IsAdmin():
		return true
	case id.OwnsVendor(o.VendorID):
		return true
	case o.CustomerID != nil && *o.CustomerID == id.UserID:
		return true
	}
	return false
}

// ManageableBy reports whether the caller may change the order status
func (o *Order) ManageableBy(id shared.Identity) bool {
	return id.IsAdmin() || id.OwnsVendor(o.VendorID)
}
