package order

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// OrderItemInfo is the line summary carried on order events
type OrderItemInfo struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderCreatedEvent is raised when an order has been placed
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID            uuid.UUID       `json:"order_id"`
	OrderNumber        string          `json:"order_number"`
	VendorID           uuid.UUID       `json:"vendor_id"`
	CustomerID         *uuid.UUID      `json:"customer_id,omitempty"`
	CustomerName       string          `json:"customer_name"`
	OrderType          Type            `json:"order_type"`
	Total              decimal.Decimal `json:"total"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	Items              []OrderItemInfo `json:"items"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	items := make([]OrderItemInfo, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemInfo{
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}
	return &OrderCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateType, o.ID),
		OrderID:            o.ID,
		OrderNumber:        o.OrderNumber,
		VendorID:           o.VendorID,
		CustomerID:         o.CustomerID,
		CustomerName:       o.Customer.Name,
		OrderType:          o.OrderType,
		Total:              o.Total,
		PlatformCommission: o.PlatformCommission,
		Items:              items,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// OrderStatusChangedEvent is raised on every successful status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID  `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	VendorID    uuid.UUID  `json:"vendor_id"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	From        Status     `json:"from"`
	To          Status     `json:"to"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateType, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		VendorID:        o.VendorID,
		CustomerID:      o.CustomerID,
		From:            from,
		To:              o.Status,
	}
}

// EventType returns the event type name
func (e *OrderStatusChangedEvent) EventType() string {
	return EventTypeOrderStatusChanged
}
