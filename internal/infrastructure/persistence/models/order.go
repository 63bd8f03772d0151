package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	AggregateModel
	OrderNumber        string           `gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerID         *uuid.UUID       `gorm:"type:uuid;index"`
	CustomerName       string           `gorm:"type:varchar(200);not null"`
	CustomerPhone      string           `gorm:"type:varchar(50);not null"`
	CustomerAddress    string           `gorm:"type:text"`
	VendorID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status             order.Status     `gorm:"type:varchar(20);not null;index"`
	OrderType          order.Type       `gorm:"type:varchar(20);not null"`
	Subtotal           decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	DeliveryFee        decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Total              decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	CommissionRate     decimal.Decimal  `gorm:"type:decimal(5,2);not null"`
	PlatformCommission decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Notes              string           `gorm:"type:text"`
	Items              []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		Customer: order.Customer{
			Name:    m.CustomerName,
			Phone:   m.CustomerPhone,
			Address: m.CustomerAddress,
		},
		VendorID:           m.VendorID,
		Status:             m.Status,
		OrderType:          m.OrderType,
		Subtotal:           m.Subtotal,
		DeliveryFee:        m.DeliveryFee,
		Total:              m.Total,
		CommissionRate:     m.CommissionRate,
		PlatformCommission: m.PlatformCommission,
		Notes:              m.Notes,
		Items:              make([]order.OrderItem, len(m.Items)),
	}
	for i := range m.Items {
		o.Items[i] = m.Items[i].ToDomain()
	}
	return o
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:        o.OrderNumber,
		CustomerID:         o.CustomerID,
		CustomerName:       o.Customer.Name,
		CustomerPhone:      o.Customer.Phone,
		CustomerAddress:    o.Customer.Address,
		VendorID:           o.VendorID,
		Status:             o.Status,
		OrderType:          o.OrderType,
		Subtotal:           o.Subtotal,
		DeliveryFee:        o.DeliveryFee,
		Total:              o.Total,
		CommissionRate:     o.CommissionRate,
		PlatformCommission: o.PlatformCommission,
		Notes:              o.Notes,
		Items:              make([]OrderItemModel, len(o.Items)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(o.ID, &o.Items[i])
	}
	return m
}

// OrderItemModel is the persistence model for an order line. Product name
// and SKU are display snapshots taken at order time.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	VendorID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"column:sku;type:varchar(100);not null"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() order.OrderItem {
	return order.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		VariantID:   m.VariantID,
		VendorID:    m.VendorID,
		ProductName: m.ProductName,
		SKU:         m.SKU,
		Quantity:    m.Quantity,
		Price:       m.Price,
		Subtotal:    m.Subtotal,
		CreatedAt:   m.CreatedAt,
	}
}

// OrderItemModelFromDomain creates a persistence model from a domain OrderItem
func OrderItemModelFromDomain(orderID uuid.UUID, item *order.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:          item.ID,
		OrderID:     orderID,
		VariantID:   item.VariantID,
		VendorID:    item.VendorID,
		ProductName: item.ProductName,
		SKU:         item.SKU,
		Quantity:    item.Quantity,
		Price:       item.Price,
		Subtotal:    item.Subtotal,
		CreatedAt:   item.CreatedAt,
	}
}
