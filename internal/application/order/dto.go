package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// OrderItemInput is one requested line of an order placed without a cart
type OrderItemInput struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest represents a checkout request. When Items is empty
// the order is built from the caller's cart and the cart is cleared.
type CreateOrderRequest struct {
	CustomerName    string           `json:"customer_name" binding:"required,max=200"`
	CustomerPhone   string           `json:"customer_phone" binding:"required,max=50"`
	CustomerAddress string           `json:"customer_address" binding:"max=500"`
	OrderType       string           `json:"order_type" binding:"omitempty,oneof=delivery pickup"`
	Notes           string           `json:"notes" binding:"max=2000"`
	Items           []OrderItemInput `json:"items" binding:"omitempty,dive"`
}

// UpdateStatusRequest represents a status change of one order
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

// BulkUpdateStatusRequest represents a status change applied to many orders
type BulkUpdateStatusRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1,max=100"`
	Status   string      `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

// UpdateNotesRequest replaces the administrative notes of an order
type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// OrderListFilter represents filter options for order list
type OrderListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	VendorID *uuid.UUID `form:"-"` // parsed by the handler
	OrderBy  string     `form:"order_by" binding:"omitempty,oneof=created_at order_number total status"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	CustomerID         *uuid.UUID          `json:"customer_id,omitempty"`
	CustomerName       string              `json:"customer_name"`
	CustomerPhone      string              `json:"customer_phone"`
	CustomerAddress    string              `json:"customer_address,omitempty"`
	VendorID           uuid.UUID           `json:"vendor_id"`
	Status             string              `json:"status"`
	AllowedStatuses    []string            `json:"allowed_statuses"`
	OrderType          string              `json:"order_type"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	DeliveryFee        decimal.Decimal     `json:"delivery_fee"`
	Total              decimal.Decimal     `json:"total"`
	CommissionRate     decimal.Decimal     `json:"commission_rate"`
	PlatformCommission decimal.Decimal     `json:"platform_commission"`
	Notes              string              `json:"notes,omitempty"`
	ItemCount          int                 `json:"item_count"`
	Items              []OrderItemResponse `json:"items"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Version            int                 `json:"version"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// BulkFailure describes why one order of a bulk update was not changed
type BulkFailure struct {
	ID     uuid.UUID `json:"id"`
	Code   string    `json:"code"`
	Reason string    `json:"reason"`
}

// BulkUpdateResult reports the per-order outcome of a bulk status update
type BulkUpdateResult struct {
	Updated []uuid.UUID   `json:"updated"`
	Failed  []BulkFailure `json:"failed"`
}

// VendorSummaryResponse is the dashboard aggregate for one vendor
type VendorSummaryResponse struct {
	VendorID       uuid.UUID       `json:"vendor_id"`
	OrderCount     int64           `json:"order_count"`
	CancelledCount int64           `json:"cancelled_count"`
	Revenue        decimal.Decimal `json:"revenue"`
	Commission     decimal.Decimal `json:"commission"`
	Payout         decimal.Decimal `json:"payout"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *order.Order) OrderResponse {
	allowed := o.Status.AllowedTransitions()
	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = s.String()
	}
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			VariantID:   item.VariantID,
			VendorID:    item.VendorID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		}
	}
	return OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		CustomerID:         o.CustomerID,
		CustomerName:       o.Customer.Name,
		CustomerPhone:      o.Customer.Phone,
		CustomerAddress:    o.Customer.Address,
		VendorID:           o.VendorID,
		Status:             o.Status.String(),
		AllowedStatuses:    statuses,
		OrderType:          string(o.OrderType),
		Subtotal:           o.Subtotal,
		DeliveryFee:        o.DeliveryFee,
		Total:              o.Total,
		CommissionRate:     o.CommissionRate,
		PlatformCommission: o.PlatformCommission,
		Notes:              o.Notes,
		ItemCount:          o.ItemCount(),
		Items:              items,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Version:            o.Version,
	}
}

// ToVendorSummaryResponse converts a repository aggregate. Payout is what
// the vendor keeps after the platform commission.
func ToVendorSummaryResponse(s order.VendorSummary) VendorSummaryResponse {
	return VendorSummaryResponse{
		VendorID:       s.VendorID,
		OrderCount:     s.OrderCount,
		CancelledCount: s.CancelledCount,
		Revenue:        s.Revenue,
		Commission:     s.Commission,
		Payout:         s.Revenue.Sub(s.Commission),
	}
}
