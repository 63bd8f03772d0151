package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ==================== Vendor DTOs ====================

// CreateVendorRequest represents a request to create a vendor
type CreateVendorRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=200"`
	Slug           string          `json:"slug" binding:"omitempty,max=220"`
	ContactEmail   string          `json:"contact_email" binding:"omitempty,email"`
	CommissionRate decimal.Decimal `json:"commission_rate" binding:"decimal_gte0"`
	OwnerUserID    *uuid.UUID      `json:"owner_user_id"`
}

// UpdateVendorRequest represents a request to update a vendor
type UpdateVendorRequest struct {
	CommissionRate *decimal.Decimal `json:"commission_rate" binding:"omitempty,decimal_gte0"`
	IsActive       *bool            `json:"is_active"`
	OwnerUserID    *uuid.UUID       `json:"owner_user_id"`
}

// VendorListFilter represents filter options for the vendor list
type VendorListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// VendorResponse represents a vendor in API responses
type VendorResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	ContactEmail   string          `json:"contact_email,omitempty"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	IsActive       bool            `json:"is_active"`
	OwnerUserID    *uuid.UUID      `json:"owner_user_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToVendorResponse converts a domain Vendor to VendorResponse
func ToVendorResponse(v *catalog.Vendor) VendorResponse {
	return VendorResponse{
		ID:             v.ID,
		Name:           v.Name,
		Slug:           v.Slug,
		ContactEmail:   v.ContactEmail,
		CommissionRate: v.CommissionRate,
		IsActive:       v.IsActive,
		OwnerUserID:    v.OwnerUserID,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

// ==================== Product DTOs ====================

// CreateProductRequest represents a request to create a product.
// VendorID is only honoured for admins; vendors always create for their own store.
type CreateProductRequest struct {
	VendorID    *uuid.UUID             `json:"vendor_id"`
	Name        string                 `json:"name" binding:"required,min=1,max=200"`
	Description string                 `json:"description" binding:"max=2000"`
	BasePrice   decimal.Decimal        `json:"base_price" binding:"decimal_gte0"`
	ProductType string                 `json:"product_type" binding:"max=50"`
	Variants    []CreateVariantRequest `json:"variants" binding:"omitempty,dive"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	BasePrice   *decimal.Decimal `json:"base_price" binding:"omitempty,decimal_gte0"`
	IsActive    *bool            `json:"is_active"`
}

// CreateVariantRequest represents a request to add a variant to a product
type CreateVariantRequest struct {
	SKU           string           `json:"sku" binding:"required,min=1,max=64"`
	Color         string           `json:"color" binding:"max=50"`
	Size          string           `json:"size" binding:"max=50"`
	Model         string           `json:"model" binding:"max=100"`
	StockQuantity int              `json:"stock_quantity" binding:"min=0"`
	PriceOverride *decimal.Decimal `json:"price_override" binding:"omitempty,decimal_gte0"`
}

// UpdateVariantRequest represents a request to update a variant.
// ClearPriceOverride removes the override so the base price applies again.
type UpdateVariantRequest struct {
	PriceOverride      *decimal.Decimal `json:"price_override" binding:"omitempty,decimal_gte0"`
	ClearPriceOverride bool             `json:"clear_price_override"`
	IsAvailable        *bool            `json:"is_available"`
}

// AdjustStockRequest adds (positive) or removes (negative) units
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required,ne=0"`
}

// ProductListFilter represents filter options for product lists
type ProductListFilter struct {
	Search      string     `form:"search"`
	VendorID    *uuid.UUID `form:"-"` // parsed by the handler
	ProductType string     `form:"product_type"`
	OrderBy     string     `form:"order_by" binding:"omitempty,oneof=name base_price created_at updated_at"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	VendorID    uuid.UUID         `json:"vendor_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	BasePrice   decimal.Decimal   `json:"base_price"`
	ProductType string            `json:"product_type"`
	IsActive    bool              `json:"is_active"`
	Variants    []VariantResponse `json:"variants"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// VariantResponse represents a product variant in API responses
type VariantResponse struct {
	ID            uuid.UUID        `json:"id"`
	ProductID     uuid.UUID        `json:"product_id"`
	SKU           string           `json:"sku"`
	Color         string           `json:"color,omitempty"`
	Size          string           `json:"size,omitempty"`
	Model         string           `json:"model,omitempty"`
	StockQuantity int              `json:"stock_quantity"`
	PriceOverride *decimal.Decimal `json:"price_override"`
	FinalPrice    decimal.Decimal  `json:"final_price"`
	IsAvailable   bool             `json:"is_available"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	variants := make([]VariantResponse, len(p.Variants))
	for i := range p.Variants {
		variants[i] = ToVariantResponse(&p.Variants[i], p.BasePrice)
	}
	return ProductResponse{
		ID:          p.ID,
		VendorID:    p.VendorID,
		Name:        p.Name,
		Description: p.Description,
		BasePrice:   p.BasePrice,
		ProductType: p.ProductType,
		IsActive:    p.IsActive,
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToVariantResponse converts a domain ProductVariant to VariantResponse
func ToVariantResponse(v *catalog.ProductVariant, basePrice decimal.Decimal) VariantResponse {
	return VariantResponse{
		ID:            v.ID,
		ProductID:     v.ProductID,
		SKU:           v.SKU,
		Color:         v.Attributes.Color,
		Size:          v.Attributes.Size,
		Model:         v.Attributes.Model,
		StockQuantity: v.StockQuantity,
		PriceOverride: v.PriceOverride,
		FinalPrice:    v.FinalPrice(basePrice),
		IsAvailable:   v.IsAvailable,
	}
}

// ==================== Variant availability ====================

// VariantAvailabilityResponse is the purchase view of one variant
type VariantAvailabilityResponse struct {
	VariantID     uuid.UUID       `json:"variant_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	ProductName   string          `json:"product_name"`
	SKU           string          `json:"sku"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	StockQuantity int             `json:"stock_quantity"`
	Purchasable   bool            `json:"purchasable"`
}

// ToVariantAvailabilityResponse converts a snapshot to its API form
func ToVariantAvailabilityResponse(s catalog.VariantSnapshot) VariantAvailabilityResponse {
	return VariantAvailabilityResponse{
		VariantID:     s.VariantID,
		ProductID:     s.ProductID,
		VendorID:      s.VendorID,
		ProductName:   s.ProductName,
		SKU:           s.SKU,
		FinalPrice:    s.FinalPrice(),
		StockQuantity: s.StockQuantity,
		Purchasable:   s.Purchasable(),
	}
}
