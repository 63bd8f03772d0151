package models

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// VendorModel is the persistence model for the Vendor aggregate.
type VendorModel struct {
	AggregateModel
	Name           string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	Slug           string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	ContactEmail   string          `gorm:"type:varchar(255)"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	IsActive       bool            `gorm:"not null;index"`
	OwnerUserID    *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the persistence model to a domain Vendor
func (m *VendorModel) ToDomain() *catalog.Vendor {
	return &catalog.Vendor{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		ContactEmail:      m.ContactEmail,
		CommissionRate:    m.CommissionRate,
		IsActive:          m.IsActive,
		OwnerUserID:       m.OwnerUserID,
	}
}

// VendorModelFromDomain creates a persistence model from a domain Vendor
func VendorModelFromDomain(v *catalog.Vendor) *VendorModel {
	m := &VendorModel{
		Name:           v.Name,
		Slug:           v.Slug,
		ContactEmail:   v.ContactEmail,
		CommissionRate: v.CommissionRate,
		IsActive:       v.IsActive,
		OwnerUserID:    v.OwnerUserID,
	}
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	return m
}

// ProductModel is the persistence model for the Product aggregate.
type ProductModel struct {
	AggregateModel
	VendorID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name        string                `gorm:"type:varchar(200);not null"`
	Description string                `gorm:"type:text"`
	BasePrice   decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	ProductType string                `gorm:"type:varchar(50);index"`
	IsActive    bool                  `gorm:"not null;index"`
	Vendor      *VendorModel          `gorm:"foreignKey:VendorID;constraint:OnDelete:RESTRICT"`
	Variants    []ProductVariantModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model (with preloaded variants) to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		VendorID:          m.VendorID,
		Name:              m.Name,
		Description:       m.Description,
		BasePrice:         m.BasePrice,
		ProductType:       m.ProductType,
		IsActive:          m.IsActive,
		Variants:          make([]catalog.ProductVariant, len(m.Variants)),
	}
	for i := range m.Variants {
		p.Variants[i] = m.Variants[i].ToDomain()
	}
	return p
}

// ProductModelFromDomain creates a persistence model from a domain Product,
// variants included.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		VendorID:    p.VendorID,
		Name:        p.Name,
		Description: p.Description,
		BasePrice:   p.BasePrice,
		ProductType: p.ProductType,
		IsActive:    p.IsActive,
		Variants:    make([]ProductVariantModel, len(p.Variants)),
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	for i := range p.Variants {
		m.Variants[i] = *ProductVariantModelFromDomain(&p.Variants[i])
	}
	return m
}

// ProductVariantModel is the persistence model for a product variant.
// stock_quantity is guarded by a check constraint so it can never go negative.
type ProductVariantModel struct {
	BaseModel
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Color         string           `gorm:"type:varchar(50)"`
	Size          string           `gorm:"type:varchar(50)"`
	Model         string           `gorm:"type:varchar(100)"`
	SKU           string           `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	StockQuantity int              `gorm:"not null;default:0;check:chk_variant_stock_non_negative,stock_quantity >= 0"`
	PriceOverride *decimal.Decimal `gorm:"type:decimal(18,2)"`
	IsAvailable   bool             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant
func (m *ProductVariantModel) ToDomain() catalog.ProductVariant {
	return catalog.ProductVariant{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		Attributes: catalog.VariantAttributes{
			Color: m.Color,
			Size:  m.Size,
			Model: m.Model,
		},
		SKU:           m.SKU,
		StockQuantity: m.StockQuantity,
		PriceOverride: m.PriceOverride,
		IsAvailable:   m.IsAvailable,
	}
}

// ProductVariantModelFromDomain creates a persistence model from a domain ProductVariant
func ProductVariantModelFromDomain(v *catalog.ProductVariant) *ProductVariantModel {
	m := &ProductVariantModel{
		ProductID:     v.ProductID,
		Color:         v.Attributes.Color,
		Size:          v.Attributes.Size,
		Model:         v.Attributes.Model,
		SKU:           v.SKU,
		StockQuantity: v.StockQuantity,
		PriceOverride: v.PriceOverride,
		IsAvailable:   v.IsAvailable,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}

// VariantSnapshotRow is the result row of the variant/product/vendor join
// used to validate cart and order lines.
type VariantSnapshotRow struct {
	VariantID        uuid.UUID
	ProductID        uuid.UUID
	VendorID         uuid.UUID
	ProductName      string
	SKU              string `gorm:"column:sku"`
	BasePrice        decimal.Decimal
	PriceOverride    decimal.NullDecimal
	StockQuantity    int
	VariantAvailable bool
	ProductActive    bool
	VendorActive     bool
	CommissionRate   decimal.Decimal
}

// ToDomain converts the joined row to a catalog VariantSnapshot
func (r *VariantSnapshotRow) ToDomain() catalog.VariantSnapshot {
	s := catalog.VariantSnapshot{
		VariantID:        r.VariantID,
		ProductID:        r.ProductID,
		VendorID:         r.VendorID,
		ProductName:      r.ProductName,
		SKU:              r.SKU,
		BasePrice:        r.BasePrice,
		StockQuantity:    r.StockQuantity,
		VariantAvailable: r.VariantAvailable,
		ProductActive:    r.ProductActive,
		VendorActive:     r.VendorActive,
		CommissionRate:   r.CommissionRate,
	}
	if r.PriceOverride.Valid {
		override := r.PriceOverride.Decimal
		s.PriceOverride = &override
	}
	return s
}
