package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is owned by exactly one vendor and groups purchasable variants
type Product struct {
	shared.BaseAggregateRoot
	VendorID    uuid.UUID
	Name        string
	Description string
	BasePrice   decimal.Decimal
	ProductType string
	IsActive    bool
	Variants    []ProductVariant
}

// NewProduct creates an active product without variants
func NewProduct(vendorID uuid.UUID, name, productType string, basePrice decimal.Decimal) (*Product, error) {
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Product must belong to a vendor")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if basePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Base price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VendorID:          vendorID,
		Name:              name,
		BasePrice:         basePrice,
		ProductType:       productType,
		IsActive:          true,
	}, nil
}

// Update changes descriptive fields and the base price
func (p *Product) Update(name, description string, basePrice decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if basePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Base price cannot be negative")
	}
	p.Name = name
	p.Description = description
	p.BasePrice = basePrice
	p.Touch()
	p.IncrementVersion()
	return nil
}

func (p *Product) Activate() {
	p.IsActive = true
	p.Touch()
	p.IncrementVersion()
}

func (p *Product) Deactivate() {
	p.IsActive = false
	p.Touch()
	p.IncrementVersion()
}

// AddVariant attaches a new SKU to the product
func (p *Product) AddVariant(sku string, attrs VariantAttributes, stock int, priceOverride *decimal.Decimal) (*ProductVariant, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	for _, existing := range p.Variants {
		if existing.SKU == sku {
			return nil, shared.ErrAlreadyExists.WithMessage("SKU %s already exists on this product", sku)
		}
	}
	if stock < 0 {
		return nil, shared.ErrInvalidQuantity.WithMessage("Stock quantity cannot be negative")
	}
	if priceOverride != nil && priceOverride.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price override cannot be negative")
	}

	variant := ProductVariant{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     p.ID,
		Attributes:    attrs,
		SKU:           sku,
		StockQuantity: stock,
		PriceOverride: priceOverride,
		IsAvailable:   true,
	}
	p.Variants = append(p.Variants, variant)
	p.Touch()
	return &p.Variants[len(p.Variants)-1], nil
}

// Variant returns the variant with the given ID
func (p *Product) Variant(id uuid.UUID) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// VariantAttributes distinguish the variants of one product
type VariantAttributes struct {
	Color string
	Size  string
	Model string
}

// ProductVariant is a purchasable SKU
type ProductVariant struct {
	shared.BaseEntity
	ProductID     uuid.UUID
	Attributes    VariantAttributes
	SKU           string
	StockQuantity int
	PriceOverride *decimal.Decimal
	IsAvailable   bool
}

// FinalPrice resolves the price override against the product base price
func (v *ProductVariant) FinalPrice(basePrice decimal.Decimal) decimal.Decimal {
	return ResolvePrice(basePrice, v.PriceOverride)
}

// SetPriceOverride sets or clears (nil) the override
func (v *ProductVariant) SetPriceOverride(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price override cannot be negative")
	}
	v.PriceOverride = price
	v.Touch()
	return nil
}

// SetAvailability toggles whether the variant can be sold
func (v *ProductVariant) SetAvailability(available bool) {
	v.IsAvailable = available
	v.Touch()
}

// ResolvePrice returns override when present, else basePrice
func ResolvePrice(basePrice decimal.Decimal, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return basePrice
}
