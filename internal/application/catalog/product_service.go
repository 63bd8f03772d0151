package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultProductType = "general"

// ProductService handles product and variant management for vendors and
// admins, and the public product listing
type ProductService struct {
	productRepo catalog.ProductRepository
	vendorRepo  catalog.VendorRepository
	stockRepo   catalog.StockRepository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	vendorRepo catalog.VendorRepository,
	stockRepo catalog.StockRepository,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		vendorRepo:  vendorRepo,
		stockRepo:   stockRepo,
		logger:      logger,
	}
}

// ownerVendor decides which vendor a new product belongs to
func ownerVendor(id shared.Identity, requested *uuid.UUID) (uuid.UUID, error) {
	switch {
	case id.IsAdmin():
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, shared.ErrInvalidInput.WithMessage("vendor_id is required").WithDetails(map[string]any{"field": "vendor_id"})
		}
		return *requested, nil
	case id.Role == shared.RoleVendor && id.VendorID != nil:
		if requested != nil && *requested != *id.VendorID {
			return uuid.Nil, shared.ErrForbidden.WithMessage("Vendors can only create products for their own store")
		}
		return *id.VendorID, nil
	}
	return uuid.Nil, shared.ErrForbidden
}

func canManage(id shared.Identity, p *catalog.Product) bool {
	return id.IsAdmin() || id.OwnsVendor(p.VendorID)
}

// Create creates a product, optionally with its first variants
func (s *ProductService) Create(ctx context.Context, id shared.Identity, req CreateProductRequest) (*ProductResponse, error) {
	vendorID, err := ownerVendor(id, req.VendorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		return nil, err
	}

	productType := strings.TrimSpace(req.ProductType)
	if productType == "" {
		productType = defaultProductType
	}
	product, err := catalog.NewProduct(vendorID, req.Name, productType, req.BasePrice)
	if err != nil {
		return nil, err
	}
	product.Description = req.Description

	for _, v := range req.Variants {
		if err := s.addVariant(ctx, product, v); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.Int("variants", len(product.Variants)))

	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) addVariant(ctx context.Context, product *catalog.Product, req CreateVariantRequest) error {
	exists, err := s.productRepo.ExistsBySKU(ctx, req.SKU)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrAlreadyExists.WithMessage("SKU %s already exists", strings.ToUpper(req.SKU))
	}
	attrs := catalog.VariantAttributes{Color: req.Color, Size: req.Size, Model: req.Model}
	_, err = product.AddVariant(req.SKU, attrs, req.StockQuantity, req.PriceOverride)
	return err
}

// Update changes a product's descriptive fields, price or activation
func (s *ProductService) Update(ctx context.Context, id shared.Identity, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.managed(ctx, id, productID)
	if err != nil {
		return nil, err
	}

	name, description, basePrice := product.Name, product.Description, product.BasePrice
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.BasePrice != nil {
		basePrice = *req.BasePrice
	}
	if err := product.Update(name, description, basePrice); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		if *req.IsActive {
			product.Activate()
		} else {
			product.Deactivate()
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// AddVariant adds a SKU to an existing product
func (s *ProductService) AddVariant(ctx context.Context, id shared.Identity, productID uuid.UUID, req CreateVariantRequest) (*ProductResponse, error) {
	product, err := s.managed(ctx, id, productID)
	if err != nil {
		return nil, err
	}
	if err := s.addVariant(ctx, product, req); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// UpdateVariant changes a variant's price override or availability. Stock
// is changed through AdjustStock only.
func (s *ProductService) UpdateVariant(ctx context.Context, id shared.Identity, productID, variantID uuid.UUID, req UpdateVariantRequest) (*VariantResponse, error) {
	product, err := s.managed(ctx, id, productID)
	if err != nil {
		return nil, err
	}
	variant, ok := product.Variant(variantID)
	if !ok {
		return nil, shared.ErrNotFound.WithMessage("Variant not found")
	}

	switch {
	case req.ClearPriceOverride:
		if err := variant.SetPriceOverride(nil); err != nil {
			return nil, err
		}
	case req.PriceOverride != nil:
		if err := variant.SetPriceOverride(req.PriceOverride); err != nil {
			return nil, err
		}
	}
	if req.IsAvailable != nil {
		variant.SetAvailability(*req.IsAvailable)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToVariantResponse(variant, product.BasePrice)
	return &resp, nil
}

// AdjustStock restocks (positive delta) or writes off (negative delta) units.
// Both directions are single conditional updates, so they compose safely
// with concurrent order placement.
func (s *ProductService) AdjustStock(ctx context.Context, id shared.Identity, productID, variantID uuid.UUID, req AdjustStockRequest) (*VariantAvailabilityResponse, error) {
	product, err := s.managed(ctx, id, productID)
	if err != nil {
		return nil, err
	}
	if _, ok := product.Variant(variantID); !ok {
		return nil, shared.ErrNotFound.WithMessage("Variant not found")
	}

	switch {
	case req.Delta > 0:
		err = s.stockRepo.IncrementStock(ctx, variantID, req.Delta)
	case req.Delta < 0:
		err = s.stockRepo.DecrementStock(ctx, variantID, -req.Delta)
	default:
		err = shared.ErrInvalidQuantity.WithMessage("Stock adjustment cannot be zero")
	}
	if err != nil {
		return nil, err
	}

	snap, err := s.stockRepo.GetSnapshot(ctx, variantID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock adjusted",
		zap.String("variant_id", variantID.String()),
		zap.Int("delta", req.Delta),
		zap.Int("stock", snap.StockQuantity))

	resp := ToVariantAvailabilityResponse(*snap)
	return &resp, nil
}

// GetByID returns a product. Inactive products are visible to their vendor
// and admins only.
func (s *ProductService) GetByID(ctx context.Context, id shared.Identity, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !canManage(id, product) {
		return nil, shared.ErrNotFound
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns products. Shoppers only see active products of active
// vendors; a vendor listing its own store and admins see everything.
func (s *ProductService) List(ctx context.Context, id shared.Identity, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	f = f.WithPage(filter.Page, filter.PageSize)
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.ProductType != "" {
		f.Filters["product_type"] = filter.ProductType
	}
	if filter.VendorID != nil {
		f.Filters["vendor_id"] = *filter.VendorID
	}

	privileged := id.IsAdmin() || (filter.VendorID != nil && id.OwnsVendor(*filter.VendorID))
	if !privileged {
		f.Filters["purchasable"] = true
	}

	products, total, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

func (s *ProductService) managed(ctx context.Context, id shared.Identity, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !canManage(id, product) {
		return nil, shared.ErrForbidden
	}
	return product, nil
}
