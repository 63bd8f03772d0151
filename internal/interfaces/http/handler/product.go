package handler

import (
	"github.com/gin-gonic/gin"
	appcatalog "github.com/marketplace/backend/internal/application/catalog"
)

// ProductHandler serves the public catalog and vendor catalog management
type ProductHandler struct {
	BaseHandler
	productService *appcatalog.ProductService
	catalogService *appcatalog.CatalogService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *appcatalog.ProductService, catalogService *appcatalog.CatalogService) *ProductHandler {
	return &ProductHandler{productService: productService, catalogService: catalogService}
}

// Create creates a product with its initial variants
func (h *ProductHandler) Create(c *gin.Context) {
	var req appcatalog.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), identity(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update changes product fields
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req appcatalog.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), identity(c), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AddVariant adds a variant to a product
func (h *ProductHandler) AddVariant(c *gin.Context) {
	productID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req appcatalog.CreateVariantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.AddVariant(c.Request.Context(), identity(c), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// UpdateVariant changes price override or availability of a variant
func (h *ProductHandler) UpdateVariant(c *gin.Context) {
	productID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	variantID, ok := h.ParamUUID(c, "variantId")
	if !ok {
		return
	}
	var req appcatalog.UpdateVariantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	variant, err := h.productService.UpdateVariant(c.Request.Context(), identity(c), productID, variantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, variant)
}

// AdjustStock restocks or writes off units of a variant
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	variantID, ok := h.ParamUUID(c, "variantId")
	if !ok {
		return
	}
	var req appcatalog.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	availability, err := h.productService.AdjustStock(c.Request.Context(), identity(c), productID, variantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, availability)
}

// GetByID returns a product with its variants
func (h *ProductHandler) GetByID(c *gin.Context) {
	productID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), identity(c), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List returns a page of products
func (h *ProductHandler) List(c *gin.Context) {
	var filter appcatalog.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	vendorID, ok := h.QueryUUID(c, "vendor_id")
	if !ok {
		return
	}
	filter.VendorID = vendorID

	page, err := h.productService.List(c.Request.Context(), identity(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Availability returns the resolved price and purchasability of a variant
func (h *ProductHandler) Availability(c *gin.Context) {
	variantID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	availability, err := h.catalogService.GetAvailability(c.Request.Context(), variantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, availability)
}

// Price returns only the resolved price: the override when set, else the
// product's base price
func (h *ProductHandler) Price(c *gin.Context) {
	variantID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	price, err := h.catalogService.ResolvePrice(c.Request.Context(), variantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"variant_id": variantID, "price": price})
}

func (h *ProductHandler) Purchasable(c *gin.Context) {
	variantID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	purchasable, err := h.catalogService.IsPurchasable(c.Request.Context(), variantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"variant_id": variantID, "purchasable": purchasable})
}
