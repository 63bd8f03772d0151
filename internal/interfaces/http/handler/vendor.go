package handler

import (
	"github.com/gin-gonic/gin"
	appcatalog "github.com/marketplace/backend/internal/application/catalog"
)

// VendorHandler serves the public vendor directory and vendor administration
type VendorHandler struct {
	BaseHandler
	vendorService *appcatalog.VendorService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendorService *appcatalog.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

// Create registers a vendor directly (admin only)
func (h *VendorHandler) Create(c *gin.Context) {
	var req appcatalog.CreateVendorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	vendor, err := h.vendorService.Create(c.Request.Context(), identity(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, vendor)
}

// Update changes commission rate, activation or owner of a vendor
func (h *VendorHandler) Update(c *gin.Context) {
	vendorID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req appcatalog.UpdateVendorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	vendor, err := h.vendorService.Update(c.Request.Context(), identity(c), vendorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// GetByID returns a vendor by ID
func (h *VendorHandler) GetByID(c *gin.Context) {
	vendorID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	vendor, err := h.vendorService.GetByID(c.Request.Context(), identity(c), vendorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// GetBySlug returns a vendor by its URL slug
func (h *VendorHandler) GetBySlug(c *gin.Context) {
	vendor, err := h.vendorService.GetBySlug(c.Request.Context(), identity(c), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// List returns a page of vendors
func (h *VendorHandler) List(c *gin.Context) {
	var filter appcatalog.VendorListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.vendorService.List(c.Request.Context(), identity(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
