package handler

import (
	"github.com/gin-gonic/gin"
	appcart "github.com/marketplace/backend/internal/application/cart"
	apporder "github.com/marketplace/backend/internal/application/order"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

// OrderHandler serves checkout, order reads and fulfilment updates
type OrderHandler struct {
	BaseHandler
	orderService *apporder.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *apporder.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create places an order from the request items or, when none are given,
// from the caller's cart
func (h *OrderHandler) Create(c *gin.Context) {
	id := identity(c)
	owner, err := appcart.ResolveOwner(id.UserID, middleware.GetSessionKey(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req apporder.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), id, owner, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get returns one order visible to the caller
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), identity(c), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List returns a page of the caller's orders
func (h *OrderHandler) List(c *gin.Context) {
	var filter apporder.OrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	vendorID, ok := h.QueryUUID(c, "vendor_id")
	if !ok {
		return
	}
	filter.VendorID = vendorID

	page, err := h.orderService.List(c.Request.Context(), identity(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// UpdateStatus moves one order through the status machine
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req apporder.UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), identity(c), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// BulkUpdateStatus applies one target status to many orders and reports
// each outcome. Individual failures do not fail the request.
func (h *OrderHandler) BulkUpdateStatus(c *gin.Context) {
	var req apporder.BulkUpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.orderService.BulkUpdateStatus(c.Request.Context(), identity(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdateNotes replaces the administrative notes of an order
func (h *OrderHandler) UpdateNotes(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req apporder.UpdateNotesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateNotes(c.Request.Context(), identity(c), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// VendorSummary returns order count, revenue and commission per vendor.
// Admins may narrow it with vendor_id; vendors always get their own.
func (h *OrderHandler) VendorSummary(c *gin.Context) {
	vendorID, ok := h.QueryUUID(c, "vendor_id")
	if !ok {
		return
	}

	summary, err := h.orderService.VendorSummary(c.Request.Context(), identity(c), vendorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
