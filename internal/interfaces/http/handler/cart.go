package handler

import (
	"github.com/gin-gonic/gin"
	appcart "github.com/marketplace/backend/internal/application/cart"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

// CartHandler serves the cart of the calling user or anonymous session
type CartHandler struct {
	BaseHandler
	cartService *appcart.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *appcart.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// owner resolves the cart owner, writing a 401 when the caller is neither
// signed in nor carrying a session key
func (h *CartHandler) owner(c *gin.Context) (cart.Owner, bool) {
	owner, err := appcart.ResolveOwner(identity(c).UserID, middleware.GetSessionKey(c))
	if err != nil {
		h.HandleError(c, err)
		return cart.Owner{}, false
	}
	return owner, true
}

// Get returns the cart with live product data
func (h *CartHandler) Get(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	resp, err := h.cartService.GetCart(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Totals returns item count and subtotal
func (h *CartHandler) Totals(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	totals, err := h.cartService.Totals(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, totals)
}

// AddItem adds a variant to the cart
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req appcart.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.cartService.AddItem(c.Request.Context(), owner, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItem sets the quantity of one line
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	itemID, ok := h.ParamUUID(c, "itemId")
	if !ok {
		return
	}
	var req appcart.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.cartService.UpdateItem(c.Request.Context(), owner, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem deletes one line
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	itemID, ok := h.ParamUUID(c, "itemId")
	if !ok {
		return
	}

	resp, err := h.cartService.RemoveItem(c.Request.Context(), owner, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Clear empties the cart
func (h *CartHandler) Clear(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), owner); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Merge folds the guest cart named by X-Session-Key into the signed-in
// user's cart
func (h *CartHandler) Merge(c *gin.Context) {
	sessionKey := middleware.GetSessionKey(c)
	if sessionKey == "" {
		h.HandleError(c, shared.ErrInvalidInput.WithMessage(middleware.SessionKeyHeader+" header is required"))
		return
	}

	resp, err := h.cartService.MergeSessionCart(c.Request.Context(), sessionKey, identity(c).UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
