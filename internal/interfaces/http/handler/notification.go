package handler

import (
	"github.com/gin-gonic/gin"
	appnotification "github.com/marketplace/backend/internal/application/notification"
)

// NotificationHandler serves the caller's notification inbox
type NotificationHandler struct {
	BaseHandler
	notificationService *appnotification.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *appnotification.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns a page of notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	var filter appnotification.NotificationListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.notificationService.List(c.Request.Context(), identity(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), identity(c), notificationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, n)
}
