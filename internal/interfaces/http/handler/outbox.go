package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/event"
)

// OutboxHandler is the admin view of event delivery: how many
// notifications are queued or stuck, and requeueing the dead ones
type OutboxHandler struct {
	BaseHandler
	outbox *event.OutboxService
}

func NewOutboxHandler(outbox *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{outbox: outbox}
}

func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outbox.Stats(c.Request.Context(), identity(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// DeadLetters pages through entries that used up their delivery attempts
func (h *OutboxHandler) DeadLetters(c *gin.Context) {
	var filter event.OutboxFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.outbox.DeadLetters(c.Request.Context(), identity(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

func (h *OutboxHandler) Get(c *gin.Context) {
	entryID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.outbox.Entry(c.Request.Context(), identity(c), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Retry requeues one dead entry; anything not dead is a 422
func (h *OutboxHandler) Retry(c *gin.Context) {
	entryID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.outbox.Requeue(c.Request.Context(), identity(c), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

func (h *OutboxHandler) RetryAll(c *gin.Context) {
	result, err := h.outbox.RequeueAll(c.Request.Context(), identity(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
