package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/onboarding"
)

// ApplicationHandler serves vendor applications: submission by users and
// review by admins
type ApplicationHandler struct {
	BaseHandler
	applicationService *onboarding.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(applicationService *onboarding.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// Submit files a new vendor application for the caller
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req onboarding.SubmitApplicationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	application, err := h.applicationService.Submit(c.Request.Context(), identity(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, application)
}

// Approve creates the vendor and links the applicant as its owner
func (h *ApplicationHandler) Approve(c *gin.Context) {
	applicationID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req onboarding.ApproveApplicationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	application, err := h.applicationService.Approve(c.Request.Context(), identity(c), applicationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, application)
}

// Reject declines a pending application with a reason
func (h *ApplicationHandler) Reject(c *gin.Context) {
	applicationID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req onboarding.RejectApplicationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	application, err := h.applicationService.Reject(c.Request.Context(), identity(c), applicationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, application)
}

// Get returns one application; applicants see their own, admins see all
func (h *ApplicationHandler) Get(c *gin.Context) {
	applicationID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	application, err := h.applicationService.Get(c.Request.Context(), identity(c), applicationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, application)
}

// List returns a page of applications
func (h *ApplicationHandler) List(c *gin.Context) {
	var filter onboarding.ApplicationListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.applicationService.List(c.Request.Context(), identity(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
