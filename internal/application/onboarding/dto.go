package onboarding

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/shopspring/decimal"
)

// SubmitApplicationRequest represents a user's request to open a store
type SubmitApplicationRequest struct {
	StoreName    string `json:"store_name" binding:"required,min=2,max=200"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	Phone        string `json:"phone" binding:"max=50"`
	Description  string `json:"description" binding:"max=2000"`
}

// ApproveApplicationRequest carries the terms of the vendor created on approval
type ApproveApplicationRequest struct {
	CommissionRate decimal.Decimal `json:"commission_rate" binding:"decimal_gte0"`
	Slug           string          `json:"slug" binding:"omitempty,max=200"`
}

// RejectApplicationRequest represents a request to reject an application
type RejectApplicationRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ApplicationListFilter represents filter options for application list
type ApplicationListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at store_name status"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ApplicationResponse represents a vendor application in API responses
type ApplicationResponse struct {
	ID              uuid.UUID  `json:"id"`
	ApplicantID     uuid.UUID  `json:"applicant_id"`
	StoreName       string     `json:"store_name"`
	ContactEmail    string     `json:"contact_email"`
	Phone           string     `json:"phone,omitempty"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	VendorID        *uuid.UUID `json:"vendor_id,omitempty"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ToApplicationResponse converts a domain VendorApplication to ApplicationResponse
func ToApplicationResponse(a *onboarding.VendorApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:              a.ID,
		ApplicantID:     a.ApplicantID,
		StoreName:       a.StoreName,
		ContactEmail:    a.ContactEmail,
		Phone:           a.Phone,
		Description:     a.Description,
		Status:          string(a.Status),
		RejectionReason: a.RejectionReason,
		VendorID:        a.VendorID,
		ReviewedBy:      a.ReviewedBy,
		ReviewedAt:      a.ReviewedAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
