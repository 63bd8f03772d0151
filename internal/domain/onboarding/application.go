package onboarding

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// AggregateType is used on events and outbox rows
const AggregateType = "VendorApplication"

// ApplicationStatus is the review state of a vendor application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// IsValid checks if the status is known
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// VendorApplication is a user's request to open a store
type VendorApplication struct {
	shared.BaseAggregateRoot
	ApplicantID     uuid.UUID
	StoreName       string
	ContactEmail    string
	Phone           string
	Description     string
	Status          ApplicationStatus
	RejectionReason string
	VendorID        *uuid.UUID
	ReviewedBy      *uuid.UUID
	ReviewedAt      *time.Time
}

// NewVendorApplication validates and records a pending application
func NewVendorApplication(applicantID uuid.UUID, storeName, email, phone, description string) (*VendorApplication, error) {
	if applicantID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Applicant is required")
	}
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Store name is required").WithDetails(map[string]any{"field": "store_name"})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("Contact email is invalid").WithDetails(map[string]any{"field": "contact_email"})
	}

	app := &VendorApplication{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ApplicantID:       applicantID,
		StoreName:         storeName,
		ContactEmail:      email,
		Phone:             phone,
		Description:       description,
		Status:            ApplicationPending,
	}
	app.AddDomainEvent(NewVendorApplicationCreatedEvent(app))
	return app, nil
}

// Approve records the vendor created for this application
func (a *VendorApplication) Approve(reviewer, vendorID uuid.UUID) error {
	if err := a.ensurePending(); err != nil {
		return err
	}
	now := time.Now()
	a.Status = ApplicationApproved
	a.VendorID = &vendorID
	a.ReviewedBy = &reviewer
	a.ReviewedAt = &now
	a.Touch()
	a.AddDomainEvent(NewVendorApplicationReviewedEvent(a))
	return nil
}

// Reject closes the application with a reason
func (a *VendorApplication) Reject(reviewer uuid.UUID, reason string) error {
	if err := a.ensurePending(); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return shared.ErrInvalidInput.WithMessage("Rejection reason is required")
	}
	now := time.Now()
	a.Status = ApplicationRejected
	a.RejectionReason = reason
	a.ReviewedBy = &reviewer
	a.ReviewedAt = &now
	a.Touch()
	a.AddDomainEvent(NewVendorApplicationReviewedEvent(a))
	return nil
}

func (a *VendorApplication) ensurePending() error {
	if a.Status != ApplicationPending {
		return shared.ErrInvalidState.WithMessage("Application has already been %s", a.Status)
	}
	return nil
}
