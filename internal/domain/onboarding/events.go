package onboarding

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

const (
	EventTypeVendorApplicationCreated  = "VendorApplicationCreated"
	EventTypeVendorApplicationReviewed = "VendorApplicationReviewed"
)

// VendorApplicationCreatedEvent is raised when a user applies to become a vendor
type VendorApplicationCreatedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID `json:"application_id"`
	ApplicantID   uuid.UUID `json:"applicant_id"`
	StoreName     string    `json:"store_name"`
	ContactEmail  string    `json:"contact_email"`
}

// NewVendorApplicationCreatedEvent creates a new VendorApplicationCreatedEvent
func NewVendorApplicationCreatedEvent(a *VendorApplication) *VendorApplicationCreatedEvent {
	return &VendorApplicationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorApplicationCreated, AggregateType, a.ID),
		ApplicationID:   a.ID,
		ApplicantID:     a.ApplicantID,
		StoreName:       a.StoreName,
		ContactEmail:    a.ContactEmail,
	}
}

// EventType returns the event type name
func (e *VendorApplicationCreatedEvent) EventType() string {
	return EventTypeVendorApplicationCreated
}

// VendorApplicationReviewedEvent is raised when an admin approves or rejects
type VendorApplicationReviewedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID         `json:"application_id"`
	ApplicantID   uuid.UUID         `json:"applicant_id"`
	StoreName     string            `json:"store_name"`
	Status        ApplicationStatus `json:"status"`
	VendorID      *uuid.UUID        `json:"vendor_id,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// NewVendorApplicationReviewedEvent creates a new VendorApplicationReviewedEvent
func NewVendorApplicationReviewedEvent(a *VendorApplication) *VendorApplicationReviewedEvent {
	return &VendorApplicationReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorApplicationReviewed, AggregateType, a.ID),
		ApplicationID:   a.ID,
		ApplicantID:     a.ApplicantID,
		StoreName:       a.StoreName,
		Status:          a.Status,
		VendorID:        a.VendorID,
		Reason:          a.RejectionReason,
	}
}

// EventType returns the event type name
func (e *VendorApplicationReviewedEvent) EventType() string {
	return EventTypeVendorApplicationReviewed
}
