package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/onboarding"
)

// VendorApplicationModel is the persistence model for a vendor application.
type VendorApplicationModel struct {
	AggregateModel
	ApplicantID     uuid.UUID                    `gorm:"type:uuid;not null;index"`
	StoreName       string                       `gorm:"type:varchar(200);not null"`
	ContactEmail    string                       `gorm:"type:varchar(255);not null"`
	Phone           string                       `gorm:"type:varchar(50)"`
	Description     string                       `gorm:"type:text"`
	Status          onboarding.ApplicationStatus `gorm:"type:varchar(20);not null;index"`
	RejectionReason string                       `gorm:"type:text"`
	VendorID        *uuid.UUID                   `gorm:"type:uuid"`
	ReviewedBy      *uuid.UUID                   `gorm:"type:uuid"`
	ReviewedAt      *time.Time
}

// TableName returns the table name for GORM
func (VendorApplicationModel) TableName() string {
	return "vendor_applications"
}

// ToDomain converts the persistence model to a domain VendorApplication
func (m *VendorApplicationModel) ToDomain() *onboarding.VendorApplication {
	return &onboarding.VendorApplication{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ApplicantID:       m.ApplicantID,
		StoreName:         m.StoreName,
		ContactEmail:      m.ContactEmail,
		Phone:             m.Phone,
		Description:       m.Description,
		Status:            m.Status,
		RejectionReason:   m.RejectionReason,
		VendorID:          m.VendorID,
		ReviewedBy:        m.ReviewedBy,
		ReviewedAt:        m.ReviewedAt,
	}
}

// VendorApplicationModelFromDomain creates a persistence model from a domain VendorApplication
func VendorApplicationModelFromDomain(a *onboarding.VendorApplication) *VendorApplicationModel {
	m := &VendorApplicationModel{
		ApplicantID:     a.ApplicantID,
		StoreName:       a.StoreName,
		ContactEmail:    a.ContactEmail,
		Phone:           a.Phone,
		Description:     a.Description,
		Status:          a.Status,
		RejectionReason: a.RejectionReason,
		VendorID:        a.VendorID,
		ReviewedBy:      a.ReviewedBy,
		ReviewedAt:      a.ReviewedAt,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
