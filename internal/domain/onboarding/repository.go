package onboarding

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Repository persists vendor applications
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*VendorApplication, error)
	// FindAll supports the filters "status" and "applicant_id"
	FindAll(ctx context.Context, filter shared.Filter) ([]VendorApplication, int64, error)
	HasPending(ctx context.Context, applicantID uuid.UUID) (bool, error)
	Save(ctx context.Context, app *VendorApplication) error
}
